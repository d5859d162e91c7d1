package session

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smart-break-quiz/internal/domain"
	"smart-break-quiz/internal/question"
)

type harness struct {
	clock       *ManualClock
	session     *Session
	completions []int
	resolutions []Resolution
}

func newHarness(t *testing.T, gameID string, difficulty domain.Difficulty) *harness {
	t.Helper()
	questions := question.NewGeneratorWithSource(rand.NewSource(5)).Generate(gameID)
	return newHarnessWithQuestions(t, gameID, difficulty, questions)
}

func newHarnessWithQuestions(t *testing.T, gameID string, difficulty domain.Difficulty, questions []domain.Question) *harness {
	t.Helper()
	h := &harness{clock: NewManualClock()}
	s, err := New("s-1", Launch{GameID: gameID, Title: "test", Difficulty: difficulty}, questions,
		func(_ context.Context, score int) error {
			h.completions = append(h.completions, score)
			return nil
		},
		Config{
			Clock:      h.clock,
			OnResolved: func(r Resolution) { h.resolutions = append(h.resolutions, r) },
		})
	require.NoError(t, err)
	h.session = s
	s.Start()
	return h
}

func (h *harness) correctIndex() int {
	h.session.mu.Lock()
	defer h.session.mu.Unlock()
	return h.session.questions[h.session.index].CorrectAnswer
}

func (h *harness) wrongIndex() int {
	return (h.correctIndex() + 1) % len(h.session.Snapshot().Options)
}

func (h *harness) answerCorrectly(t *testing.T) {
	t.Helper()
	ans, err := h.session.Select(h.correctIndex())
	require.NoError(t, err)
	require.True(t, ans.Accepted)
	h.clock.Advance(DefaultRevealDelay)
}

func (h *harness) timeOut() {
	h.clock.Advance(DefaultQuestionBudget * DefaultTick)
	h.clock.Advance(DefaultRevealDelay)
}

func TestAllCorrectArithmeticEasy(t *testing.T) {
	h := newHarness(t, question.VariantArithmetic, domain.DifficultyEasy)

	for i := 0; i < question.SetSize; i++ {
		require.Equal(t, PhaseAwaiting, h.session.Snapshot().Phase)
		h.clock.Advance(3 * time.Second)
		h.answerCorrectly(t)
	}

	snap := h.session.Snapshot()
	assert.Equal(t, PhaseCompleted, snap.Phase)
	assert.Equal(t, 100, snap.Score)

	summary, err := h.session.Acknowledge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{Score: 100, Questions: 10, Correct: 10, Accuracy: 100}, summary)
	assert.Equal(t, []int{100}, h.completions)
}

func TestCapitalsHardScoring(t *testing.T) {
	h := newHarness(t, question.VariantCapitals, domain.DifficultyHard)

	snap := h.session.Snapshot()
	require.Equal(t, "Столица Франция?", snap.Prompt)
	require.Nil(t, snap.CorrectAnswer, "answer must stay hidden while awaiting")

	paris := indexOf(snap.Options, "Париж")
	ans, err := h.session.Select(paris)
	require.NoError(t, err)
	assert.True(t, ans.Correct)
	assert.Equal(t, 30, ans.Awarded)
	assert.Equal(t, 30, h.session.Snapshot().Score)

	for _, wrong := range []string{"Лондон", "Берлин", "Рим"} {
		h := newHarness(t, question.VariantCapitals, domain.DifficultyHard)
		opts := h.session.Snapshot().Options
		ans, err := h.session.Select(indexOf(opts, wrong))
		require.NoError(t, err)
		assert.False(t, ans.Correct, wrong)
		assert.Zero(t, ans.Awarded)

		snap := h.session.Snapshot()
		assert.Equal(t, 0, snap.Score)
		assert.Equal(t, PhaseResolved, snap.Phase)
		require.NotNil(t, snap.Correct)
		assert.False(t, *snap.Correct)
		require.NotNil(t, snap.CorrectAnswer)
		assert.Equal(t, "Париж", snap.Options[*snap.CorrectAnswer])
	}
}

func TestSecondSelectionIsIgnored(t *testing.T) {
	h := newHarness(t, question.VariantCapitals, domain.DifficultyMedium)

	first, err := h.session.Select(h.correctIndex())
	require.NoError(t, err)
	require.True(t, first.Accepted)

	for i := 0; i < 3; i++ {
		again, err := h.session.Select(h.wrongIndex())
		require.NoError(t, err)
		assert.False(t, again.Accepted)
		assert.Equal(t, 20, again.Score)
	}

	snap := h.session.Snapshot()
	assert.Equal(t, 20, snap.Score)
	require.NotNil(t, snap.Selected)
	assert.Equal(t, first.Index, snap.Index)
	assert.Len(t, h.resolutions, 1)
}

func TestTimeoutScoresLikeWrongAnswer(t *testing.T) {
	timed := newHarness(t, question.VariantSequences, domain.DifficultyMedium)
	wrong := newHarness(t, question.VariantSequences, domain.DifficultyMedium)

	timed.clock.Advance(DefaultQuestionBudget*DefaultTick - time.Second)
	require.Equal(t, PhaseAwaiting, timed.session.Snapshot().Phase)
	require.Equal(t, 1, timed.session.Snapshot().TimeLeft)
	timed.clock.Advance(time.Second)

	_, err := wrong.session.Select(wrong.wrongIndex())
	require.NoError(t, err)

	ts, ws := timed.session.Snapshot(), wrong.session.Snapshot()
	assert.Equal(t, PhaseResolved, ts.Phase)
	assert.Equal(t, ws.Phase, ts.Phase)
	assert.Equal(t, ws.Score, ts.Score)
	assert.Equal(t, 0, ts.TimeLeft)
	require.NotNil(t, ts.Correct)
	assert.False(t, *ts.Correct)
	assert.Nil(t, ts.Selected)

	require.Len(t, timed.resolutions, 1)
	assert.True(t, timed.resolutions[0].TimedOut)
	assert.Equal(t, -1, timed.resolutions[0].Selected)
}

func TestMixedCorrectAndTimeouts(t *testing.T) {
	for _, difficulty := range []domain.Difficulty{domain.DifficultyEasy, domain.DifficultyMedium, domain.DifficultyHard} {
		h := newHarness(t, question.VariantTranslation, difficulty)

		for i := 0; i < 3; i++ {
			h.answerCorrectly(t)
		}
		for i := 0; i < 7; i++ {
			require.Equal(t, PhaseAwaiting, h.session.Snapshot().Phase)
			h.timeOut()
		}

		snap := h.session.Snapshot()
		assert.Equal(t, PhaseCompleted, snap.Phase)
		assert.Equal(t, 3*difficulty.Points(), snap.Score)
		assert.Len(t, h.resolutions, 10)
		assert.Zero(t, h.clock.Active(), "no timer may run after completion")

		summary, err := h.session.Summary()
		require.NoError(t, err)
		assert.Equal(t, 30, summary.Accuracy)
	}
}

func TestScoreIsMultipleOfPointsAndBounded(t *testing.T) {
	rnd := rand.New(rand.NewSource(17))
	for round := 0; round < 30; round++ {
		difficulty := domain.Difficulty(rnd.Intn(3) + 1)
		h := newHarness(t, question.VariantFractions, difficulty)
		for i := 0; i < question.SetSize; i++ {
			switch rnd.Intn(3) {
			case 0:
				h.answerCorrectly(t)
			case 1:
				_, err := h.session.Select(h.wrongIndex())
				require.NoError(t, err)
				h.clock.Advance(DefaultRevealDelay)
			default:
				h.timeOut()
			}
		}
		snap := h.session.Snapshot()
		require.Equal(t, PhaseCompleted, snap.Phase)
		assert.Zero(t, snap.Score%difficulty.Points())
		assert.GreaterOrEqual(t, snap.Score, 0)
		assert.LessOrEqual(t, snap.Score, question.SetSize*difficulty.Points())
	}
}

func TestCountdownStopsOnceAnswerLatched(t *testing.T) {
	h := newHarness(t, question.VariantCapitals, domain.DifficultyEasy)

	h.clock.Advance(5 * time.Second)
	require.Equal(t, 25, h.session.Snapshot().TimeLeft)

	_, err := h.session.Select(h.correctIndex())
	require.NoError(t, err)
	assert.Equal(t, 1, h.clock.Active(), "only the reveal delay should be scheduled")

	h.clock.Advance(time.Second)
	assert.Equal(t, 25, h.session.Snapshot().TimeLeft)

	h.clock.Advance(DefaultRevealDelay - time.Second)
	snap := h.session.Snapshot()
	assert.Equal(t, 1, snap.Index)
	assert.Equal(t, DefaultQuestionBudget, snap.TimeLeft)
	assert.Nil(t, snap.Selected)
	assert.Nil(t, snap.Correct)
}

func TestRevealDelayBeforeAdvancing(t *testing.T) {
	h := newHarness(t, question.VariantSpelling, domain.DifficultyEasy)

	_, err := h.session.Select(h.correctIndex())
	require.NoError(t, err)

	h.clock.Advance(DefaultRevealDelay - time.Millisecond)
	assert.Equal(t, PhaseResolved, h.session.Snapshot().Phase)
	assert.Equal(t, 0, h.session.Snapshot().Index)

	h.clock.Advance(time.Millisecond)
	assert.Equal(t, PhaseAwaiting, h.session.Snapshot().Phase)
	assert.Equal(t, 1, h.session.Snapshot().Index)
}

func TestStaleTimerCallbacksAreIgnored(t *testing.T) {
	h := newHarness(t, question.VariantCapitals, domain.DifficultyEasy)

	h.session.mu.Lock()
	staleEpoch := h.session.epoch
	h.session.mu.Unlock()

	_, err := h.session.Select(h.correctIndex())
	require.NoError(t, err)

	// A tick scheduled for the superseded AwaitingAnswer state fires late.
	h.session.tick(staleEpoch)
	snap := h.session.Snapshot()
	assert.Equal(t, PhaseResolved, snap.Phase)
	assert.Equal(t, DefaultQuestionBudget, snap.TimeLeft)

	h.clock.Advance(DefaultRevealDelay)
	h.session.advance(staleEpoch)
	assert.Equal(t, 1, h.session.Snapshot().Index)
}

func TestAcknowledgeRunsCallbackOnce(t *testing.T) {
	h := newHarnessWithQuestions(t, "unknown", domain.DifficultyEasy,
		question.NewGenerator().Generate("unknown"))

	_, err := h.session.Acknowledge(context.Background())
	assert.ErrorIs(t, err, domain.ErrSessionNotCompleted)

	h.answerCorrectly(t)
	require.Equal(t, PhaseCompleted, h.session.Snapshot().Phase)

	summary, err := h.session.Acknowledge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, summary.Score)
	assert.Equal(t, 1, summary.Questions)

	_, err = h.session.Acknowledge(context.Background())
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
	assert.Equal(t, []int{10}, h.completions)

	_, err = h.session.Select(0)
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
	assert.Equal(t, PhaseClosed, h.session.Snapshot().Phase)
}

func TestAcknowledgeReturnsCallbackError(t *testing.T) {
	boom := errors.New("store down")
	s, err := New("s-err", Launch{GameID: "x", Difficulty: domain.DifficultyEasy},
		question.NewGenerator().Generate("x"),
		func(context.Context, int) error { return boom },
		Config{Clock: NewManualClock()})
	require.NoError(t, err)

	_, err = s.Select(0)
	require.NoError(t, err)
	s.cfg.Clock.(*ManualClock).Advance(DefaultRevealDelay)

	summary, err := s.Acknowledge(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 10, summary.Score)
}

func TestCloseCancelsTimersWithoutCallback(t *testing.T) {
	h := newHarness(t, question.VariantArithmetic, domain.DifficultyEasy)
	ch, cancel := h.session.Subscribe()
	defer cancel()
	<-ch

	h.clock.Advance(2 * time.Second)
	h.session.Close()

	assert.Zero(t, h.clock.Active())
	h.clock.Advance(time.Minute)
	assert.Equal(t, PhaseClosed, h.session.Snapshot().Phase)
	assert.Empty(t, h.completions)
	assert.Empty(t, h.resolutions)

	for range ch {
	}
	_, err := h.session.Acknowledge(context.Background())
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
}

func TestSelectRejectsOutOfRange(t *testing.T) {
	h := newHarness(t, question.VariantCapitals, domain.DifficultyEasy)

	_, err := h.session.Select(4)
	assert.ErrorIs(t, err, domain.ErrOptionOutOfRange)
	_, err = h.session.Select(-1)
	assert.ErrorIs(t, err, domain.ErrOptionOutOfRange)

	assert.Equal(t, PhaseAwaiting, h.session.Snapshot().Phase)
	assert.Nil(t, h.session.Snapshot().Selected)
}

func TestSubscribeReceivesTransitions(t *testing.T) {
	h := newHarness(t, question.VariantCapitals, domain.DifficultyEasy)
	ch, cancel := h.session.Subscribe()
	defer cancel()

	initial := <-ch
	assert.Equal(t, PhaseAwaiting, initial.Phase)

	h.clock.Advance(time.Second)
	tick := <-ch
	assert.Equal(t, DefaultQuestionBudget-1, tick.TimeLeft)

	_, err := h.session.Select(h.correctIndex())
	require.NoError(t, err)
	resolved := <-ch
	assert.Equal(t, PhaseResolved, resolved.Phase)
	require.NotNil(t, resolved.CorrectAnswer)
}

func TestNewValidatesInput(t *testing.T) {
	qs := question.NewGenerator().Generate(question.VariantCapitals)

	_, err := New("bad", Launch{Difficulty: 4}, qs, nil, Config{})
	assert.ErrorIs(t, err, domain.ErrInvalidDifficulty)

	_, err = New("empty", Launch{Difficulty: domain.DifficultyEasy}, nil, nil, Config{})
	assert.ErrorIs(t, err, ErrNoQuestions)
}

func TestQuestionsAreNotShared(t *testing.T) {
	qs := question.NewGenerator().Generate(question.VariantCapitals)
	h := newHarnessWithQuestions(t, question.VariantCapitals, domain.DifficultyEasy, qs)

	before := h.session.Snapshot().Options
	qs[0].Options[0] = "mutated"
	after := h.session.Snapshot()
	assert.Equal(t, before, after.Options)

	after.Options[1] = "mutated too"
	assert.Equal(t, before, h.session.Snapshot().Options)
}

func indexOf(options []string, value string) int {
	for i, opt := range options {
		if opt == value {
			return i
		}
	}
	return -1
}
