package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smart-break-quiz/internal/app"
	"smart-break-quiz/internal/domain"
	"smart-break-quiz/internal/infra/memory"
	"smart-break-quiz/internal/leaderboard"
	"smart-break-quiz/internal/metrics"
	"smart-break-quiz/internal/profile"
	"smart-break-quiz/internal/session"
)

// fixedQuestions always puts the correct answer first.
type fixedQuestions struct{}

func (fixedQuestions) Generate(string) []domain.Question {
	out := make([]domain.Question, 10)
	for i := range out {
		out[i] = domain.Question{Prompt: "q", Options: []string{"yes", "no", "maybe", "never"}, CorrectAnswer: 0}
	}
	return out
}

type testEnv struct {
	service  *app.GameService
	store    *memory.SessionStore
	profiles *profile.Service
	board    *leaderboard.Service
	clock    *session.ManualClock
	metrics  *metrics.Collectors
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo := memory.NewProfileRepository()
	env := &testEnv{
		store:    memory.NewSessionStore(),
		profiles: profile.NewService(repo, zerolog.Nop()),
		clock:    session.NewManualClock(),
		metrics:  metrics.New(prometheus.NewRegistry()),
	}
	env.board = leaderboard.NewService(repo, 0)
	env.service = app.NewGameService(env.store, env.profiles, fixedQuestions{}, env.board, app.Options{
		Session: session.Config{Clock: env.clock},
		Metrics: env.metrics,
		Logger:  zerolog.Nop(),
	})
	_, err := env.profiles.CreateWithID(context.Background(), "u1", "Петя")
	require.NoError(t, err)
	return env
}

func (e *testEnv) playAll(t *testing.T, runID string, correct int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		if i < correct {
			ans, err := e.service.Answer(ctx, runID, 0)
			require.NoError(t, err)
			require.True(t, ans.Accepted)
			e.clock.Advance(session.DefaultRevealDelay)
			continue
		}
		e.clock.Advance(session.DefaultQuestionBudget * session.DefaultTick)
		e.clock.Advance(session.DefaultRevealDelay)
	}
}

func TestLaunchRequiresProfileAndKnownGame(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.Launch(ctx, "nobody", "1")
	assert.True(t, errors.Is(err, domain.ErrProfileNotFound))

	_, err = env.service.Launch(ctx, "u1", "99")
	assert.True(t, errors.Is(err, domain.ErrGameNotFound))
	assert.Zero(t, env.store.Len())
}

func TestFullRunUpdatesProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// game 4 is a hard geography game: 30 points per answer
	run, err := env.service.Launch(ctx, "u1", "4")
	require.NoError(t, err)
	assert.Equal(t, 1, env.store.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.ActiveSessions))

	snap, err := env.service.Snapshot(run.ID)
	require.NoError(t, err)
	assert.Equal(t, session.PhaseAwaiting, snap.Phase)
	assert.Nil(t, snap.CorrectAnswer)

	env.playAll(t, run.ID, 7)

	snap, err = env.service.Snapshot(run.ID)
	require.NoError(t, err)
	assert.Equal(t, session.PhaseCompleted, snap.Phase)

	result, err := env.service.Finish(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 210, result.Summary.Score)
	assert.Equal(t, 7, result.Summary.Correct)
	assert.Equal(t, 70, result.Summary.Accuracy)
	assert.Equal(t, 210, result.Outcome.Profile.Points)
	assert.Equal(t, 1, result.Outcome.Profile.GamesPlayed)
	assert.Equal(t, 21.0, result.Outcome.Profile.SubjectProgress[domain.SubjectGeography])
	assert.Contains(t, result.Outcome.NewAchievements, "1")

	stored, err := env.profiles.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 210, stored.Points)

	_, err = env.service.Snapshot(run.ID)
	assert.True(t, errors.Is(err, domain.ErrSessionNotFound), "finished runs are released")
	assert.Zero(t, testutil.ToFloat64(env.metrics.ActiveSessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.SessionsCompleted.WithLabelValues("4")))
	assert.Equal(t, 7.0, testutil.ToFloat64(env.metrics.Answers.WithLabelValues("4", "correct")))
	assert.Equal(t, 3.0, testutil.ToFloat64(env.metrics.Answers.WithLabelValues("4", "timeout")))
}

func TestFinishBeforeCompletionKeepsRun(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	run, err := env.service.Launch(ctx, "u1", "1")
	require.NoError(t, err)

	_, err = env.service.Finish(ctx, run.ID)
	assert.True(t, errors.Is(err, domain.ErrSessionNotCompleted))

	_, err = env.service.Snapshot(run.ID)
	assert.NoError(t, err)

	stored, _ := env.profiles.Get(ctx, "u1")
	assert.Zero(t, stored.GamesPlayed)
}

func TestCloseAbandonsWithoutScoring(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	run, err := env.service.Launch(ctx, "u1", "1")
	require.NoError(t, err)
	env.playAll(t, run.ID, 10)

	env.service.Close(ctx, run.ID)
	env.service.Close(ctx, run.ID)

	_, err = env.service.Finish(ctx, run.ID)
	assert.True(t, errors.Is(err, domain.ErrSessionNotFound))

	stored, _ := env.profiles.Get(ctx, "u1")
	assert.Zero(t, stored.Points)
	assert.Zero(t, stored.GamesPlayed)
	assert.Zero(t, env.clock.Active())
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.SessionsAbandoned.WithLabelValues("1")))
	assert.Zero(t, testutil.ToFloat64(env.metrics.ActiveSessions))
}

func TestFinishInvalidatesLeaderboard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	before, err := env.board.Top(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, before, 1)
	assert.Zero(t, before[0].Points)

	run, err := env.service.Launch(ctx, "u1", "1")
	require.NoError(t, err)
	env.playAll(t, run.ID, 10)
	_, err = env.service.Finish(ctx, run.ID)
	require.NoError(t, err)

	after, err := env.board.Top(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Equal(t, 100, after[0].Points)
	assert.True(t, after[0].IsCurrentUser)
}

func TestAnswerUnknownRun(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.service.Answer(context.Background(), "missing", 0)
	assert.True(t, errors.Is(err, domain.ErrSessionNotFound))

	_, _, err = env.service.Subscribe(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrSessionNotFound))
}

func TestSubscribeSeesAnswers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	run, err := env.service.Launch(ctx, "u1", "1")
	require.NoError(t, err)

	updates, cancel, err := env.service.Subscribe(ctx, run.ID)
	require.NoError(t, err)
	defer cancel()

	first := <-updates
	assert.Equal(t, session.PhaseAwaiting, first.Phase)

	_, err = env.service.Answer(ctx, run.ID, 1)
	require.NoError(t, err)

	resolved := <-updates
	assert.Equal(t, session.PhaseResolved, resolved.Phase)
	require.NotNil(t, resolved.Correct)
	assert.False(t, *resolved.Correct)
	require.NotNil(t, resolved.CorrectAnswer)
	assert.Equal(t, 0, *resolved.CorrectAnswer)
}

// failingProfiles reads profiles normally but cannot record results.
type failingProfiles struct {
	*profile.Service
	err error
}

func (f failingProfiles) RecordResult(context.Context, string, int, string) (profile.Outcome, error) {
	return profile.Outcome{}, f.err
}

func TestFinishWithUnrecordedResultCountsAsAbandoned(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	storeDown := errors.New("store down")
	service := app.NewGameService(env.store, failingProfiles{Service: env.profiles, err: storeDown}, fixedQuestions{}, env.board, app.Options{
		Session: session.Config{Clock: env.clock},
		Metrics: env.metrics,
		Logger:  zerolog.Nop(),
	})

	run, err := service.Launch(ctx, "u1", "1")
	require.NoError(t, err)
	env.playAll(t, run.ID, 10)

	_, err = service.Finish(ctx, run.ID)
	require.ErrorIs(t, err, storeDown)

	assert.Zero(t, testutil.ToFloat64(env.metrics.SessionsCompleted.WithLabelValues("1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.SessionsAbandoned.WithLabelValues("1")))
	assert.Zero(t, testutil.ToFloat64(env.metrics.ActiveSessions))

	stored, err := env.profiles.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, stored.Points)
}
