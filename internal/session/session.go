package session

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"smart-break-quiz/internal/domain"
)

// Defaults for the per-question countdown.
const (
	DefaultQuestionBudget = 30
	DefaultTick           = time.Second
	DefaultRevealDelay    = 1500 * time.Millisecond
)

// ErrNoQuestions is returned when a session is built from an empty question set.
var ErrNoQuestions = errors.New("session has no questions")

// Phase is the state of the session state machine.
type Phase string

const (
	PhaseAwaiting  Phase = "awaiting"
	PhaseResolved  Phase = "resolved"
	PhaseCompleted Phase = "completed"
	PhaseClosed    Phase = "closed"
)

// Config tunes timing. Zero values fall back to the defaults.
type Config struct {
	QuestionBudget int
	Tick           time.Duration
	RevealDelay    time.Duration
	Clock          Clock
	// OnResolved is called outside the session lock after every answer or timeout.
	OnResolved func(Resolution)
}

func (c Config) withDefaults() Config {
	if c.QuestionBudget <= 0 {
		c.QuestionBudget = DefaultQuestionBudget
	}
	if c.Tick <= 0 {
		c.Tick = DefaultTick
	}
	if c.RevealDelay <= 0 {
		c.RevealDelay = DefaultRevealDelay
	}
	if c.Clock == nil {
		c.Clock = RealClock
	}
	return c
}

// Launch describes the game a session was started for. Title and icon are display-only.
type Launch struct {
	GameID     string            `json:"gameId"`
	Title      string            `json:"title"`
	Icon       string            `json:"icon"`
	Difficulty domain.Difficulty `json:"difficulty"`
}

// CompletionFunc receives the final score once the results have been acknowledged.
type CompletionFunc func(ctx context.Context, score int) error

// Resolution reports how a single question ended.
type Resolution struct {
	SessionID string
	GameID    string
	Index     int
	Selected  int // -1 on timeout
	Correct   bool
	TimedOut  bool
	Awarded   int
	Score     int
}

// Answer is the result of a selection attempt.
type Answer struct {
	Index    int  `json:"index"`
	Accepted bool `json:"accepted"`
	Correct  bool `json:"correct"`
	Awarded  int  `json:"awarded"`
	Score    int  `json:"score"`
}

// Summary is the results card of a completed session.
type Summary struct {
	Score     int `json:"score"`
	Questions int `json:"questions"`
	Correct   int `json:"correct"`
	Accuracy  int `json:"accuracy"`
}

// Snapshot is a read-only view of the session. The correct answer is only
// revealed once the current question has been resolved.
type Snapshot struct {
	SessionID       string   `json:"sessionId"`
	Launch          Launch   `json:"launch"`
	Phase           Phase    `json:"phase"`
	Index           int      `json:"index"`
	Total           int      `json:"total"`
	Prompt          string   `json:"prompt,omitempty"`
	Options         []string `json:"options,omitempty"`
	CorrectAnswer   *int     `json:"correctAnswer,omitempty"`
	Selected        *int     `json:"selected"`
	Correct         *bool    `json:"correct"`
	TimeLeft        int      `json:"timeLeft"`
	Score           int      `json:"score"`
	PointsPerAnswer int      `json:"pointsPerAnswer"`
}

// Session runs one play-through of a question set.
type Session struct {
	id         string
	launch     Launch
	points     int
	total      int
	cfg        Config
	onComplete CompletionFunc

	mu           sync.Mutex
	questions    []domain.Question
	phase        Phase
	started      bool
	index        int
	score        int
	correctCount int
	selected     *int
	correct      *bool
	timeLeft     int
	timer        Timer
	epoch        uint64
	subscribers  map[chan Snapshot]struct{}
}

// New builds a session in AwaitingAnswer(0). The countdown does not run until Start.
func New(id string, launch Launch, questions []domain.Question, onComplete CompletionFunc, cfg Config) (*Session, error) {
	if !launch.Difficulty.Valid() {
		return nil, domain.ErrInvalidDifficulty
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	owned := make([]domain.Question, len(questions))
	for i, q := range questions {
		owned[i] = q.Clone()
	}

	cfg = cfg.withDefaults()
	return &Session{
		id:          id,
		launch:      launch,
		points:      launch.Difficulty.Points(),
		total:       len(owned),
		cfg:         cfg,
		onComplete:  onComplete,
		questions:   owned,
		phase:       PhaseAwaiting,
		timeLeft:    cfg.QuestionBudget,
		subscribers: make(map[chan Snapshot]struct{}),
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Launch returns the game the session was started for.
func (s *Session) Launch() Launch {
	return s.launch
}

// Start begins the countdown for the first question. Repeated calls are no-ops.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.phase != PhaseAwaiting {
		return
	}
	s.enterAwaitingLocked(0)
	s.broadcastLocked()
}

// Select records option k for the current question. Once a selection is latched,
// further selections for the same question are ignored.
func (s *Session) Select(k int) (Answer, error) {
	s.mu.Lock()
	if s.phase == PhaseClosed {
		s.mu.Unlock()
		return Answer{}, domain.ErrSessionClosed
	}
	if s.phase != PhaseAwaiting || s.selected != nil {
		ans := Answer{Index: s.index, Score: s.score}
		s.mu.Unlock()
		return ans, nil
	}
	q := s.questions[s.index]
	if k < 0 || k >= len(q.Options) {
		s.mu.Unlock()
		return Answer{}, domain.ErrOptionOutOfRange
	}

	res := s.resolveLocked(k, k == q.CorrectAnswer, false)
	s.broadcastLocked()
	s.mu.Unlock()

	s.notify(res)
	return Answer{
		Index:    res.Index,
		Accepted: true,
		Correct:  res.Correct,
		Awarded:  res.Awarded,
		Score:    res.Score,
	}, nil
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Summary returns the results once every question has been resolved.
func (s *Session) Summary() (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseCompleted {
		return Summary{}, domain.ErrSessionNotCompleted
	}
	return s.summaryLocked(), nil
}

// Acknowledge closes the results view: the completion callback runs exactly once
// with the final score and the session state is released.
func (s *Session) Acknowledge(ctx context.Context) (Summary, error) {
	s.mu.Lock()
	switch s.phase {
	case PhaseCompleted:
	case PhaseClosed:
		s.mu.Unlock()
		return Summary{}, domain.ErrSessionClosed
	default:
		s.mu.Unlock()
		return Summary{}, domain.ErrSessionNotCompleted
	}
	summary := s.summaryLocked()
	s.releaseLocked()
	callback := s.onComplete
	s.onComplete = nil
	s.mu.Unlock()

	if callback != nil {
		if err := callback(ctx, summary.Score); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

// Close tears the session down without reporting a score.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseClosed {
		return
	}
	s.onComplete = nil
	s.releaseLocked()
}

// Subscribe returns a channel of snapshots, primed with the current state.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	s.mu.Lock()
	if s.phase == PhaseClosed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) enterAwaitingLocked(i int) {
	s.started = true
	s.index = i
	s.selected = nil
	s.correct = nil
	s.timeLeft = s.cfg.QuestionBudget
	s.phase = PhaseAwaiting
	s.scheduleLocked(s.cfg.Tick, s.tick)
}

func (s *Session) tick(epoch uint64) {
	s.mu.Lock()
	if epoch != s.epoch || s.phase != PhaseAwaiting {
		s.mu.Unlock()
		return
	}
	s.timer = nil

	s.timeLeft--
	var res *Resolution
	if s.timeLeft <= 0 {
		s.timeLeft = 0
		r := s.resolveLocked(-1, false, true)
		res = &r
	} else {
		s.scheduleLocked(s.cfg.Tick, s.tick)
	}
	s.broadcastLocked()
	s.mu.Unlock()

	if res != nil {
		s.notify(*res)
	}
}

func (s *Session) resolveLocked(selected int, correct, timedOut bool) Resolution {
	if selected >= 0 {
		sel := selected
		s.selected = &sel
	}
	c := correct
	s.correct = &c

	awarded := 0
	if correct {
		awarded = s.points
		s.score += awarded
		s.correctCount++
	}
	s.phase = PhaseResolved
	s.scheduleLocked(s.cfg.RevealDelay, s.advance)

	return Resolution{
		SessionID: s.id,
		GameID:    s.launch.GameID,
		Index:     s.index,
		Selected:  selected,
		Correct:   correct,
		TimedOut:  timedOut,
		Awarded:   awarded,
		Score:     s.score,
	}
}

func (s *Session) advance(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch || s.phase != PhaseResolved {
		return
	}
	s.timer = nil

	if s.index >= len(s.questions)-1 {
		s.cancelTimerLocked()
		s.phase = PhaseCompleted
	} else {
		s.enterAwaitingLocked(s.index + 1)
	}
	s.broadcastLocked()
}

// scheduleLocked replaces the active timer; at most one timer is live at a time.
func (s *Session) scheduleLocked(d time.Duration, fn func(epoch uint64)) {
	s.cancelTimerLocked()
	epoch := s.epoch
	s.timer = s.cfg.Clock.AfterFunc(d, func() { fn(epoch) })
}

// cancelTimerLocked stops the active timer and invalidates any callback already in flight.
func (s *Session) cancelTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.epoch++
}

func (s *Session) releaseLocked() {
	s.cancelTimerLocked()
	s.phase = PhaseClosed
	s.questions = nil
	s.selected = nil
	s.correct = nil
	s.timeLeft = 0
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

func (s *Session) summaryLocked() Summary {
	accuracy := 0
	if s.total > 0 {
		accuracy = int(math.Round(float64(s.correctCount) * 100 / float64(s.total)))
	}
	return Summary{
		Score:     s.score,
		Questions: s.total,
		Correct:   s.correctCount,
		Accuracy:  accuracy,
	}
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID:       s.id,
		Launch:          s.launch,
		Phase:           s.phase,
		Index:           s.index,
		Total:           s.total,
		TimeLeft:        s.timeLeft,
		Score:           s.score,
		PointsPerAnswer: s.points,
	}
	if s.phase == PhaseClosed || s.index >= len(s.questions) {
		return snap
	}

	q := s.questions[s.index]
	snap.Prompt = q.Prompt
	snap.Options = append([]string(nil), q.Options...)
	if s.phase != PhaseAwaiting {
		correct := q.CorrectAnswer
		snap.CorrectAnswer = &correct
	}
	if s.selected != nil {
		sel := *s.selected
		snap.Selected = &sel
	}
	if s.correct != nil {
		c := *s.correct
		snap.Correct = &c
	}
	return snap
}

func (s *Session) broadcastLocked() {
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// full: drop the oldest update
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (s *Session) notify(res Resolution) {
	if s.cfg.OnResolved != nil {
		s.cfg.OnResolved(res)
	}
}
