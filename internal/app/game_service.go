package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"smart-break-quiz/internal/domain"
	"smart-break-quiz/internal/game"
	"smart-break-quiz/internal/metrics"
	"smart-break-quiz/internal/profile"
	"smart-break-quiz/internal/session"
)

// SessionRepository abstracts where live runs are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Put(run *Run)
	Get(id string) (*Run, bool)
	Delete(id string)
}

// ProfileService is the slice of profile use cases a run needs.
type ProfileService interface {
	Get(ctx context.Context, userID string) (domain.Profile, error)
	RecordResult(ctx context.Context, userID string, score int, category string) (profile.Outcome, error)
}

// QuestionSource produces the question set for a game.
type QuestionSource interface {
	Generate(gameID string) []domain.Question
}

// Ranking is notified when stored points change.
type Ranking interface {
	Invalidate()
}

// Run ties a session to the user and game it was launched for.
type Run struct {
	ID        string
	UserID    string
	Game      domain.Game
	Session   *session.Session
	StartedAt time.Time

	mu       sync.Mutex
	outcome  *profile.Outcome
	released bool
}

// Outcome returns the profile update once the results were acknowledged.
func (r *Run) Outcome() (profile.Outcome, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcome == nil {
		return profile.Outcome{}, false
	}
	return *r.outcome, true
}

func (r *Run) setOutcome(o profile.Outcome) {
	r.mu.Lock()
	r.outcome = &o
	r.mu.Unlock()
}

// release reports true only for the first caller.
func (r *Run) release() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return false
	}
	r.released = true
	return true
}

// Result is what a finished run reports back to the player.
type Result struct {
	Summary session.Summary `json:"summary"`
	Outcome profile.Outcome `json:"outcome"`
}

// Options tunes a GameService. Zero values are usable.
type Options struct {
	Session session.Config
	Metrics *metrics.Collectors
	Logger  zerolog.Logger
}

// GameService hosts sessions: it launches them, forwards player input, and
// applies the final score to the profile when the results are acknowledged.
type GameService struct {
	sessions  SessionRepository
	profiles  ProfileService
	questions QuestionSource
	ranking   Ranking
	metrics   *metrics.Collectors
	logger    zerolog.Logger
	cfg       session.Config
	now       func() time.Time
}

func NewGameService(store SessionRepository, profiles ProfileService, questions QuestionSource, ranking Ranking, opts Options) *GameService {
	m := opts.Metrics
	if m == nil {
		m = metrics.New(nil)
	}
	return &GameService{
		sessions:  store,
		profiles:  profiles,
		questions: questions,
		ranking:   ranking,
		metrics:   m,
		logger:    opts.Logger,
		cfg:       opts.Session,
		now:       time.Now,
	}
}

// Launch starts a new session of gameID for an existing profile.
func (s *GameService) Launch(ctx context.Context, userID, gameID string) (*Run, error) {
	if _, err := s.profiles.Get(ctx, userID); err != nil {
		return nil, err
	}
	g, err := game.Lookup(gameID)
	if err != nil {
		return nil, err
	}

	run := &Run{
		ID:        uuid.NewString(),
		UserID:    userID,
		Game:      g,
		StartedAt: s.now(),
	}

	cfg := s.cfg
	hook := cfg.OnResolved
	cfg.OnResolved = func(res session.Resolution) {
		s.metrics.Answers.WithLabelValues(g.ID, metrics.AnswerResult(res.Correct, res.TimedOut)).Inc()
		if hook != nil {
			hook(res)
		}
	}

	launch := session.Launch{GameID: g.ID, Title: g.Title, Icon: g.Icon, Difficulty: g.Difficulty}
	sess, err := session.New(run.ID, launch, s.questions.Generate(g.ID), s.completion(run), cfg)
	if err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}
	run.Session = sess

	s.sessions.Put(run)
	s.metrics.SessionsStarted.WithLabelValues(g.ID).Inc()
	s.metrics.ActiveSessions.Inc()
	sess.Start()

	s.logger.Info().
		Str("session_id", run.ID).
		Str("user_id", userID).
		Str("game_id", g.ID).
		Msg("session launched")
	return run, nil
}

func (s *GameService) completion(run *Run) session.CompletionFunc {
	return func(ctx context.Context, score int) error {
		outcome, err := s.profiles.RecordResult(ctx, run.UserID, score, run.Game.Category)
		if err != nil {
			return fmt.Errorf("record result: %w", err)
		}
		run.setOutcome(outcome)

		s.metrics.PointsAwarded.WithLabelValues(run.Game.Category).Add(float64(outcome.Score))
		if outcome.LevelUp {
			s.metrics.LevelUps.Inc()
		}
		if s.ranking != nil {
			s.ranking.Invalidate()
		}
		return nil
	}
}

// Get returns a live run.
func (s *GameService) Get(id string) (*Run, error) {
	run, ok := s.sessions.Get(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return run, nil
}

// Answer selects option for the current question of a run.
func (s *GameService) Answer(_ context.Context, id string, option int) (session.Answer, error) {
	run, err := s.Get(id)
	if err != nil {
		return session.Answer{}, err
	}
	return run.Session.Select(option)
}

// Snapshot returns the current state of a run.
func (s *GameService) Snapshot(id string) (session.Snapshot, error) {
	run, err := s.Get(id)
	if err != nil {
		return session.Snapshot{}, err
	}
	return run.Session.Snapshot(), nil
}

// Summary returns the results of a completed run without releasing it.
func (s *GameService) Summary(id string) (session.Summary, error) {
	run, err := s.Get(id)
	if err != nil {
		return session.Summary{}, err
	}
	return run.Session.Summary()
}

// Subscribe returns a channel of session transitions for a run.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *GameService) Subscribe(_ context.Context, id string) (<-chan session.Snapshot, func(), error) {
	run, err := s.Get(id)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := run.Session.Subscribe()
	return ch, cancel, nil
}

// Finish acknowledges the results of a completed run: the score is applied to
// the profile and the run is released. Finishing before completion fails with
// ErrSessionNotCompleted and leaves the run untouched.
func (s *GameService) Finish(ctx context.Context, id string) (Result, error) {
	run, err := s.Get(id)
	if err != nil {
		return Result{}, err
	}

	summary, err := run.Session.Acknowledge(ctx)
	if errors.Is(err, domain.ErrSessionNotCompleted) || errors.Is(err, domain.ErrSessionClosed) {
		return Result{}, err
	}
	// a result that could not be recorded counts as abandoned
	s.drop(run, err == nil)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", id).Msg("finish session")
		return Result{Summary: summary}, err
	}

	outcome, _ := run.Outcome()
	s.logger.Info().
		Str("session_id", id).
		Str("user_id", run.UserID).
		Int("score", summary.Score).
		Int("correct", summary.Correct).
		Msg("session finished")
	return Result{Summary: summary, Outcome: outcome}, nil
}

// Close abandons a run without touching the profile. Unknown ids are ignored.
func (s *GameService) Close(_ context.Context, id string) {
	run, ok := s.sessions.Get(id)
	if !ok {
		return
	}
	run.Session.Close()
	s.drop(run, false)
}

func (s *GameService) drop(run *Run, completed bool) {
	if !run.release() {
		return
	}
	s.sessions.Delete(run.ID)
	s.metrics.ActiveSessions.Dec()
	if completed {
		s.metrics.SessionsCompleted.WithLabelValues(run.Game.ID).Inc()
		return
	}
	s.metrics.SessionsAbandoned.WithLabelValues(run.Game.ID).Inc()
	s.logger.Info().Str("session_id", run.ID).Str("user_id", run.UserID).Msg("session abandoned")
}
