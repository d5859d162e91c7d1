package profile

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"smart-break-quiz/internal/domain"
)

// Repository abstracts where profiles are stored (memory, SQLite, Redis, Postgres).
type Repository interface {
	GetProfile(ctx context.Context, userID string) (domain.Profile, error)
	SaveProfile(ctx context.Context, p domain.Profile) error
	ListProfiles(ctx context.Context) ([]domain.Profile, error)
}

// Service owns profile bootstrap and the read-modify-write after each session.
type Service struct {
	repo   Repository
	logger zerolog.Logger
	now    func() time.Time

	// mu serializes read-modify-write cycles within this process.
	mu sync.Mutex
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// NewUserID builds a stable per-client identifier, e.g. user_1700000000000_k3j9x0a1b.
func NewUserID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("user_%d_%s", now.UnixMilli(), suffix)
}

// New returns a level 1 profile with every subject at zero.
func New(id, name string) domain.Profile {
	subjects := make(map[string]float64, len(domain.Subjects))
	for _, subject := range domain.Subjects {
		subjects[subject] = 0
	}
	return domain.Profile{
		ID:              id,
		Name:            name,
		Level:           1,
		Achievements:    []string{},
		SubjectProgress: subjects,
	}
}

// Create validates the name and persists a fresh profile under a new user id.
func (s *Service) Create(ctx context.Context, name string) (domain.Profile, error) {
	return s.CreateWithID(ctx, NewUserID(s.now()), name)
}

// CreateWithID persists a fresh profile for an id issued earlier (e.g. kept by the client).
func (s *Service) CreateWithID(ctx context.Context, userID, name string) (domain.Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Profile{}, domain.ErrEmptyName
	}
	p := New(userID, name)
	if err := s.repo.SaveProfile(ctx, p); err != nil {
		return domain.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	s.logger.Info().Str("user_id", p.ID).Str("name", p.Name).Msg("profile created")
	return p, nil
}

// Get loads a profile.
func (s *Service) Get(ctx context.Context, userID string) (domain.Profile, error) {
	return s.repo.GetProfile(ctx, userID)
}

// RecordResult applies a finished session's score to the stored profile.
func (s *Service) RecordResult(ctx context.Context, userID string, score int, category string) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return Outcome{}, err
	}

	outcome := Apply(current, score, category)
	if err := s.repo.SaveProfile(ctx, outcome.Profile); err != nil {
		return Outcome{}, fmt.Errorf("save profile: %w", err)
	}

	event := s.logger.Info().
		Str("user_id", userID).
		Str("category", category).
		Int("score", score).
		Int("points", outcome.Profile.Points).
		Int("level", outcome.Profile.Level)
	if outcome.LevelUp {
		event = event.Bool("level_up", true)
	}
	event.Msg("session result recorded")

	return outcome, nil
}

// Achievements lists the achievement catalog with the user's unlock state.
func (s *Service) Achievements(ctx context.Context, userID string) ([]domain.Achievement, error) {
	p, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Achievements(p), nil
}

// List returns every stored profile.
func (s *Service) List(ctx context.Context) ([]domain.Profile, error) {
	return s.repo.ListProfiles(ctx)
}
