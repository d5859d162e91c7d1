package leaderboard

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"smart-break-quiz/internal/domain"
)

// DefaultLimit is the number of rows shown on the ranking page.
const DefaultLimit = 10

const cacheKey = "ranking"

// Source lists every stored profile.
type Source interface {
	ListProfiles(ctx context.Context) ([]domain.Profile, error)
}

// Service ranks profiles by points and caches the ordering for a short TTL.
// Concurrent misses share a single load.
type Service struct {
	source Source
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.Mutex
	ranked    []domain.Profile
	expiresAt time.Time
	// generation is bumped by Invalidate; a load only caches if it is unchanged.
	generation uint64
}

func NewService(source Source, ttl time.Duration) *Service {
	return &Service{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Top returns the first limit entries, ranked from 1. The entry for
// currentUserID is flagged; when that user ranks below limit their entry is
// appended with its real rank. A non-positive limit means DefaultLimit.
func (s *Service) Top(ctx context.Context, currentUserID string, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	ranked, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	top := ranked
	if len(top) > limit {
		top = top[:limit]
	}

	entries := make([]domain.LeaderboardEntry, 0, len(top)+1)
	for i, p := range top {
		entries = append(entries, entry(i, p, currentUserID))
	}
	if currentUserID == "" {
		return entries, nil
	}
	if i := position(ranked, currentUserID); i >= len(top) {
		entries = append(entries, entry(i, ranked[i], currentUserID))
	}
	return entries, nil
}

func entry(i int, p domain.Profile, currentUserID string) domain.LeaderboardEntry {
	return domain.LeaderboardEntry{
		Rank:          i + 1,
		UserID:        p.ID,
		Name:          p.Name,
		Points:        p.Points,
		Level:         p.Level,
		IsCurrentUser: currentUserID != "" && p.ID == currentUserID,
	}
}

// position is the index of userID in ranked, or -1.
func position(ranked []domain.Profile, userID string) int {
	for i, p := range ranked {
		if p.ID == userID {
			return i
		}
	}
	return -1
}

// Invalidate drops the cached ranking so the next read reloads it.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.ranked = nil
	s.expiresAt = time.Time{}
	s.generation++
	s.mu.Unlock()
	s.sf.Forget(cacheKey)
}

func (s *Service) load(ctx context.Context) ([]domain.Profile, error) {
	if ranked, ok := s.cached(); ok {
		return ranked, nil
	}

	result, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		if ranked, ok := s.cached(); ok {
			return ranked, nil
		}
		s.mu.Lock()
		generation := s.generation
		s.mu.Unlock()

		now := s.clock()
		profiles, err := s.source.ListProfiles(ctx)
		if err != nil {
			return nil, err
		}
		ranked := Sort(profiles)
		expiresAt := now.Add(s.ttlWithJitter())

		s.mu.Lock()
		if s.generation == generation {
			s.ranked = ranked
			s.expiresAt = expiresAt
		}
		s.mu.Unlock()
		return ranked, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Profile), nil
}

func (s *Service) cached() ([]domain.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ranked != nil && s.expiresAt.After(s.clock()) {
		return s.ranked, true
	}
	return nil, false
}

// Sort orders profiles by points, then level, both descending. Ties keep a
// stable order by name and id.
func Sort(profiles []domain.Profile) []domain.Profile {
	out := make([]domain.Profile, len(profiles))
	copy(out, profiles)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		if out[i].Level != out[j].Level {
			return out[i].Level > out[j].Level
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Service) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	// up to 10% jitter
	s.mu.Lock()
	defer s.mu.Unlock()
	jitterMax := int64(s.ttl) / 10
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}
