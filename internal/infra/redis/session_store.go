package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"smart-break-quiz/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Runs hold live timers, so they stay in a local map; Redis carries a
// liveness marker per run (value: the owning user id) that expires after ttl.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	runs   map[string]*app.Run
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client: client,
		ttl:    ttl,
		runs:   make(map[string]*app.Run),
	}
}

func (s *SessionStore) Put(run *app.Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(run.ID), run.UserID, s.ttl).Err()
}

func (s *SessionStore) Get(id string) (*app.Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	return run, ok
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[id]; !ok {
		return
	}
	delete(s.runs, id)
	_ = s.client.Del(context.Background(), s.key(id)).Err()
}

func (s *SessionStore) key(id string) string {
	return "quiz:session:" + id
}
