package memory

import (
	"sync"

	"smart-break-quiz/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu   sync.RWMutex
	runs map[string]*app.Run
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		runs: make(map[string]*app.Run),
	}
}

func (s *SessionStore) Put(run *app.Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
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
	delete(s.runs, id)
}

// Len reports how many runs are held.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}
