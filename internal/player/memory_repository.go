package player

import (
	"context"
	"sync"
)

// InMemorySessionRepository holds play sessions for the lifetime of the
// process. Play state is deliberately ephemeral.
type InMemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewInMemorySessionRepository() *InMemorySessionRepository {
	return &InMemorySessionRepository{
		sessions: make(map[string]*Session),
	}
}

func (r *InMemorySessionRepository) Get(_ context.Context, id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return copySession(session), nil
}

func (r *InMemorySessionRepository) Save(_ context.Context, session *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[session.ID] = copySession(session)
	return nil
}

func (r *InMemorySessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

func copySession(s *Session) *Session {
	dup := *s
	dup.Unlocked = append([]string(nil), s.Unlocked...)
	return &dup
}
