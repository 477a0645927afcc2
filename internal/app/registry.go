package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/slidecast/slidecast/internal/domain"
)

// Registry holds all live sessions keyed by id. It is an explicit store
// instance handed to the relay so tests can build isolated registries;
// nothing is persisted, a process restart loses every session.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]*domain.Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[domain.SessionID]*domain.Session)}
}

// Create registers a new session with conn as its host. Fails if the id is
// already taken; callers generate collision-resistant ids.
func (r *Registry) Create(id domain.SessionID, host domain.ConnID) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; ok {
		return nil, domain.ErrSessionExists
	}
	s := domain.NewSession(id, host)
	r.sessions[id] = s
	log.Info().Str("module", "app.registry").Str("session", string(id)).Str("host", string(host)).Msg("session created")
	return s, nil
}

func (r *Registry) Get(id domain.SessionID) (*domain.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) Delete(id domain.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	log.Info().Str("module", "app.registry").Str("session", string(id)).Msg("session deleted")
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// ForEach visits a snapshot of the registry, so the callback may delete
// sessions while sweeping (the disconnect path does exactly that).
func (r *Registry) ForEach(fn func(*domain.Session)) {
	r.mu.RLock()
	snap := make([]*domain.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		snap = append(snap, s)
	}
	r.mu.RUnlock()
	for _, s := range snap {
		fn(s)
	}
}
