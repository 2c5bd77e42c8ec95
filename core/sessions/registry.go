// Package sessions tracks live conversation sessions for a transport
// boundary. Each session owns one orchestrator; the registry serialises
// lookup and teardown.
package sessions

import (
	"context"
	"sync"
	"time"

	orchestration "github.com/miralabs/mira-core/core"
)

type Session struct {
	ID           string
	Orchestrator *orchestration.Orchestrator
	CreatedAt    time.Time
}

type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: map[string]*Session{}}
}

// Create builds a new orchestrator from the given options and registers it
// under the orchestrator's session ID.
func (r *Registry) Create(opts ...orchestration.OrchestratorOption) *Session {
	orchestrator := orchestration.NewOrchestrator(opts...)
	session := &Session{
		ID:           orchestrator.ID(),
		Orchestrator: orchestrator,
		CreatedAt:    time.Now(),
	}

	r.mu.Lock()
	r.sessions[session.ID] = session
	r.mu.Unlock()

	return session
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	return session, ok
}

// Destroy closes the session's orchestrator and removes it from the registry.
// It reports whether a session with the given ID existed.
func (r *Registry) Destroy(ctx context.Context, id string) bool {
	r.mu.Lock()
	session, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return false
	}

	session.Orchestrator.Close(ctx)
	return true
}

// DestroyAll tears down every registered session. Used on process shutdown.
func (r *Registry) DestroyAll(ctx context.Context) {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		sessions = append(sessions, session)
	}
	r.sessions = map[string]*Session{}
	r.mu.Unlock()

	for _, session := range sessions {
		session.Orchestrator.Close(ctx)
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}
