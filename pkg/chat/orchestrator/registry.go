package orchestrator

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrStopped is the cancellation cause for a user requested stop.
var ErrStopped = errors.New("generation stopped by user")

type activeGeneration struct {
	cancel context.CancelCauseFunc
}

// Registry tracks the generations running in this process so they can be
// stopped by thread id. One registry is owned by the container and passed
// to whoever needs it.
type Registry struct {
	mu     sync.Mutex
	active map[uuid.UUID]*activeGeneration
}

func NewRegistry() *Registry {
	return &Registry{active: make(map[uuid.UUID]*activeGeneration)}
}

// Register records cancel for threadId. The returned release must be called
// when the generation ends; it only removes its own entry.
func (r *Registry) Register(threadId uuid.UUID, cancel context.CancelCauseFunc) (release func()) {
	entry := &activeGeneration{cancel: cancel}

	r.mu.Lock()
	r.active[threadId] = entry
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.active[threadId] == entry {
			delete(r.active, threadId)
		}
	}
}

// Stop cancels the generation running for threadId, if any.
func (r *Registry) Stop(threadId uuid.UUID) bool {
	r.mu.Lock()
	entry, ok := r.active[threadId]
	r.mu.Unlock()
	if !ok {
		return false
	}
	entry.cancel(ErrStopped)
	return true
}

func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

func (r *Registry) IsRunning(threadId uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[threadId]
	return ok
}
