package session

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"fitting-console/core/models"

	"github.com/google/uuid"
)

// Registry keeps the live sessions of the console, keyed by session id
type Registry struct {
	datasets DatasetSource
	schemas  SchemaSource
	trainer  Trainer
	recorder EventRecorder

	mu       sync.RWMutex
	sessions map[string]*Controller
}

// NewRegistry creates a registry whose sessions share the given dependencies
func NewRegistry(datasets DatasetSource, schemas SchemaSource, trainer Trainer, recorder EventRecorder) *Registry {
	return &Registry{
		datasets: datasets,
		schemas:  schemas,
		trainer:  trainer,
		recorder: recorder,
		sessions: make(map[string]*Controller),
	}
}

// Create starts a new empty session
func (r *Registry) Create() *Controller {
	c := NewController(uuid.New().String(), r.datasets, r.schemas, r.trainer, r.recorder)

	r.mu.Lock()
	r.sessions[c.ID()] = c
	r.mu.Unlock()
	return c
}

// Get looks up a session by id
func (r *Registry) Get(id string) (*Controller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, models.ErrNotFound)
	}
	return c, nil
}

// Delete removes a session. A session with a submission in flight cannot be
// removed.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.sessions[id]
	if !ok {
		return fmt.Errorf("session %s: %w", id, models.ErrNotFound)
	}
	if state := c.State(); state == StateSubmitting {
		return models.InvalidStateError("delete session", state)
	}
	delete(r.sessions, id)
	return nil
}

// Expire removes sessions idle since before cutoff and returns their ids.
// Sessions with a submission in flight are kept.
func (r *Registry) Expire(cutoff time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []string
	for id, c := range r.sessions {
		if c.State() == StateSubmitting || !c.LastActivity().Before(cutoff) {
			continue
		}
		delete(r.sessions, id)
		expired = append(expired, id)
	}
	sort.Strings(expired)
	return expired
}

// CountByState returns the number of live sessions per state
func (r *Registry) CountByState() map[State]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[State]int)
	for _, c := range r.sessions {
		counts[c.State()]++
	}
	return counts
}

// IDs returns the ids of all live sessions, sorted
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
