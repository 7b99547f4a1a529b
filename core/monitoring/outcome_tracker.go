package monitoring

import (
	"context"
	"sync"
	"time"

	"fitting-console/core/diagnostics"
	"fitting-console/core/session"
)

// OutcomeTracker counts training outcomes and model quality tiers. It
// receives session transitions as a session.EventRecorder.
type OutcomeTracker struct {
	mu           sync.RWMutex
	submitted    int
	succeeded    int
	failed       int
	trainingTime time.Duration
	submittedAt  map[string]time.Time
	buckets      map[diagnostics.Bucket]int
}

// NewOutcomeTracker creates an empty tracker
func NewOutcomeTracker() *OutcomeTracker {
	return &OutcomeTracker{
		submittedAt: make(map[string]time.Time),
		buckets:     make(map[diagnostics.Bucket]int),
	}
}

// RecordTransition updates the counters for submissions and their outcomes
func (ot *OutcomeTracker) RecordTransition(ctx context.Context, t session.Transition) error {
	ot.mu.Lock()
	defer ot.mu.Unlock()

	switch t.To {
	case session.StateSubmitting:
		ot.submitted++
		ot.submittedAt[t.SessionID] = t.At
	case session.StateSucceeded, session.StateFailed:
		if t.To == session.StateSucceeded {
			ot.succeeded++
		} else {
			ot.failed++
		}
		if start, ok := ot.submittedAt[t.SessionID]; ok {
			ot.trainingTime += t.At.Sub(start)
			delete(ot.submittedAt, t.SessionID)
		}
	}
	return nil
}

// RecordDiagnostics counts the quality tier of a presented model
func (ot *OutcomeTracker) RecordDiagnostics(b diagnostics.Bucket) {
	ot.mu.Lock()
	defer ot.mu.Unlock()
	ot.buckets[b]++
}

// OutcomeSnapshot is a point-in-time copy of the tracker's counters
type OutcomeSnapshot struct {
	Submitted    int
	Succeeded    int
	Failed       int
	InFlight     int
	TrainingTime time.Duration
	Buckets      map[diagnostics.Bucket]int
}

// Snapshot returns the current counters
func (ot *OutcomeTracker) Snapshot() OutcomeSnapshot {
	ot.mu.RLock()
	defer ot.mu.RUnlock()

	buckets := make(map[diagnostics.Bucket]int, len(ot.buckets))
	for b, n := range ot.buckets {
		buckets[b] = n
	}
	return OutcomeSnapshot{
		Submitted:    ot.submitted,
		Succeeded:    ot.succeeded,
		Failed:       ot.failed,
		InFlight:     len(ot.submittedAt),
		TrainingTime: ot.trainingTime,
		Buckets:      buckets,
	}
}
