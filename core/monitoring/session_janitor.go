package monitoring

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// SessionStore is the part of the session registry the janitor sweeps
type SessionStore interface {
	Expire(cutoff time.Time) []string
}

// SessionJanitor drops console sessions that have been idle for longer
// than the configured TTL
type SessionJanitor struct {
	sessions SessionStore
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
}

// NewSessionJanitor creates a janitor that sweeps every interval
func NewSessionJanitor(sessions SessionStore, ttl, interval time.Duration) *SessionJanitor {
	return &SessionJanitor{
		sessions: sessions,
		ttl:      ttl,
		interval: interval,
		now:      time.Now,
	}
}

// Start runs the sweep loop until ctx is cancelled
func (sj *SessionJanitor) Start(ctx context.Context) {
	ticker := time.NewTicker(sj.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sj.Sweep()
		}
	}
}

// Sweep expires idle sessions once and returns how many were removed
func (sj *SessionJanitor) Sweep() int {
	expired := sj.sessions.Expire(sj.now().Add(-sj.ttl))
	for _, id := range expired {
		log.Info().Str("session_id", id).Dur("ttl", sj.ttl).Msg("Expired idle session")
	}
	return len(expired)
}
