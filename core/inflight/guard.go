// Package inflight correlates asynchronous responses with the request that
// produced them so that results of superseded requests can be discarded.
package inflight

import "sync"

// Ticket identifies one request issued under a key
type Ticket struct {
	Key string
	Seq uint64
}

// Guard tracks the latest request per key. A response is only accepted if
// its ticket is still the latest one for the key.
type Guard struct {
	mu     sync.Mutex
	seq    uint64
	latest map[string]uint64
}

// NewGuard creates an empty guard
func NewGuard() *Guard {
	return &Guard{latest: make(map[string]uint64)}
}

// Begin issues a ticket for a new request, superseding any earlier request
// under the same key.
func (g *Guard) Begin(key string) Ticket {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.seq++
	g.latest[key] = g.seq
	return Ticket{Key: key, Seq: g.seq}
}

// Accept reports whether the ticket is still current. An accepted ticket is
// retired, so a response is accepted at most once.
func (g *Guard) Accept(t Ticket) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.latest[t.Key] != t.Seq {
		return false
	}
	delete(g.latest, t.Key)
	return true
}

// Release retires the ticket if it is still current. Used when a request
// ends without a response worth accepting.
func (g *Guard) Release(t Ticket) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.latest[t.Key] == t.Seq {
		delete(g.latest, t.Key)
	}
}

// Forget drops the pending request for key. A response that arrives after
// teardown is then discarded.
func (g *Guard) Forget(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.latest, key)
}
