package inflight

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuard_LatestWins(t *testing.T) {
	g := NewGuard()

	first := g.Begin("model-1")
	second := g.Begin("model-1")

	assert.False(t, g.Accept(first))
	assert.True(t, g.Accept(second))
	assert.False(t, g.Accept(second), "a ticket is accepted at most once")
}

func TestGuard_KeysAreIndependent(t *testing.T) {
	g := NewGuard()

	a := g.Begin("model-a")
	b := g.Begin("model-b")

	assert.True(t, g.Accept(b))
	assert.True(t, g.Accept(a))
}

func TestGuard_Forget(t *testing.T) {
	g := NewGuard()

	ticket := g.Begin("view")
	g.Forget("view")

	assert.False(t, g.Accept(ticket))
}

func TestGuard_ReleaseKeepsNewerTicket(t *testing.T) {
	g := NewGuard()

	old := g.Begin("view-1")
	newer := g.Begin("view-1")
	g.Release(old)
	assert.True(t, g.Accept(newer))

	lone := g.Begin("view-2")
	g.Release(lone)
	assert.False(t, g.Accept(lone), "a released ticket is retired")
}

func TestGuard_ConcurrentBegin(t *testing.T) {
	g := NewGuard()

	var wg sync.WaitGroup
	tickets := make([]Ticket, 50)
	for i := range tickets {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tickets[i] = g.Begin("shared")
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, ticket := range tickets {
		if g.Accept(ticket) {
			accepted++
		}
	}
	assert.Equal(t, 1, accepted)
}
