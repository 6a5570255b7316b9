package presence

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eldtechnologies/chat4office/internal/metrics"
)

// fakeConn records every event delivered to it.
type fakeConn struct {
	id string

	mu     sync.Mutex
	events []string
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(event string, payload any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *fakeConn) recorded() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.events...)
}

func (c *fakeConn) count(event string) int {
	n := 0
	for _, e := range c.recorded() {
		if e == event {
			n++
		}
	}
	return n
}

func TestRegistry_FirstConnectBroadcastsPresence(t *testing.T) {
	r := NewRegistry(zerolog.Nop())

	ana := &fakeConn{id: "c1"}
	r.Connect("u_ana", ana)
	assert.Equal(t, 1, ana.count(EventPresence))

	// A second handle for the same identity is not a presence transition.
	anaTab := &fakeConn{id: "c2"}
	r.Connect("u_ana", anaTab)
	assert.Equal(t, 1, ana.count(EventPresence))
	assert.Equal(t, 0, anaTab.count(EventPresence))
}

func TestRegistry_LastDisconnectBroadcastsPresence(t *testing.T) {
	r := NewRegistry(zerolog.Nop())

	ana := &fakeConn{id: "c1"}
	anaTab := &fakeConn{id: "c2"}
	bob := &fakeConn{id: "c3"}
	r.Connect("u_ana", ana)
	r.Connect("u_ana", anaTab)
	r.Connect("u_bob", bob)

	before := bob.count(EventPresence)

	// Dropping one of two handles is silent.
	r.Disconnect("u_ana", anaTab)
	assert.Equal(t, before, bob.count(EventPresence))
	assert.True(t, r.Online("u_ana"))

	// Dropping the last handle fires the transition.
	r.Disconnect("u_ana", ana)
	assert.Equal(t, before+1, bob.count(EventPresence))
	assert.False(t, r.Online("u_ana"))
}

func TestRegistry_DisconnectUnknownIsNoop(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	r.Disconnect("u_ghost", &fakeConn{id: "c1"})
	assert.False(t, r.Online("u_ghost"))
}

func TestRegistry_FanoutReachesEveryHandle(t *testing.T) {
	r := NewRegistry(zerolog.Nop())

	ana := &fakeConn{id: "c1"}
	anaTab := &fakeConn{id: "c2"}
	bob := &fakeConn{id: "c3"}
	r.Connect("u_ana", ana)
	r.Connect("u_ana", anaTab)
	r.Connect("u_bob", bob)

	r.Fanout("u_ana", "dm_new", nil)

	assert.Equal(t, 1, ana.count("dm_new"))
	assert.Equal(t, 1, anaTab.count("dm_new"))
	assert.Equal(t, 0, bob.count("dm_new"))

	// Offline target: nothing happens.
	r.Fanout("u_ghost", "dm_new", nil)
}

// A page reload opens the new connection while the old one is still
// tearing down. The fresh handle must stay registered: the identity
// reads online and keeps receiving fanouts.
func TestRegistry_ReconnectDuringLastDisconnect(t *testing.T) {
	r := NewRegistry(zerolog.Nop())

	for i := 0; i < 2000; i++ {
		old := &fakeConn{id: "c_old"}
		r.Connect("u_ana", old)

		fresh := &fakeConn{id: "c_fresh"}
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Disconnect("u_ana", old)
		}()
		go func() {
			defer wg.Done()
			r.Connect("u_ana", fresh)
		}()
		wg.Wait()

		require.True(t, r.Online("u_ana"), "iteration %d: live handle but identity reads offline", i)

		r.Fanout("u_ana", "dm_new", nil)
		require.Equal(t, 1, fresh.count("dm_new"), "iteration %d: fanout missed the fresh handle", i)

		r.Disconnect("u_ana", fresh)
	}
}

func TestRegistry_Snapshot(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	require.Empty(t, r.Snapshot())

	r.Connect("u_bob", &fakeConn{id: "c1"})
	r.Connect("u_ana", &fakeConn{id: "c2"})

	assert.Equal(t, []string{"u_ana", "u_bob"}, r.Snapshot())
}

func TestRegistry_Broadcast(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	ana := &fakeConn{id: "c1"}
	bob := &fakeConn{id: "c2"}
	r.Connect("u_ana", ana)
	r.Connect("u_bob", bob)

	r.Broadcast("reload", nil)
	assert.Equal(t, 1, ana.count("reload"))
	assert.Equal(t, 1, bob.count("reload"))
}

// Fanout and Broadcast count EventsPushed the same way: one increment
// per connection delivered.
func TestRegistry_EventsPushedCountsDeliveries(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	r.Connect("u_ana", &fakeConn{id: "c1"})
	r.Connect("u_ana", &fakeConn{id: "c2"})
	r.Connect("u_bob", &fakeConn{id: "c3"})

	before := testutil.ToFloat64(metrics.EventsPushed.WithLabelValues("dm_new"))
	r.Fanout("u_ana", "dm_new", nil)
	assert.Equal(t, before+2, testutil.ToFloat64(metrics.EventsPushed.WithLabelValues("dm_new")))

	before = testutil.ToFloat64(metrics.EventsPushed.WithLabelValues("announce"))
	r.Broadcast("announce", nil)
	assert.Equal(t, before+3, testutil.ToFloat64(metrics.EventsPushed.WithLabelValues("announce")))
}
