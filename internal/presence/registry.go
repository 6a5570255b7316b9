// Package presence tracks which identities currently hold live
// connections and delivers push events to them.
package presence

import (
	"sort"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"

	"github.com/eldtechnologies/chat4office/internal/metrics"
)

// Conn is a live connection handle. Send must not block: transports are
// expected to buffer writes and drop the connection when the buffer
// overflows. Per-handle delivery preserves submission order.
type Conn interface {
	ID() string
	Send(event string, payload any)
}

// Event names pushed by the registry itself.
const EventPresence = "presence"

// PresencePayload is the payload of a presence event.
type PresencePayload struct {
	Online []string `json:"online"`
}

// connSet holds every live handle of one identity.
type connSet struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

// Registry maps each identity to its set of live connections. An
// identity may hold many concurrent connections (devices, tabs); the
// online/offline transition fires only on the first connect and the
// last disconnect.
type Registry struct {
	logger zerolog.Logger
	sets   *xsync.MapOf[string, *connSet]
}

// NewRegistry creates an empty registry.
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		logger: logger.With().Str("component", "presence").Logger(),
		sets:   xsync.NewMapOf[string, *connSet](),
	}
}

// Connect registers a connection handle for the identity. If this is the
// identity's first live handle, a presence event with the updated online
// set is broadcast to every connection.
//
// Both Connect and Disconnect mutate the handle set inside sets.Compute,
// which serializes per key. A reconnect racing the last disconnect of the
// same identity therefore either lands in the surviving set or creates a
// fresh one; it can never insert into a set that is about to be unmapped.
func (r *Registry) Connect(userID string, conn Conn) {
	wasEmpty := false
	r.sets.Compute(userID, func(set *connSet, loaded bool) (*connSet, bool) {
		if !loaded {
			set = &connSet{conns: map[string]Conn{}}
		}
		set.mu.Lock()
		wasEmpty = len(set.conns) == 0
		set.conns[conn.ID()] = conn
		set.mu.Unlock()
		return set, false
	})

	metrics.ConnectionsOpen.Inc()
	r.logger.Debug().Str("user_id", userID).Str("conn_id", conn.ID()).Msg("connected")

	if wasEmpty {
		metrics.UsersOnline.Inc()
		r.broadcastPresence()
	}
}

// Disconnect removes a connection handle. If the identity's handle set
// becomes empty, the mapping is removed in the same Compute step and a
// presence event is broadcast.
func (r *Registry) Disconnect(userID string, conn Conn) {
	had := false
	nowEmpty := false
	r.sets.Compute(userID, func(set *connSet, loaded bool) (*connSet, bool) {
		if !loaded {
			return nil, true
		}
		set.mu.Lock()
		_, had = set.conns[conn.ID()]
		delete(set.conns, conn.ID())
		empty := len(set.conns) == 0
		set.mu.Unlock()
		nowEmpty = had && empty
		return set, empty
	})
	if !had {
		return
	}

	metrics.ConnectionsOpen.Dec()
	r.logger.Debug().Str("user_id", userID).Str("conn_id", conn.ID()).Msg("disconnected")

	if nowEmpty {
		metrics.UsersOnline.Dec()
		r.broadcastPresence()
	}
}

// Fanout delivers the payload to every live connection of the identity.
// Delivery is at-least-once per handle with no ordering guarantee across
// handles. Offline identities are a no-op.
func (r *Registry) Fanout(userID, event string, payload any) {
	set, ok := r.sets.Load(userID)
	if !ok {
		return
	}
	set.mu.RLock()
	conns := make([]Conn, 0, len(set.conns))
	for _, c := range set.conns {
		conns = append(conns, c)
	}
	set.mu.RUnlock()

	for _, c := range conns {
		c.Send(event, payload)
	}
	if len(conns) > 0 {
		metrics.EventsPushed.WithLabelValues(event).Add(float64(len(conns)))
	}
}

// Broadcast delivers the payload to every live connection of every
// identity. EventsPushed counts delivered connections, same as Fanout.
func (r *Registry) Broadcast(event string, payload any) {
	delivered := 0
	r.sets.Range(func(userID string, set *connSet) bool {
		set.mu.RLock()
		for _, c := range set.conns {
			c.Send(event, payload)
			delivered++
		}
		set.mu.RUnlock()
		return true
	})
	if delivered > 0 {
		metrics.EventsPushed.WithLabelValues(event).Add(float64(delivered))
	}
}

// Snapshot returns the currently online identity set, sorted. It is an
// eventually-consistent view with no transactional relationship to
// concurrent connects and disconnects.
func (r *Registry) Snapshot() []string {
	online := []string{}
	r.sets.Range(func(userID string, set *connSet) bool {
		set.mu.RLock()
		if len(set.conns) > 0 {
			online = append(online, userID)
		}
		set.mu.RUnlock()
		return true
	})
	sort.Strings(online)
	return online
}

// Online reports whether the identity holds at least one live handle.
func (r *Registry) Online(userID string) bool {
	set, ok := r.sets.Load(userID)
	if !ok {
		return false
	}
	set.mu.RLock()
	defer set.mu.RUnlock()
	return len(set.conns) > 0
}

func (r *Registry) broadcastPresence() {
	r.Broadcast(EventPresence, PresencePayload{Online: r.Snapshot()})
}
