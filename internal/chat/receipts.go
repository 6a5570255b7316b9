package chat

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/chat4office/internal/presence"
	"github.com/eldtechnologies/chat4office/internal/store"
)

// Receipts tracks DM read state and group seen state. Both operations
// are idempotent: a repeat call with nothing newly unread mutates
// nothing, persists nothing and emits nothing.
type Receipts struct {
	store    *store.FileStore
	registry *presence.Registry
	logger   zerolog.Logger
	now      func() int64
}

// NewReceipts creates a read/seen tracker.
func NewReceipts(st *store.FileStore, reg *presence.Registry, logger zerolog.Logger) *Receipts {
	return &Receipts{
		store:    st,
		registry: reg,
		logger:   logger.With().Str("component", "receipts").Logger(),
		now:      func() int64 { return time.Now().UnixMilli() },
	}
}

// MarkDMRead stamps every unread message from otherID to readerID with
// the current time. ReadAt is set-once: already-read messages are left
// untouched. On a non-empty update the original sender's connections get
// a dm_read event and the reader's own connections are told their unread
// counts changed.
func (t *Receipts) MarkDMRead(readerID, otherID string) error {
	if otherID == "" {
		return nil
	}
	now := t.now()
	changed := false

	err := t.store.Apply(func(doc *store.Document) error {
		for i := range doc.Messages {
			m := &doc.Messages[i]
			if m.FromID == otherID && m.ToID == readerID && m.ReadAt == nil {
				at := now
				m.ReadAt = &at
				changed = true
			}
		}
		if !changed {
			return store.ErrNoChange
		}
		doc.AddActivity("dm_read", readerID, map[string]any{"otherId": otherID})
		return nil
	})
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	t.registry.Fanout(otherID, EventDMRead, DMReadPayload{
		ReaderID: readerID,
		OtherID:  otherID,
		ReadAt:   now,
	})
	t.registry.Fanout(readerID, EventDMCounts, struct{}{})
	return nil
}

// MarkGroupSeen stamps the reader's first-seen time on every message of
// the group that they have not seen yet. Existing seen entries are never
// overwritten. On any update a group_seen event is broadcast to the
// whole group's live connections, not only to message authors. Requires
// current membership.
func (t *Receipts) MarkGroupSeen(readerID, groupID string) error {
	if groupID == "" {
		return nil
	}
	now := t.now()
	changed := false
	var members []string

	err := t.store.Apply(func(doc *store.Document) error {
		g := doc.GroupByID(groupID)
		if g == nil {
			return ErrNotFound
		}
		if !g.HasMember(readerID) {
			return ErrForbidden
		}
		members = append([]string{}, g.Members...)
		for i := range doc.GroupMessages {
			gm := &doc.GroupMessages[i]
			if gm.GroupID != groupID {
				continue
			}
			if _, seen := gm.SeenBy[readerID]; !seen {
				gm.SeenBy[readerID] = now
				changed = true
			}
		}
		if !changed {
			return store.ErrNoChange
		}
		doc.AddActivity("group_seen", readerID, map[string]any{"groupId": groupID})
		return nil
	})
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	payload := GroupSeenPayload{GroupID: groupID, UserID: readerID, At: now}
	for _, memberID := range members {
		t.registry.Fanout(memberID, EventGroupSeen, payload)
	}
	return nil
}
