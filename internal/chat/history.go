package chat

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/chat4office/internal/models"
	"github.com/eldtechnologies/chat4office/internal/store"
)

// History window sizes; older messages stay in the document but are not
// returned to clients.
const (
	dmWindow    = 500
	groupWindow = 600
)

// Conversations provides the per-viewer visible windows over DM and
// group history. Clearing a conversation only raises that viewer's
// cutoff timestamp; the other parties keep full visibility and nothing
// is deleted.
type Conversations struct {
	store  *store.FileStore
	logger zerolog.Logger
	now    func() int64
}

// NewConversations creates the conversation window service.
func NewConversations(st *store.FileStore, logger zerolog.Logger) *Conversations {
	return &Conversations{
		store:  st,
		logger: logger.With().Str("component", "conversations").Logger(),
		now:    func() int64 { return time.Now().UnixMilli() },
	}
}

// MessagesWith returns the viewer's visible DM history with the other
// user, oldest first, capped to the most recent dmWindow messages, along
// with the viewer's clear cutoff.
func (c *Conversations) MessagesWith(viewerID, otherID string) ([]models.Message, int64) {
	var msgs []models.Message
	var clearedAt int64
	c.store.View(func(doc *store.Document) {
		key := store.DMKey(viewerID, otherID)
		for i := range doc.DMConversations {
			if doc.DMConversations[i].ID == key {
				clearedAt = doc.DMConversations[i].ClearedAtBy[viewerID]
				break
			}
		}
		for _, m := range doc.Messages {
			between := (m.FromID == viewerID && m.ToID == otherID) ||
				(m.FromID == otherID && m.ToID == viewerID)
			if between && m.CreatedAt > clearedAt {
				msgs = append(msgs, m)
			}
		}
	})
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].CreatedAt < msgs[j].CreatedAt })
	if len(msgs) > dmWindow {
		msgs = msgs[len(msgs)-dmWindow:]
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return msgs, clearedAt
}

// ClearDM raises the viewer's cutoff for the conversation with the other
// user to now. The conversation record is created if it does not exist.
func (c *Conversations) ClearDM(viewerID, otherID string) error {
	now := c.now()
	return c.store.Apply(func(doc *store.Document) error {
		conv := doc.DMConversation(viewerID, otherID)
		conv.ClearedAtBy[viewerID] = now
		doc.AddActivity("dm_cleared", viewerID, map[string]any{"otherId": otherID})
		return nil
	})
}

// UnreadCounts returns, per sender, how many messages to the viewer are
// still unread.
func (c *Conversations) UnreadCounts(viewerID string) map[string]int {
	counts := map[string]int{}
	c.store.View(func(doc *store.Document) {
		for _, m := range doc.Messages {
			if m.ToID == viewerID && m.ReadAt == nil {
				counts[m.FromID]++
			}
		}
	})
	return counts
}

// GroupMessages returns the viewer's visible window of a group's
// history, oldest first, capped to groupWindow. Requires current
// membership.
func (c *Conversations) GroupMessages(viewerID, groupID string) ([]models.GroupMessage, int64, error) {
	var msgs []models.GroupMessage
	var clearedAt int64
	var accessErr error
	c.store.View(func(doc *store.Document) {
		g := doc.GroupByID(groupID)
		if g == nil || !g.HasMember(viewerID) {
			accessErr = ErrForbidden
			return
		}
		for i := range doc.GroupConversations {
			if doc.GroupConversations[i].ID == groupID {
				clearedAt = doc.GroupConversations[i].ClearedAtBy[viewerID]
				break
			}
		}
		for _, gm := range doc.GroupMessages {
			if gm.GroupID == groupID && gm.CreatedAt > clearedAt {
				msgs = append(msgs, gm)
			}
		}
	})
	if accessErr != nil {
		return nil, 0, accessErr
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].CreatedAt < msgs[j].CreatedAt })
	if len(msgs) > groupWindow {
		msgs = msgs[len(msgs)-groupWindow:]
	}
	if msgs == nil {
		msgs = []models.GroupMessage{}
	}
	return msgs, clearedAt, nil
}

// ClearGroup raises the viewer's cutoff for the group to now. Requires
// current membership.
func (c *Conversations) ClearGroup(viewerID, groupID string) error {
	now := c.now()
	return c.store.Apply(func(doc *store.Document) error {
		g := doc.GroupByID(groupID)
		if g == nil || !g.HasMember(viewerID) {
			return ErrForbidden
		}
		conv := doc.GroupConversation(groupID)
		conv.ClearedAtBy[viewerID] = now
		doc.AddActivity("group_cleared", viewerID, map[string]any{"groupId": groupID})
		return nil
	})
}
