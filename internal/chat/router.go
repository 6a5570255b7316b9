// Package chat implements the realtime collaboration core: message
// delivery, read receipts, conversation windows, group and note
// management. All persisted mutation goes through the document store's
// serialized apply path; all live notification goes through the
// presence registry.
package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/chat4office/internal/metrics"
	"github.com/eldtechnologies/chat4office/internal/models"
	"github.com/eldtechnologies/chat4office/internal/presence"
	"github.com/eldtechnologies/chat4office/internal/store"
)

// Router validates and appends messages, then fans them out to live
// connections. For any conversation, messages are persisted in call
// order and every live party observes them in that order: the persist
// completes before the fanout starts.
type Router struct {
	store    *store.FileStore
	registry *presence.Registry
	logger   zerolog.Logger
	now      func() int64
}

// NewRouter creates a delivery router.
func NewRouter(st *store.FileStore, reg *presence.Registry, logger zerolog.Logger) *Router {
	return &Router{
		store:    st,
		registry: reg,
		logger:   logger.With().Str("component", "delivery").Logger(),
		now:      func() int64 { return time.Now().UnixMilli() },
	}
}

// SendDM appends a direct message and pushes it to both the sender's and
// the recipient's live connections, so the sender's other devices see
// their own outgoing message too.
func (r *Router) SendDM(senderID, toID, text string, attachments []models.Attachment) (*models.Message, error) {
	if toID == "" {
		return nil, fmt.Errorf("%w: recipient required", ErrValidation)
	}
	text = strings.TrimSpace(text)
	if text == "" && len(attachments) == 0 {
		return nil, ErrEmptyMessage
	}
	if attachments == nil {
		attachments = []models.Attachment{}
	}

	msg := models.Message{
		ID:          models.NewID("m"),
		FromID:      senderID,
		ToID:        toID,
		Text:        text,
		Attachments: attachments,
		CreatedAt:   r.now(),
	}

	err := r.store.Apply(func(doc *store.Document) error {
		doc.Messages = append(doc.Messages, msg)
		doc.DMConversation(senderID, toID)
		doc.AddActivity("dm_sent", senderID, map[string]any{
			"toId":           toID,
			"messageId":      msg.ID,
			"hasAttachments": len(attachments) > 0,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.registry.Fanout(senderID, EventDMNew, msg)
	r.registry.Fanout(toID, EventDMNew, msg)
	metrics.DMsSent.Inc()

	r.logger.Debug().
		Str("from", senderID).
		Str("to", toID).
		Str("message_id", msg.ID).
		Msg("dm delivered")
	return &msg, nil
}

// SendGroup appends a group message with the sender pre-seeded in its
// seen map, then pushes it to every member's live connections. Offline
// members pick it up on their next fetch. Senders who are not currently
// members are rejected without appending anything.
func (r *Router) SendGroup(senderID, groupID, text string, attachments []models.Attachment) (*models.GroupMessage, error) {
	if groupID == "" {
		return nil, fmt.Errorf("%w: group required", ErrValidation)
	}
	text = strings.TrimSpace(text)
	if text == "" && len(attachments) == 0 {
		return nil, ErrEmptyMessage
	}
	if attachments == nil {
		attachments = []models.Attachment{}
	}

	createdAt := r.now()
	gm := models.GroupMessage{
		ID:          models.NewID("gm"),
		GroupID:     groupID,
		FromID:      senderID,
		Text:        text,
		Attachments: attachments,
		CreatedAt:   createdAt,
		SeenBy:      map[string]int64{senderID: createdAt},
	}

	var members []string
	err := r.store.Apply(func(doc *store.Document) error {
		g := doc.GroupByID(groupID)
		if g == nil {
			return ErrNotFound
		}
		if !g.HasMember(senderID) {
			return ErrForbidden
		}
		members = append([]string{}, g.Members...)
		doc.GroupMessages = append(doc.GroupMessages, gm)
		doc.AddActivity("group_message_sent", senderID, map[string]any{
			"groupId":        groupID,
			"messageId":      gm.ID,
			"hasAttachments": len(attachments) > 0,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, memberID := range members {
		r.registry.Fanout(memberID, EventGroupNew, gm)
	}
	metrics.GroupMessagesSent.Inc()

	r.logger.Debug().
		Str("from", senderID).
		Str("group_id", groupID).
		Str("message_id", gm.ID).
		Msg("group message delivered")
	return &gm, nil
}
