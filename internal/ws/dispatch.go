package ws

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/chat4office/internal/chat"
	"github.com/eldtechnologies/chat4office/internal/models"
)

// Inbound command names (connection -> server). This is a closed set:
// anything else is answered with an error frame.
const (
	CmdDMSend        = "dm_send"
	CmdDMMarkRead    = "dm_mark_read"
	CmdGroupSend     = "group_send"
	CmdGroupMarkSeen = "group_mark_seen"
)

// inboundFrame defers payload decoding until the command is known.
type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type dmSendCmd struct {
	ToID        string              `json:"toId"`
	Text        string              `json:"text"`
	Attachments []models.Attachment `json:"attachments"`
}

type dmMarkReadCmd struct {
	OtherID string `json:"otherId"`
}

type groupSendCmd struct {
	GroupID     string              `json:"groupId"`
	Text        string              `json:"text"`
	Attachments []models.Attachment `json:"attachments"`
}

type groupMarkSeenCmd struct {
	GroupID string `json:"groupId"`
}

// errorPayload is sent back on the issuing connection when a command is
// rejected.
type errorPayload struct {
	Event string `json:"event"`
	Error string `json:"error"`
}

// Dispatcher routes inbound command frames to the chat core.
type Dispatcher struct {
	router   *chat.Router
	receipts *chat.Receipts
	logger   zerolog.Logger
}

// NewDispatcher creates a command dispatcher.
func NewDispatcher(router *chat.Router, receipts *chat.Receipts, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		router:   router,
		receipts: receipts,
		logger:   logger.With().Str("component", "dispatch").Logger(),
	}
}

// Dispatch executes one command on behalf of the connection's identity.
// Rejections are reported back on the same connection only; they never
// terminate it.
func (d *Dispatcher) Dispatch(userID string, c *Conn, in inboundFrame) {
	var err error
	switch in.Event {
	case CmdDMSend:
		var cmd dmSendCmd
		if err = json.Unmarshal(in.Data, &cmd); err == nil {
			_, err = d.router.SendDM(userID, cmd.ToID, cmd.Text, cmd.Attachments)
		}
	case CmdDMMarkRead:
		var cmd dmMarkReadCmd
		if err = json.Unmarshal(in.Data, &cmd); err == nil {
			err = d.receipts.MarkDMRead(userID, cmd.OtherID)
		}
	case CmdGroupSend:
		var cmd groupSendCmd
		if err = json.Unmarshal(in.Data, &cmd); err == nil {
			_, err = d.router.SendGroup(userID, cmd.GroupID, cmd.Text, cmd.Attachments)
		}
	case CmdGroupMarkSeen:
		var cmd groupMarkSeenCmd
		if err = json.Unmarshal(in.Data, &cmd); err == nil {
			err = d.receipts.MarkGroupSeen(userID, cmd.GroupID)
		}
	default:
		c.Send("error", errorPayload{Event: in.Event, Error: "unknown_command"})
		return
	}

	if err != nil {
		d.logger.Debug().
			Str("user_id", userID).
			Str("event", in.Event).
			Err(err).
			Msg("command rejected")
		c.Send("error", errorPayload{Event: in.Event, Error: errorCode(err)})
	}
}

// errorCode maps a domain error to the wire code clients branch on.
func errorCode(err error) string {
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		return "empty_message"
	case errors.Is(err, chat.ErrForbidden):
		return "forbidden"
	case errors.Is(err, chat.ErrNotFound):
		return "not_found"
	case errors.Is(err, chat.ErrValidation):
		return "validation"
	default:
		return "internal"
	}
}
