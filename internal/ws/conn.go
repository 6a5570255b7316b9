// Package ws is the websocket transport: it upgrades authenticated HTTP
// requests into live connection handles and routes inbound commands to
// the chat core.
package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 64
)

// frame is the wire format in both directions.
type frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Conn is one live websocket connection of one identity. It implements
// presence.Conn. Sends are enqueued onto a buffered channel drained by a
// single writer goroutine, so per-handle delivery preserves submission
// order; a full buffer drops the connection rather than blocking the
// caller.
type Conn struct {
	id     string
	userID string
	ws     *websocket.Conn
	send   chan frame
	done   chan struct{}
	once   sync.Once
	logger zerolog.Logger
}

func newConn(id, userID string, ws *websocket.Conn, logger zerolog.Logger) *Conn {
	return &Conn{
		id:     id,
		userID: userID,
		ws:     ws,
		send:   make(chan frame, sendBuffer),
		done:   make(chan struct{}),
		logger: logger.With().Str("conn_id", id).Str("user_id", userID).Logger(),
	}
}

// ID returns the connection handle id.
func (c *Conn) ID() string {
	return c.id
}

// Send enqueues an event for delivery. Never blocks: if the connection
// cannot keep up, it is closed instead.
func (c *Conn) Send(event string, payload any) {
	select {
	case c.send <- frame{Event: event, Data: payload}:
	case <-c.done:
	default:
		c.logger.Warn().Str("event", event).Msg("send buffer full, dropping connection")
		c.close()
	}
}

func (c *Conn) close() {
	c.once.Do(func() {
		close(c.done)
		c.ws.Close()
	})
}

// writePump drains the send queue onto the wire and keeps the
// connection alive with pings.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case f := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(f); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// readPump reads inbound command frames and hands them to the
// dispatcher until the connection drops. onClose runs exactly once
// before returning.
func (c *Conn) readPump(d *Dispatcher, onClose func()) {
	defer func() {
		c.close()
		onClose()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var in inboundFrame
		if err := c.ws.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug().Err(err).Msg("read failed")
			}
			return
		}
		d.Dispatch(c.userID, c, in)
	}
}
