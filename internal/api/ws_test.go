package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eldtechnologies/chat4office/internal/chat"
	"github.com/eldtechnologies/chat4office/internal/models"
	"github.com/eldtechnologies/chat4office/internal/presence"
	"github.com/eldtechnologies/chat4office/internal/store"
)

type wireFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (ts *testServer) wsURL() string {
	return "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/ws"
}

// dialWS upgrades /ws with the client's session cookie, through the full
// middleware chain.
func dialWS(t *testing.T, ts *testServer, c *http.Client) *websocket.Conn {
	t.Helper()
	base, err := url.Parse(ts.srv.URL)
	require.NoError(t, err)
	header := http.Header{}
	for _, ck := range c.Jar.Cookies(base) {
		header.Add("Cookie", ck.String())
	}
	conn, resp, err := websocket.DefaultDialer.Dial(ts.wsURL(), header)
	require.NoError(t, err, "websocket upgrade failed")
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

// waitForEvent reads frames until the named event arrives, skipping
// unrelated pushes (presence and the like).
func waitForEvent(t *testing.T, conn *websocket.Conn, event string) wireFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var f wireFrame
		require.NoError(t, conn.ReadJSON(&f), "waiting for %q", event)
		if f.Event == event {
			return f
		}
	}
}

func TestWebSocket_RequiresSession(t *testing.T) {
	ts := newTestServer(t)

	conn, resp, err := websocket.DefaultDialer.Dial(ts.wsURL(), nil)
	require.Error(t, err)
	require.Nil(t, conn)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebSocket_DMDeliveryOverWire(t *testing.T) {
	ts := newTestServer(t)

	ana := ts.client(t)
	login(t, ts, ana, "ana", "ana-pass")
	admin := ts.client(t)
	login(t, ts, admin, "admin", "admin-pass")

	anaSock := dialWS(t, ts, ana)
	adminSock := dialWS(t, ts, admin)

	// The admin's own connect broadcasts presence; seeing it on the
	// admin socket proves both parties are registered before the send.
	frame := waitForEvent(t, adminSock, presence.EventPresence)
	var pres presence.PresencePayload
	require.NoError(t, json.Unmarshal(frame.Data, &pres))
	assert.Contains(t, pres.Online, "u_ana")
	assert.Contains(t, pres.Online, models.DefaultAdminID)

	require.NoError(t, anaSock.WriteJSON(map[string]any{
		"event": "dm_send",
		"data":  map[string]any{"toId": models.DefaultAdminID, "text": "over the wire"},
	}))

	frame = waitForEvent(t, adminSock, chat.EventDMNew)
	var msg models.Message
	require.NoError(t, json.Unmarshal(frame.Data, &msg))
	assert.Equal(t, "u_ana", msg.FromID)
	assert.Equal(t, models.DefaultAdminID, msg.ToID)
	assert.Equal(t, "over the wire", msg.Text)

	// The sender's own handles get the echo.
	frame = waitForEvent(t, anaSock, chat.EventDMNew)
	require.NoError(t, json.Unmarshal(frame.Data, &msg))
	assert.Equal(t, "over the wire", msg.Text)

	// The recipient marks the conversation read; the original sender is
	// notified and the reader's own counts refresh.
	require.NoError(t, adminSock.WriteJSON(map[string]any{
		"event": "dm_mark_read",
		"data":  map[string]any{"otherId": "u_ana"},
	}))

	frame = waitForEvent(t, anaSock, chat.EventDMRead)
	var read chat.DMReadPayload
	require.NoError(t, json.Unmarshal(frame.Data, &read))
	assert.Equal(t, models.DefaultAdminID, read.ReaderID)
	waitForEvent(t, adminSock, chat.EventDMCounts)

	// And the message was persisted, not just pushed.
	ts.store.View(func(doc *store.Document) {
		require.Len(t, doc.Messages, 1)
		assert.Equal(t, "over the wire", doc.Messages[0].Text)
	})
}

func TestWebSocket_EmptySendRejectedOverWire(t *testing.T) {
	ts := newTestServer(t)

	ana := ts.client(t)
	login(t, ts, ana, "ana", "ana-pass")
	anaSock := dialWS(t, ts, ana)

	require.NoError(t, anaSock.WriteJSON(map[string]any{
		"event": "dm_send",
		"data":  map[string]any{"toId": models.DefaultAdminID, "text": "   "},
	}))

	frame := waitForEvent(t, anaSock, "error")
	var errPayload struct {
		Event string `json:"event"`
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(frame.Data, &errPayload))
	assert.Equal(t, "dm_send", errPayload.Event)
	assert.Equal(t, "empty_message", errPayload.Error)
}
