package ws

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/eldtechnologies/chat4office/internal/api/middleware"
	"github.com/eldtechnologies/chat4office/internal/presence"
)

// Gateway upgrades authenticated requests to websocket connections and
// registers them with the presence registry. A request with no bound
// identity is terminated before the upgrade.
type Gateway struct {
	registry   *presence.Registry
	dispatcher *Dispatcher
	logger     zerolog.Logger
	upgrader   websocket.Upgrader
}

// NewGateway creates the websocket gateway.
func NewGateway(reg *presence.Registry, d *Dispatcher, logger zerolog.Logger) *Gateway {
	return &Gateway{
		registry:   reg,
		dispatcher: d,
		logger:     logger.With().Str("component", "ws").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Session cookie auth already gates this endpoint; the office
			// deployment is same-host, so origins are not restricted.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handle upgrades the request. Must be mounted behind RequireAuth.
func (g *Gateway) Handle(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		http.Error(w, `{"error":"auth_required"}`, http.StatusUnauthorized)
		return
	}

	sock, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn().Err(err).Msg("upgrade failed")
		return
	}

	conn := newConn(uuid.NewString(), user.ID, sock, g.logger)
	g.registry.Connect(user.ID, conn)

	go conn.writePump()
	go conn.readPump(g.dispatcher, func() {
		g.registry.Disconnect(user.ID, conn)
	})
}
