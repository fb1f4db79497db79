package match

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/buts00/algo-rumble-service/internal/auth"
	httperrors "github.com/buts00/algo-rumble-service/pkg/http/errors"
	"github.com/buts00/algo-rumble-service/pkg/http/ws"
)

var wsConnections = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "algorumble_ws_connections",
	Help: "Live WebSocket sinks registered in the presence hub.",
})

// WSHandler upgrades match notification connections and registers them as
// sinks in the presence hub.
type WSHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// NewWSHandler creates the WebSocket endpoint handler.
func NewWSHandler(hub *ws.Hub, logger zerolog.Logger) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Cross-origin policy is enforced upstream of the core.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// HandleWebSocket serves GET /match/ws/{user_id}. The authenticated token
// must belong to the user named in the path.
func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	userID, err := uuid.Parse(r.PathValue("user_id"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidArgument, "Invalid user ID format")
		return
	}
	if userID != principal.UserID {
		httperrors.RespondForbidden(w, httperrors.ErrCodeForbidden, "Token does not match requested user")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("websocket upgrade failed")
		return
	}

	sink := ws.NewConnection(conn, h.logger)
	h.hub.Register(userID, sink)
	wsConnections.Inc()

	go sink.WritePump()
	sink.ReadPump()

	h.hub.Unregister(userID, sink)
	wsConnections.Dec()
}
