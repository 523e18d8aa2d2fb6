package websocket

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nortvale/matchcore/internal/eventbus"
	"github.com/nortvale/matchcore/internal/session"
)

// SymbolExists reports whether a symbol is configured in the registry;
// the registry type itself lives above this package to avoid a import
// cycle with the HTTP layer.
type SymbolExists func(symbol string) bool

// Handler upgrades HTTP connections to WebSocket and wires each one to
// its own Session and event bus subscription.
type Handler struct {
	hub          *Hub
	bus          *eventbus.Bus
	symbolExists SymbolExists
	path         string
	ratePerSec   int
	logger       *zap.Logger
}

// NewHandler builds a Handler serving path, publishing bus messages
// filtered per-session and bounding inbound control frames to
// ratePerSec per connection.
func NewHandler(hub *Hub, bus *eventbus.Bus, symbolExists SymbolExists, path string, ratePerSec int, logger *zap.Logger) *Handler {
	if path == "" {
		path = "/ws"
	}
	return &Handler{hub: hub, bus: bus, symbolExists: symbolExists, path: path, ratePerSec: ratePerSec, logger: logger}
}

// RegisterRoutes mounts the WebSocket upgrade endpoint.
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	router.GET(h.path, h.handleWebSocket)
}

func (h *Handler) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", zap.Error(err))
		return
	}

	clientID := uuid.New().String()
	sess := session.New(h.symbolExists, h.logger.With(zap.String("client_id", clientID)))
	client := NewClient(h.hub, conn, h.bus, sess, clientID, h.ratePerSec, h.logger)

	h.hub.Register(client)
	client.Start()

	h.logger.Info("websocket connection established", zap.String("client_id", clientID))
}
