package feed

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pulsehq/analytics-backend/internal/auth"
	"github.com/pulsehq/analytics-backend/internal/shared"
)

const wsWriteTimeout = 10 * time.Second

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Handler struct {
	hub    *Hub
	logger *slog.Logger
}

func NewHandler(hub *Hub, logger *slog.Logger) *Handler {
	return &Handler{
		hub:    hub,
		logger: logger.With("handler", "feed"),
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/live", h.HandleLive)
}

// HandleLive attaches the caller to their tenant's live metrics feed.
// @Summary      Subscribe to live metrics
// @Description  Streams real-time metric snapshots over SSE, or WebSocket when the client requests an upgrade
// @Tags         analytics
// @Produce      text/event-stream
// @Success      200 {object} dto.LiveMetricsResponse
// @Failure      401 {object} shared.APIError
// @Security     BearerAuth
// @Router       /analytics/live [get]
func (h *Handler) HandleLive(c echo.Context) error {
	tenantID, err := auth.RequireTenant(c)
	if err != nil {
		return err
	}

	if websocket.IsWebSocketUpgrade(c.Request()) {
		return h.handleWebSocket(c, tenantID)
	}
	if strings.Contains(c.Request().Header.Get("Accept"), "text/event-stream") {
		return h.handleSSE(c, tenantID)
	}
	return shared.BadRequest("unsupported_transport", "request SSE via Accept: text/event-stream or a websocket upgrade")
}

func (h *Handler) handleSSE(c echo.Context, tenantID string) error {
	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)

	conn, err := NewSSEConn(c.Response())
	if err != nil {
		h.logger.Error("failed to create SSE connection", "error", err)
		return shared.InternalError("sse_failed", "failed to create SSE connection")
	}

	sub, err := h.hub.Subscribe(tenantID, conn.Push)
	if err != nil {
		return shared.Unavailable("feed_closed", "live feed is shutting down")
	}
	defer sub.Unsubscribe()

	h.logger.Info("live feed connected (SSE)", "tenant_id", tenantID, "subscription_id", sub.ID())
	_ = conn.Run(c.Request().Context())
	h.logger.Info("live feed disconnected (SSE)", "tenant_id", tenantID, "subscription_id", sub.ID())
	return nil
}

func (h *Handler) handleWebSocket(c echo.Context, tenantID string) error {
	ws, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return err
	}
	defer func() { _ = ws.Close() }()

	send := make(chan RealTimeMetrics, 16)
	sub, err := h.hub.Subscribe(tenantID, func(update RealTimeMetrics) {
		select {
		case send <- update:
		default:
		}
	})
	if err != nil {
		return nil
	}
	defer sub.Unsubscribe()

	h.logger.Info("live feed connected (WebSocket)", "tenant_id", tenantID, "subscription_id", sub.ID())

	// Reader only detects client close; the feed is push-only.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case update := <-send:
			_ = ws.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := ws.WriteJSON(update); err != nil {
				h.logger.Info("live feed disconnected (WebSocket)", "tenant_id", tenantID, "subscription_id", sub.ID())
				return nil
			}
		case <-closed:
			return nil
		case <-c.Request().Context().Done():
			return nil
		}
	}
}
