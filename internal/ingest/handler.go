package ingest

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pulsehq/analytics-backend/internal/auth"
	"github.com/pulsehq/analytics-backend/internal/dto"
	"github.com/pulsehq/analytics-backend/internal/event"
	"github.com/pulsehq/analytics-backend/internal/live"
	"github.com/pulsehq/analytics-backend/internal/shared"
)

// Handler is the write path. Every accepted event lands in the historical
// store and bumps the live Redis counters; the live write is best-effort and
// never fails the request once the row is persisted.
type Handler struct {
	events *event.Store
	live   *live.Store
	logger *slog.Logger
}

func NewHandler(events *event.Store, liveStore *live.Store, logger *slog.Logger) *Handler {
	return &Handler{
		events: events,
		live:   liveStore,
		logger: logger.With("handler", "ingest"),
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/conversations", h.StartConversation)
	g.PATCH("/conversations/:id", h.UpdateConversation)
	g.POST("/messages", h.RecordMessage)
}

// StartConversation opens a conversation for the tenant.
// @Summary      Start a conversation
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        request body dto.StartConversationRequest true "Conversation details"
// @Success      201 {object} dto.ConversationResponse
// @Failure      400 {object} shared.APIError
// @Failure      404 {object} shared.APIError
// @Security     BearerAuth
// @Router       /events/conversations [post]
func (h *Handler) StartConversation(c echo.Context) error {
	tenantID, err := auth.RequireTenant(c)
	if err != nil {
		return err
	}

	var req dto.StartConversationRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}
	if req.AgentID == "" {
		return shared.BadRequest("missing_agent", "agent_id is required")
	}
	channel := shared.ChannelKind(req.Channel)
	if !channel.Valid() {
		return shared.BadRequest("invalid_channel", fmt.Sprintf("unknown channel %q", req.Channel))
	}

	ctx := c.Request().Context()
	if _, err := h.events.GetAgent(ctx, tenantID, req.AgentID); err != nil {
		return shared.FromError(err, "unknown_agent")
	}

	conv := &event.Conversation{
		ID:       req.ConversationID,
		TenantID: tenantID,
		AgentID:  req.AgentID,
		UserID:   req.UserID,
		Channel:  channel,
	}
	if err := h.events.CreateConversation(ctx, conv); err != nil {
		h.logger.Error("failed to create conversation", "error", err, "tenant_id", tenantID)
		return shared.InternalError("create_failed", "failed to create conversation")
	}

	if err := h.live.ConversationStarted(ctx, tenantID); err != nil {
		h.logger.Warn("live counter update failed", "error", err, "tenant_id", tenantID)
	}
	if err := h.live.TrackUser(ctx, tenantID, req.UserID); err != nil {
		h.logger.Warn("live user tracking failed", "error", err, "tenant_id", tenantID)
	}

	return c.JSON(http.StatusCreated, dto.ConversationResponse{
		ConversationID: conv.ID,
		Status:         string(conv.Status),
	})
}

// UpdateConversation moves a conversation to a new status, optionally
// attaching the satisfaction rating and sentiment collected at close.
// @Summary      Update a conversation
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        id      path string                        true "Conversation id"
// @Param        request body dto.UpdateConversationRequest true "Status transition"
// @Success      200 {object} dto.ConversationResponse
// @Failure      400 {object} shared.APIError
// @Failure      404 {object} shared.APIError
// @Security     BearerAuth
// @Router       /events/conversations/{id} [patch]
func (h *Handler) UpdateConversation(c echo.Context) error {
	tenantID, err := auth.RequireTenant(c)
	if err != nil {
		return err
	}

	var req dto.UpdateConversationRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}
	status := shared.ConversationStatus(req.Status)
	if !status.Valid() {
		return shared.BadRequest("invalid_status", fmt.Sprintf("unknown status %q", req.Status))
	}
	sentiment := shared.Sentiment(req.Sentiment)
	if req.Sentiment != "" && !sentiment.Valid() {
		return shared.BadRequest("invalid_sentiment", fmt.Sprintf("unknown sentiment %q", req.Sentiment))
	}
	if req.Satisfaction != nil && (*req.Satisfaction < 1 || *req.Satisfaction > 5) {
		return shared.BadRequest("invalid_satisfaction", "satisfaction must be between 1 and 5")
	}

	ctx := c.Request().Context()
	id := c.Param("id")

	// The previous status decides whether the live active count moves,
	// in either direction: a reopened conversation counts as active again.
	prev, err := h.events.GetConversation(ctx, tenantID, id)
	if err != nil {
		return shared.FromError(err, "conversation")
	}

	if err := h.events.UpdateConversationStatus(ctx, tenantID, id, status, req.Satisfaction, sentiment); err != nil {
		return shared.FromError(err, "conversation")
	}

	switch {
	case prev.Status == shared.StatusActive && status.Terminal():
		if err := h.live.ConversationEnded(ctx, tenantID); err != nil {
			h.logger.Warn("live counter update failed", "error", err, "tenant_id", tenantID)
		}
	case prev.Status.Terminal() && status == shared.StatusActive:
		if err := h.live.ConversationStarted(ctx, tenantID); err != nil {
			h.logger.Warn("live counter update failed", "error", err, "tenant_id", tenantID)
		}
	}

	return c.JSON(http.StatusOK, dto.ConversationResponse{
		ConversationID: id,
		Status:         string(status),
	})
}

// RecordMessage ingests one message or error event.
// @Summary      Record a message event
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        request body dto.MessageEventRequest true "Event details"
// @Success      202 {object} dto.AcceptedResponse
// @Failure      400 {object} shared.APIError
// @Failure      404 {object} shared.APIError
// @Security     BearerAuth
// @Router       /events/messages [post]
func (h *Handler) RecordMessage(c echo.Context) error {
	tenantID, err := auth.RequireTenant(c)
	if err != nil {
		return err
	}

	var req dto.MessageEventRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}
	if req.ConversationID == "" {
		return shared.BadRequest("missing_conversation", "conversation_id is required")
	}
	kind := event.Kind(req.Kind)
	if !kind.Valid() {
		return shared.BadRequest("invalid_kind", fmt.Sprintf("unknown event kind %q", req.Kind))
	}
	channel := shared.ChannelKind(req.Channel)
	if !channel.Valid() {
		return shared.BadRequest("invalid_channel", fmt.Sprintf("unknown channel %q", req.Channel))
	}
	if req.ResponseTimeMs < 0 {
		return shared.BadRequest("invalid_response_time", "response_time_ms must not be negative")
	}

	ctx := c.Request().Context()
	conv, err := h.events.GetConversation(ctx, tenantID, req.ConversationID)
	if err != nil {
		return shared.FromError(err, "conversation")
	}

	evt := &event.Event{
		TenantID:       tenantID,
		ConversationID: conv.ID,
		AgentID:        req.AgentID,
		UserID:         req.UserID,
		Channel:        channel,
		Kind:           kind,
		Intent:         req.Intent,
		ResponseTimeMs: req.ResponseTimeMs,
	}
	if evt.AgentID == "" {
		evt.AgentID = conv.AgentID
	}
	if err := h.events.CreateEvent(ctx, evt); err != nil {
		h.logger.Error("failed to persist event", "error", err, "tenant_id", tenantID)
		return shared.InternalError("create_failed", "failed to persist event")
	}

	if err := h.live.RecordEvent(ctx, tenantID, req.ResponseTimeMs, kind == event.KindError); err != nil {
		h.logger.Warn("live counter update failed", "error", err, "tenant_id", tenantID)
	}
	if err := h.live.TrackUser(ctx, tenantID, req.UserID); err != nil {
		h.logger.Warn("live user tracking failed", "error", err, "tenant_id", tenantID)
	}

	return c.JSON(http.StatusAccepted, dto.AcceptedResponse{Accepted: true})
}
