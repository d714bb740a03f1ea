package analytics

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pulsehq/analytics-backend/internal/auth"
	"github.com/pulsehq/analytics-backend/internal/dto"
	"github.com/pulsehq/analytics-backend/internal/shared"
	"github.com/pulsehq/analytics-backend/internal/timewindow"
)

const defaultPeriodParam = "24h"

type Handler struct {
	dashboard *Dashboard
	svc       *Service
	logger    *slog.Logger
}

func NewHandler(dashboard *Dashboard, svc *Service, logger *slog.Logger) *Handler {
	return &Handler{
		dashboard: dashboard,
		svc:       svc,
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/summary", h.GetSnapshot)
	g.GET("/agents", h.GetAgents)
	g.GET("/channels", h.GetChannels)
	g.GET("/timeseries", h.GetTimeSeries)
}

func (h *Handler) resolveWindow(c echo.Context) (tenantID string, window timewindow.DateRange, err error) {
	tenantID, err = auth.RequireTenant(c)
	if err != nil {
		return "", timewindow.DateRange{}, err
	}

	period := c.QueryParam("period")
	if period == "" {
		period = defaultPeriodParam
	}
	window, rerr := h.svc.Resolver().Resolve(timewindow.Period(period))
	if rerr != nil {
		return "", timewindow.DateRange{}, shared.FromError(rerr, "invalid_period")
	}
	return tenantID, window, nil
}

func (h *Handler) resolveRequest(c echo.Context) (tenantID string, window timewindow.DateRange, agentID string, err error) {
	tenantID, window, err = h.resolveWindow(c)
	if err != nil {
		return "", timewindow.DateRange{}, "", err
	}

	agentID, aerr := h.svc.ResolveAgentFilter(c.Request().Context(), tenantID, c.QueryParam("agent_id"))
	if aerr != nil {
		return "", timewindow.DateRange{}, "", shared.FromError(aerr, "agent_filter")
	}
	return tenantID, window, agentID, nil
}

// GetSnapshot refreshes and returns the full dashboard view model.
// @Summary      Get dashboard snapshot
// @Description  Recomputes summary, agent, channel and time-series sections for the window; failed sections carry an error marker instead of zeroes
// @Tags         analytics
// @Produce      json
// @Param        period    query string false "Time window (1h, 24h, 7d, 30d)" default(24h)
// @Param        agent_id  query string false "Restrict to one agent"
// @Success      200 {object} dto.SnapshotResponse
// @Failure      400 {object} shared.APIError
// @Failure      404 {object} shared.APIError
// @Failure      503 {object} shared.APIError
// @Security     BearerAuth
// @Router       /analytics/summary [get]
func (h *Handler) GetSnapshot(c echo.Context) error {
	tenantID, err := auth.RequireTenant(c)
	if err != nil {
		return err
	}

	period := c.QueryParam("period")
	if period == "" {
		period = defaultPeriodParam
	}

	snap, err := h.dashboard.Refresh(c.Request().Context(), tenantID, timewindow.Period(period), c.QueryParam("agent_id"))
	if err != nil {
		h.logger.Error("dashboard refresh failed", "error", err, "tenant_id", tenantID, "period", period)
		return shared.FromError(err, "refresh_failed")
	}

	return c.JSON(http.StatusOK, toSnapshotResponse(snap))
}

// GetAgents returns per-agent performance for the window.
// @Summary      Get agent performance
// @Tags         analytics
// @Produce      json
// @Param        period    query string false "Time window (1h, 24h, 7d, 30d)" default(24h)
// @Param        agent_id  query string false "Restrict to one agent"
// @Success      200 {array}  dto.AgentPerformanceResponse
// @Failure      404 {object} shared.APIError
// @Failure      503 {object} shared.APIError
// @Security     BearerAuth
// @Router       /analytics/agents [get]
func (h *Handler) GetAgents(c echo.Context) error {
	tenantID, window, agentID, err := h.resolveRequest(c)
	if err != nil {
		return err
	}

	perf, err := h.svc.ComputeAgentPerformance(c.Request().Context(), tenantID, window, agentID)
	if err != nil {
		h.logger.Error("agent performance failed", "error", err, "tenant_id", tenantID)
		return shared.FromError(err, "agent_performance")
	}

	out := make([]dto.AgentPerformanceResponse, len(perf))
	for i, p := range perf {
		out[i] = toAgentResponse(p)
	}
	return c.JSON(http.StatusOK, out)
}

// GetChannels returns per-channel analytics for the window.
// @Summary      Get channel analytics
// @Tags         analytics
// @Produce      json
// @Param        period query string false "Time window (1h, 24h, 7d, 30d)" default(24h)
// @Success      200 {array}  dto.ChannelAnalyticsResponse
// @Failure      503 {object} shared.APIError
// @Security     BearerAuth
// @Router       /analytics/channels [get]
func (h *Handler) GetChannels(c echo.Context) error {
	// Channel analytics take no agent filter, so none is validated here.
	tenantID, window, err := h.resolveWindow(c)
	if err != nil {
		return err
	}

	channels, err := h.svc.ComputeChannelAnalytics(c.Request().Context(), tenantID, window)
	if err != nil {
		h.logger.Error("channel analytics failed", "error", err, "tenant_id", tenantID)
		return shared.FromError(err, "channel_analytics")
	}

	out := make([]dto.ChannelAnalyticsResponse, len(channels))
	for i, ch := range channels {
		out[i] = toChannelResponse(ch)
	}
	return c.JSON(http.StatusOK, out)
}

// GetTimeSeries returns one bucketed metric series for the window.
// @Summary      Get a metric time series
// @Tags         analytics
// @Produce      json
// @Param        metric    query string true  "Metric (conversations, response_time, messages, errors)"
// @Param        period    query string false "Time window (1h, 24h, 7d, 30d)" default(24h)
// @Param        agent_id  query string false "Restrict to one agent"
// @Success      200 {object} dto.TimeSeriesResponse
// @Failure      400 {object} shared.APIError
// @Failure      503 {object} shared.APIError
// @Security     BearerAuth
// @Router       /analytics/timeseries [get]
func (h *Handler) GetTimeSeries(c echo.Context) error {
	tenantID, window, agentID, err := h.resolveRequest(c)
	if err != nil {
		return err
	}

	series, err := h.svc.BuildSeries(c.Request().Context(), tenantID, Metric(c.QueryParam("metric")), window, agentID)
	if err != nil {
		h.logger.Error("time series failed", "error", err, "tenant_id", tenantID)
		return shared.FromError(err, "time_series")
	}

	return c.JSON(http.StatusOK, toSeriesResponse(series))
}

func sectionError(err error) *dto.SectionError {
	if err == nil {
		return nil
	}
	code := "section_failed"
	if errors.Is(err, shared.ErrUnavailable) {
		code = "upstream_unavailable"
	}
	return &dto.SectionError{Code: code, Message: err.Error()}
}

func toSnapshotResponse(snap *Snapshot) dto.SnapshotResponse {
	resp := dto.SnapshotResponse{
		TenantID:      snap.TenantID,
		Period:        string(snap.Window.Period),
		AgentFilter:   snap.AgentFilter,
		WindowStart:   snap.Window.Start,
		WindowEnd:     snap.Window.End,
		GeneratedAt:   snap.GeneratedAt,
		SummaryError:  sectionError(snap.SummaryErr),
		AgentsError:   sectionError(snap.AgentsErr),
		ChannelsError: sectionError(snap.ChannelsErr),
		SeriesError:   sectionError(snap.SeriesErr),
	}

	if snap.Summary != nil {
		resp.Summary = &dto.SummaryResponse{
			Total:             snap.Summary.Total,
			Active:            snap.Summary.Active,
			Completed:         snap.Summary.Completed,
			Escalated:         snap.Summary.Escalated,
			AvgResponseTimeMs: snap.Summary.AvgResponseTimeMs,
			SatisfactionScore: snap.Summary.SatisfactionScore,
			ResolutionRate:    snap.Summary.ResolutionRate,
		}
	}

	if snap.Agents != nil {
		resp.Agents = make([]dto.AgentPerformanceResponse, len(snap.Agents))
		for i, a := range snap.Agents {
			resp.Agents[i] = toAgentResponse(a)
		}
	}

	if snap.Channels != nil {
		resp.Channels = make([]dto.ChannelAnalyticsResponse, len(snap.Channels))
		for i, ch := range snap.Channels {
			resp.Channels[i] = toChannelResponse(ch)
		}
	}

	if snap.Series != nil {
		series := toSeriesResponse(snap.Series)
		resp.Series = &series
	}

	return resp
}

func toAgentResponse(a AgentPerformance) dto.AgentPerformanceResponse {
	intents := make([]dto.IntentShareResponse, len(a.TopIntents))
	for i, intent := range a.TopIntents {
		intents[i] = dto.IntentShareResponse{Intent: intent.Intent, Percentage: intent.Percentage}
	}
	return dto.AgentPerformanceResponse{
		AgentID:            a.AgentID,
		AgentName:          a.AgentName,
		TotalConversations: a.TotalConversations,
		SuccessRate:        a.SuccessRate,
		Uptime:             a.Uptime,
		TopIntents:         intents,
	}
}

func toChannelResponse(ch ChannelAnalytics) dto.ChannelAnalyticsResponse {
	return dto.ChannelAnalyticsResponse{
		Channel:           ch.Channel.String(),
		Label:             ch.Display.Label,
		Icon:              ch.Display.Icon,
		Color:             ch.Display.Color,
		TotalMessages:     ch.TotalMessages,
		UniqueUsers:       ch.UniqueUsers,
		Uptime:            ch.Uptime,
		AvgResponseTimeMs: ch.AvgResponseTimeMs,
		ErrorRate:         ch.ErrorRate,
	}
}

func toSeriesResponse(s *TimeSeriesData) dto.TimeSeriesResponse {
	points := make([]dto.TimeSeriesPointResponse, len(s.Points))
	for i, p := range s.Points {
		points[i] = dto.TimeSeriesPointResponse{Label: p.Label, Value: p.Value}
	}
	return dto.TimeSeriesResponse{
		Metric: string(s.Metric),
		Period: string(s.Period),
		Points: points,
	}
}
