package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pulsehq/analytics-backend/internal/event"
	"github.com/pulsehq/analytics-backend/internal/shared"
	"github.com/pulsehq/analytics-backend/internal/timewindow"
)

// EventSource is the read boundary the aggregator consumes. *event.Store is
// the production implementation; tests substitute fakes.
type EventSource interface {
	GetAgent(ctx context.Context, tenantID, agentID string) (*event.Agent, error)
	CountConversationsByStatus(ctx context.Context, tenantID, agentID string, window timewindow.DateRange) (map[shared.ConversationStatus]int64, error)
	AvgResponseTime(ctx context.Context, tenantID, agentID string, window timewindow.DateRange) (float64, error)
	AvgSatisfaction(ctx context.Context, tenantID, agentID string, window timewindow.DateRange) (float64, error)
	AgentRollups(ctx context.Context, tenantID, agentID string, window timewindow.DateRange) ([]event.AgentRollup, error)
	AgentIntents(ctx context.Context, tenantID, agentID string, window timewindow.DateRange) ([]event.IntentCount, error)
	AgentEventTotals(ctx context.Context, tenantID, agentID string, window timewindow.DateRange) ([]event.AgentEventCounts, error)
	ChannelRollups(ctx context.Context, tenantID string, window timewindow.DateRange) ([]event.ChannelRollup, error)
	ConversationStarts(ctx context.Context, tenantID, agentID string, window timewindow.DateRange) ([]time.Time, error)
	EventTimes(ctx context.Context, tenantID, agentID string, window timewindow.DateRange, kinds ...event.Kind) ([]time.Time, error)
	ResponseSamples(ctx context.Context, tenantID, agentID string, window timewindow.DateRange) ([]event.ResponseSample, error)
}

const topIntentLimit = 5

type Service struct {
	events   EventSource
	resolver *timewindow.Resolver
	logger   *slog.Logger
}

func NewService(events EventSource, resolver *timewindow.Resolver, logger *slog.Logger) *Service {
	return &Service{
		events:   events,
		resolver: resolver,
		logger:   logger.With("component", "analytics"),
	}
}

func (s *Service) Resolver() *timewindow.Resolver {
	return s.resolver
}

// ResolveAgentFilter validates an optional agent filter against the tenant
// before any aggregation query runs. "" and "all" mean no filter. A filter
// not owned by the tenant fails with not-found and leaks nothing.
func (s *Service) ResolveAgentFilter(ctx context.Context, tenantID, agentFilter string) (string, error) {
	if tenantID == "" {
		return "", fmt.Errorf("%w: tenant id required", shared.ErrInvalid)
	}
	if agentFilter == "" || agentFilter == "all" {
		return "", nil
	}
	if _, err := s.events.GetAgent(ctx, tenantID, agentFilter); err != nil {
		return "", err
	}
	return agentFilter, nil
}

// ComputeMetrics builds the tenant summary for the window. resolutionRate is
// completed/total, 0 when the window holds no conversations.
func (s *Service) ComputeMetrics(ctx context.Context, tenantID string, window timewindow.DateRange, agentID string) (*ConversationMetrics, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenant id required", shared.ErrInvalid)
	}

	counts, err := s.events.CountConversationsByStatus(ctx, tenantID, agentID, window)
	if err != nil {
		return nil, err
	}

	avgResponse, err := s.events.AvgResponseTime(ctx, tenantID, agentID, window)
	if err != nil {
		return nil, err
	}

	satisfaction, err := s.events.AvgSatisfaction(ctx, tenantID, agentID, window)
	if err != nil {
		return nil, err
	}

	m := &ConversationMetrics{
		Active:            counts[shared.StatusActive],
		Completed:         counts[shared.StatusCompleted],
		Escalated:         counts[shared.StatusEscalated],
		AvgResponseTimeMs: avgResponse,
		SatisfactionScore: satisfaction,
	}
	for _, n := range counts {
		m.Total += n
	}
	if m.Total > 0 {
		m.ResolutionRate = float64(m.Completed) / float64(m.Total)
	}
	return m, nil
}

// ComputeAgentPerformance builds one record per agent with conversations in
// the window, ordered by total conversations descending. Uptime is derived as
// the non-error share of the agent's events.
func (s *Service) ComputeAgentPerformance(ctx context.Context, tenantID string, window timewindow.DateRange, agentID string) ([]AgentPerformance, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenant id required", shared.ErrInvalid)
	}

	rollups, err := s.events.AgentRollups(ctx, tenantID, agentID, window)
	if err != nil {
		return nil, err
	}

	intents, err := s.events.AgentIntents(ctx, tenantID, agentID, window)
	if err != nil {
		return nil, err
	}

	eventTotals, err := s.events.AgentEventTotals(ctx, tenantID, agentID, window)
	if err != nil {
		return nil, err
	}

	uptimeByAgent := make(map[string]float64, len(eventTotals))
	for _, et := range eventTotals {
		if et.Events > 0 {
			uptimeByAgent[et.AgentID] = 1 - float64(et.Errors)/float64(et.Events)
		}
	}

	intentsByAgent := make(map[string][]event.IntentCount)
	intentTotals := make(map[string]int64)
	for _, ic := range intents {
		intentsByAgent[ic.AgentID] = append(intentsByAgent[ic.AgentID], ic)
		intentTotals[ic.AgentID] += ic.Count
	}

	perf := make([]AgentPerformance, len(rollups))
	for i, r := range rollups {
		p := AgentPerformance{
			AgentID:            r.AgentID,
			AgentName:          r.AgentName,
			TotalConversations: r.Total,
			Uptime:             1,
		}
		if r.Total > 0 {
			p.SuccessRate = float64(r.Completed) / float64(r.Total)
		}
		if uptime, ok := uptimeByAgent[r.AgentID]; ok {
			p.Uptime = uptime
		}

		// AgentIntents rows arrive count-descending per agent, so insertion
		// order here is already descending percentage.
		total := intentTotals[r.AgentID]
		for _, ic := range intentsByAgent[r.AgentID] {
			if len(p.TopIntents) == topIntentLimit {
				break
			}
			p.TopIntents = append(p.TopIntents, IntentShare{
				Intent:     ic.Intent,
				Percentage: float64(ic.Count) / float64(total),
			})
		}
		perf[i] = p
	}
	return perf, nil
}

// ComputeChannelAnalytics builds one record per channel observed in the
// window. Error rates are normalized to [0, 1] here, never 0-100.
func (s *Service) ComputeChannelAnalytics(ctx context.Context, tenantID string, window timewindow.DateRange) ([]ChannelAnalytics, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenant id required", shared.ErrInvalid)
	}

	rollups, err := s.events.ChannelRollups(ctx, tenantID, window)
	if err != nil {
		return nil, err
	}

	out := make([]ChannelAnalytics, len(rollups))
	for i, r := range rollups {
		ca := ChannelAnalytics{
			Channel:           r.Channel,
			Display:           r.Channel.Display(),
			TotalMessages:     r.Messages,
			UniqueUsers:       r.UniqueUsers,
			AvgResponseTimeMs: r.AvgResponseMs,
			Uptime:            1,
		}
		if total := r.Messages + r.Errors; total > 0 {
			ca.ErrorRate = float64(r.Errors) / float64(total)
			ca.Uptime = 1 - ca.ErrorRate
		}
		out[i] = ca
	}
	return out, nil
}
