package analytics

import (
	"time"

	"github.com/pulsehq/analytics-backend/internal/shared"
	"github.com/pulsehq/analytics-backend/internal/timewindow"
)

// All rate fields across the package are normalized to [0, 1] at the
// aggregator boundary, including channel error rates. Percent scaling is a
// presentation concern left to the dashboard.

type ConversationMetrics struct {
	Total             int64   `json:"total"`
	Active            int64   `json:"active"`
	Completed         int64   `json:"completed"`
	Escalated         int64   `json:"escalated"`
	AvgResponseTimeMs float64 `json:"avg_response_time_ms"`
	SatisfactionScore float64 `json:"satisfaction_score"`
	ResolutionRate    float64 `json:"resolution_rate"`
}

type IntentShare struct {
	Intent     string  `json:"intent"`
	Percentage float64 `json:"percentage"`
}

type AgentPerformance struct {
	AgentID            string        `json:"agent_id"`
	AgentName          string        `json:"agent_name"`
	TotalConversations int64         `json:"total_conversations"`
	SuccessRate        float64       `json:"success_rate"`
	Uptime             float64       `json:"uptime"`
	TopIntents         []IntentShare `json:"top_intents"`
}

type ChannelAnalytics struct {
	Channel           shared.ChannelKind    `json:"channel"`
	Display           shared.ChannelDisplay `json:"display"`
	TotalMessages     int64                 `json:"total_messages"`
	UniqueUsers       int64                 `json:"unique_users"`
	Uptime            float64               `json:"uptime"`
	AvgResponseTimeMs float64               `json:"avg_response_time_ms"`
	ErrorRate         float64               `json:"error_rate"`
}

type TimeSeriesPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type TimeSeriesData struct {
	Metric Metric            `json:"metric"`
	Period timewindow.Period `json:"period"`
	Points []TimeSeriesPoint `json:"points"`
}

// Total sums the point values, which for count metrics reconciles against
// ConversationMetrics over the identical window.
func (d *TimeSeriesData) Total() float64 {
	var sum float64
	for _, p := range d.Points {
		sum += p.Value
	}
	return sum
}

type Metric string

const (
	MetricConversations Metric = "conversations"
	MetricResponseTime  Metric = "response_time"
	MetricMessages      Metric = "messages"
	MetricErrors        Metric = "errors"
)

func (m Metric) Valid() bool {
	switch m {
	case MetricConversations, MetricResponseTime, MetricMessages, MetricErrors:
		return true
	}
	return false
}

// Snapshot is the dashboard view model: every section computed for one
// resolved window, committed atomically. A section either carries data or the
// error that kept it empty; zero data with a nil error genuinely means zero.
type Snapshot struct {
	TenantID    string               `json:"tenant_id"`
	Window      timewindow.DateRange `json:"window"`
	AgentFilter string               `json:"agent_filter,omitempty"`
	GeneratedAt time.Time            `json:"generated_at"`

	Summary    *ConversationMetrics `json:"summary,omitempty"`
	SummaryErr error                `json:"-"`

	Agents    []AgentPerformance `json:"agents,omitempty"`
	AgentsErr error              `json:"-"`

	Channels    []ChannelAnalytics `json:"channels,omitempty"`
	ChannelsErr error              `json:"-"`

	Series    *TimeSeriesData `json:"series,omitempty"`
	SeriesErr error           `json:"-"`
}

// Complete reports whether every section resolved without error.
func (s *Snapshot) Complete() bool {
	return s.SummaryErr == nil && s.AgentsErr == nil && s.ChannelsErr == nil && s.SeriesErr == nil
}

// Failed reports whether no section resolved at all.
func (s *Snapshot) Failed() bool {
	return s.SummaryErr != nil && s.AgentsErr != nil && s.ChannelsErr != nil && s.SeriesErr != nil
}
