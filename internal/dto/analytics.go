package dto

import "time"

type SummaryResponse struct {
	Total             int64   `json:"total" example:"120"`
	Active            int64   `json:"active" example:"8"`
	Completed         int64   `json:"completed" example:"96"`
	Escalated         int64   `json:"escalated" example:"10"`
	AvgResponseTimeMs float64 `json:"avg_response_time_ms" example:"340.5"`
	SatisfactionScore float64 `json:"satisfaction_score" example:"4.2"`
	ResolutionRate    float64 `json:"resolution_rate" example:"0.8"`
}

type IntentShareResponse struct {
	Intent     string  `json:"intent" example:"order_status"`
	Percentage float64 `json:"percentage" example:"0.35"`
}

type AgentPerformanceResponse struct {
	AgentID            string                `json:"agent_id" example:"agent_7f3a"`
	AgentName          string                `json:"agent_name" example:"Support Bot"`
	TotalConversations int64                 `json:"total_conversations" example:"64"`
	SuccessRate        float64               `json:"success_rate" example:"0.92"`
	Uptime             float64               `json:"uptime" example:"0.998"`
	TopIntents         []IntentShareResponse `json:"top_intents"`
}

type ChannelAnalyticsResponse struct {
	Channel           string  `json:"channel" example:"whatsapp"`
	Label             string  `json:"label" example:"WhatsApp"`
	Icon              string  `json:"icon" example:"message-circle"`
	Color             string  `json:"color" example:"#22c55e"`
	TotalMessages     int64   `json:"total_messages" example:"4200"`
	UniqueUsers       int64   `json:"unique_users" example:"310"`
	Uptime            float64 `json:"uptime" example:"0.997"`
	AvgResponseTimeMs float64 `json:"avg_response_time_ms" example:"280"`
	ErrorRate         float64 `json:"error_rate" example:"0.003"`
}

type TimeSeriesPointResponse struct {
	Label string  `json:"label" example:"14:00"`
	Value float64 `json:"value" example:"12"`
}

type TimeSeriesResponse struct {
	Metric string                    `json:"metric" example:"conversations"`
	Period string                    `json:"period" example:"24h"`
	Points []TimeSeriesPointResponse `json:"points"`
}

// SnapshotResponse is the full dashboard payload. A section with a nil error
// and empty data genuinely measured zero; a section with a non-nil error was
// unavailable and must not render as zero.
type SnapshotResponse struct {
	TenantID    string    `json:"tenant_id" example:"tenant_acme"`
	Period      string    `json:"period" example:"24h"`
	AgentFilter string    `json:"agent_filter,omitempty" example:"agent_7f3a"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	GeneratedAt time.Time `json:"generated_at"`

	Summary      *SummaryResponse `json:"summary,omitempty"`
	SummaryError *SectionError    `json:"summary_error,omitempty"`

	Agents      []AgentPerformanceResponse `json:"agents,omitempty"`
	AgentsError *SectionError              `json:"agents_error,omitempty"`

	Channels      []ChannelAnalyticsResponse `json:"channels,omitempty"`
	ChannelsError *SectionError              `json:"channels_error,omitempty"`

	Series      *TimeSeriesResponse `json:"series,omitempty"`
	SeriesError *SectionError       `json:"series_error,omitempty"`
}

type LiveMetricsResponse struct {
	ActiveConversations int64     `json:"active_conversations" example:"14"`
	ActiveUsers         int64     `json:"active_users" example:"11"`
	ResponseTimeMs      int64     `json:"response_time_ms" example:"310"`
	SystemLoad          float64   `json:"system_load" example:"0.14"`
	ErrorRate           float64   `json:"error_rate" example:"0.004"`
	ThroughputPerMin    float64   `json:"throughput_per_min" example:"42"`
	Generation          uint64    `json:"generation" example:"1042"`
	Degraded            bool      `json:"degraded" example:"false"`
	At                  time.Time `json:"at"`
}
