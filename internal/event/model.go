package event

import (
	"time"

	"github.com/pulsehq/analytics-backend/internal/shared"
)

type Agent struct {
	ID       string `gorm:"primaryKey" json:"id"`
	TenantID string `gorm:"not null;index" json:"tenant_id"`
	Name     string `gorm:"not null" json:"name"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Conversation struct {
	ID       string                    `gorm:"primaryKey" json:"id"`
	TenantID string                    `gorm:"not null;index:idx_conv_tenant_started" json:"tenant_id"`
	AgentID  string                    `gorm:"not null;index" json:"agent_id"`
	UserID   string                    `gorm:"index" json:"user_id"`
	Channel  shared.ChannelKind        `gorm:"not null" json:"channel"`
	Status   shared.ConversationStatus `gorm:"not null;default:'active'" json:"status"`

	// Satisfaction is the 1-5 rating left at conversation end, nil when the
	// user never rated.
	Satisfaction *int             `json:"satisfaction,omitempty"`
	Sentiment    shared.Sentiment `json:"sentiment,omitempty"`

	StartedAt time.Time  `gorm:"not null;index:idx_conv_tenant_started" json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type Kind string

const (
	KindMessageIn  Kind = "message_in"
	KindMessageOut Kind = "message_out"
	KindError      Kind = "error"
)

func (k Kind) Valid() bool {
	switch k {
	case KindMessageIn, KindMessageOut, KindError:
		return true
	}
	return false
}

// Event is one row per message or error observed on a conversation. All
// aggregation reads run over this table and the conversations table, always
// scoped by tenant.
type Event struct {
	ID             string             `gorm:"primaryKey" json:"id"`
	TenantID       string             `gorm:"not null;index:idx_event_tenant_created" json:"tenant_id"`
	ConversationID string             `gorm:"not null;index" json:"conversation_id"`
	AgentID        string             `gorm:"not null;index" json:"agent_id"`
	UserID         string             `json:"user_id"`
	Channel        shared.ChannelKind `gorm:"not null" json:"channel"`
	Kind           Kind               `gorm:"not null" json:"kind"`

	// Intent is the classified user intent, set on inbound messages.
	Intent string `json:"intent,omitempty"`

	// ResponseTimeMs is set on outbound messages: elapsed time between the
	// triggering user message and this response.
	ResponseTimeMs int64 `json:"response_time_ms,omitempty"`

	CreatedAt time.Time `gorm:"not null;index:idx_event_tenant_created" json:"created_at"`
}
