package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pulsehq/analytics-backend/internal/shared"
	"github.com/pulsehq/analytics-backend/internal/timewindow"
	"gorm.io/gorm"
)

// Store is the read/write boundary over the event database. Every query takes
// the tenant id explicitly; nothing here reads ambient state.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&Agent{}, &Conversation{}, &Event{})
}

func upstream(err error) error {
	return fmt.Errorf("%w: %v", shared.ErrUnavailable, err)
}

// GetAgent resolves an agent within a tenant. An agent id owned by another
// tenant is indistinguishable from a missing one.
func (s *Store) GetAgent(ctx context.Context, tenantID, agentID string) (*Agent, error) {
	var a Agent
	err := s.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, agentID).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, upstream(err)
	}
	return &a, nil
}

func (s *Store) CreateAgent(ctx context.Context, a *Agent) error {
	if a.ID == "" {
		a.ID = shared.NewID("agent_")
	}
	return s.db.WithContext(ctx).Create(a).Error
}

func (s *Store) CreateConversation(ctx context.Context, conv *Conversation) error {
	if conv.ID == "" {
		conv.ID = shared.NewID("conv_")
	}
	if conv.Status == "" {
		conv.Status = shared.StatusActive
	}
	if conv.StartedAt.IsZero() {
		conv.StartedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Create(conv).Error
}

func (s *Store) GetConversation(ctx context.Context, tenantID, id string) (*Conversation, error) {
	var conv Conversation
	err := s.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, upstream(err)
	}
	return &conv, nil
}

func (s *Store) UpdateConversationStatus(ctx context.Context, tenantID, id string, status shared.ConversationStatus, satisfaction *int, sentiment shared.Sentiment) error {
	updates := map[string]any{"status": status}
	if status.Terminal() {
		updates["ended_at"] = time.Now().UTC()
	} else {
		updates["ended_at"] = nil
	}
	if satisfaction != nil {
		updates["satisfaction"] = *satisfaction
	}
	if sentiment != "" {
		updates["sentiment"] = sentiment
	}

	result := s.db.WithContext(ctx).Model(&Conversation{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(updates)
	if result.Error != nil {
		return upstream(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (s *Store) CreateEvent(ctx context.Context, e *Event) error {
	if e.ID == "" {
		e.ID = shared.NewID("evt_")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Create(e).Error
}

func (s *Store) conversationScope(ctx context.Context, tenantID, agentID string, window timewindow.DateRange) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&Conversation{}).
		Where("tenant_id = ?", tenantID).
		Where("started_at >= ? AND started_at < ?", window.Start, window.End)
	if agentID != "" {
		q = q.Where("agent_id = ?", agentID)
	}
	return q
}

func (s *Store) eventScope(ctx context.Context, tenantID, agentID string, window timewindow.DateRange) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&Event{}).
		Where("tenant_id = ?", tenantID).
		Where("created_at >= ? AND created_at < ?", window.Start, window.End)
	if agentID != "" {
		q = q.Where("agent_id = ?", agentID)
	}
	return q
}

// CountConversationsByStatus returns per-status conversation counts in the
// window. Statuses with no conversations are absent from the map.
func (s *Store) CountConversationsByStatus(ctx context.Context, tenantID, agentID string, window timewindow.DateRange) (map[shared.ConversationStatus]int64, error) {
	var rows []struct {
		Status shared.ConversationStatus
		Count  int64
	}
	err := s.conversationScope(ctx, tenantID, agentID, window).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, upstream(err)
	}

	counts := make(map[shared.ConversationStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

// AvgResponseTime averages response_time_ms over outbound messages in the
// window. Conversations with no responses contribute nothing to the mean.
func (s *Store) AvgResponseTime(ctx context.Context, tenantID, agentID string, window timewindow.DateRange) (float64, error) {
	var row struct {
		Avg *float64
	}
	err := s.eventScope(ctx, tenantID, agentID, window).
		Select("AVG(response_time_ms) as avg").
		Where("kind = ? AND response_time_ms > 0", KindMessageOut).
		Scan(&row).Error
	if err != nil {
		return 0, upstream(err)
	}
	if row.Avg == nil {
		return 0, nil
	}
	return *row.Avg, nil
}

// AvgSatisfaction averages the 1-5 ratings over rated conversations in the
// window, 0 when none were rated.
func (s *Store) AvgSatisfaction(ctx context.Context, tenantID, agentID string, window timewindow.DateRange) (float64, error) {
	var row struct {
		Avg *float64
	}
	err := s.conversationScope(ctx, tenantID, agentID, window).
		Select("AVG(satisfaction) as avg").
		Where("satisfaction IS NOT NULL").
		Scan(&row).Error
	if err != nil {
		return 0, upstream(err)
	}
	if row.Avg == nil {
		return 0, nil
	}
	return *row.Avg, nil
}

type AgentRollup struct {
	AgentID   string
	AgentName string
	Total     int64
	Completed int64
}

// AgentRollups returns per-agent conversation totals in the window, ordered
// by total descending.
func (s *Store) AgentRollups(ctx context.Context, tenantID, agentID string, window timewindow.DateRange) ([]AgentRollup, error) {
	var rows []AgentRollup
	err := s.conversationScope(ctx, tenantID, agentID, window).
		Select("conversations.agent_id, agents.name as agent_name, COUNT(*) as total, SUM(CASE WHEN conversations.status = ? THEN 1 ELSE 0 END) as completed", shared.StatusCompleted).
		Joins("JOIN agents ON agents.id = conversations.agent_id").
		Group("conversations.agent_id, agents.name").
		Order("total DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, upstream(err)
	}
	return rows, nil
}

type IntentCount struct {
	AgentID string
	Intent  string
	Count   int64
}

// AgentIntents returns per-agent intent counts over inbound messages in the
// window, ordered by count descending within each agent.
func (s *Store) AgentIntents(ctx context.Context, tenantID, agentID string, window timewindow.DateRange) ([]IntentCount, error) {
	var rows []IntentCount
	err := s.eventScope(ctx, tenantID, agentID, window).
		Select("agent_id, intent, COUNT(*) as count").
		Where("kind = ? AND intent <> ''", KindMessageIn).
		Group("agent_id, intent").
		Order("agent_id, count DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, upstream(err)
	}
	return rows, nil
}

type AgentEventCounts struct {
	AgentID string
	Events  int64
	Errors  int64
}

// AgentEventTotals returns per-agent event and error counts in the window,
// used to derive uptime.
func (s *Store) AgentEventTotals(ctx context.Context, tenantID, agentID string, window timewindow.DateRange) ([]AgentEventCounts, error) {
	var rows []AgentEventCounts
	err := s.eventScope(ctx, tenantID, agentID, window).
		Select("agent_id, COUNT(*) as events, SUM(CASE WHEN kind = ? THEN 1 ELSE 0 END) as errors", KindError).
		Group("agent_id").
		Scan(&rows).Error
	if err != nil {
		return nil, upstream(err)
	}
	return rows, nil
}

type ChannelRollup struct {
	Channel       shared.ChannelKind
	Messages      int64
	UniqueUsers   int64
	Errors        int64
	AvgResponseMs float64
}

// ChannelRollups returns per-channel message totals in the window, one row
// per channel observed.
func (s *Store) ChannelRollups(ctx context.Context, tenantID string, window timewindow.DateRange) ([]ChannelRollup, error) {
	var rows []struct {
		Channel       shared.ChannelKind
		Messages      int64
		UniqueUsers   int64
		Errors        int64
		AvgResponseMs *float64
	}
	err := s.eventScope(ctx, tenantID, "", window).
		Select("channel, "+
			"SUM(CASE WHEN kind <> ? THEN 1 ELSE 0 END) as messages, "+
			"COUNT(DISTINCT CASE WHEN user_id <> '' THEN user_id END) as unique_users, "+
			"SUM(CASE WHEN kind = ? THEN 1 ELSE 0 END) as errors, "+
			"AVG(CASE WHEN kind = ? AND response_time_ms > 0 THEN response_time_ms END) as avg_response_ms",
			KindError, KindError, KindMessageOut).
		Group("channel").
		Order("messages DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, upstream(err)
	}

	rollups := make([]ChannelRollup, len(rows))
	for i, r := range rows {
		rollups[i] = ChannelRollup{
			Channel:     r.Channel,
			Messages:    r.Messages,
			UniqueUsers: r.UniqueUsers,
			Errors:      r.Errors,
		}
		if r.AvgResponseMs != nil {
			rollups[i].AvgResponseMs = *r.AvgResponseMs
		}
	}
	return rollups, nil
}

// ConversationStarts returns the start timestamps of conversations in the
// window, for time-series bucketing.
func (s *Store) ConversationStarts(ctx context.Context, tenantID, agentID string, window timewindow.DateRange) ([]time.Time, error) {
	var stamps []time.Time
	err := s.conversationScope(ctx, tenantID, agentID, window).
		Order("started_at").
		Pluck("started_at", &stamps).Error
	if err != nil {
		return nil, upstream(err)
	}
	return stamps, nil
}

// EventTimes returns the timestamps of events of the given kinds in the
// window, for time-series bucketing.
func (s *Store) EventTimes(ctx context.Context, tenantID, agentID string, window timewindow.DateRange, kinds ...Kind) ([]time.Time, error) {
	var stamps []time.Time
	err := s.eventScope(ctx, tenantID, agentID, window).
		Where("kind IN ?", kinds).
		Order("created_at").
		Pluck("created_at", &stamps).Error
	if err != nil {
		return nil, upstream(err)
	}
	return stamps, nil
}

type ResponseSample struct {
	At time.Time
	Ms int64
}

// ResponseSamples returns (timestamp, latency) pairs for outbound messages in
// the window, for latency time-series.
func (s *Store) ResponseSamples(ctx context.Context, tenantID, agentID string, window timewindow.DateRange) ([]ResponseSample, error) {
	var rows []struct {
		CreatedAt      time.Time
		ResponseTimeMs int64
	}
	err := s.eventScope(ctx, tenantID, agentID, window).
		Select("created_at, response_time_ms").
		Where("kind = ? AND response_time_ms > 0", KindMessageOut).
		Order("created_at").
		Scan(&rows).Error
	if err != nil {
		return nil, upstream(err)
	}

	samples := make([]ResponseSample, len(rows))
	for i, r := range rows {
		samples[i] = ResponseSample{At: r.CreatedAt, Ms: r.ResponseTimeMs}
	}
	return samples, nil
}
