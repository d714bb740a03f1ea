package live

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/pulsehq/analytics-backend/internal/shared"
	"github.com/redis/go-redis/v9"
)

const (
	countersTTL = 24 * time.Hour
	usersTTL    = 5 * time.Minute

	// throughput is computed over per-minute keys covering this many minutes.
	throughputWindow = 5
)

// Metrics is the live snapshot computed from Redis counters. All rates are
// in [0, 1]; throughput is events per minute.
type Metrics struct {
	ActiveConversations int64   `json:"active_conversations"`
	ActiveUsers         int64   `json:"active_users"`
	ResponseTimeMs      int64   `json:"response_time_ms"`
	SystemLoad          float64 `json:"system_load"`
	ErrorRate           float64 `json:"error_rate"`
	ThroughputPerMin    float64 `json:"throughput_per_min"`
}

// Store keeps per-tenant live counters in Redis hashes and sets. The
// ingestion path writes; the real-time feed reads. Nothing here touches the
// historical aggregates.
type Store struct {
	redis *redis.Client

	// loadCapacity is the active-conversation count treated as full load.
	loadCapacity int64
}

func NewStore(redisClient *redis.Client, loadCapacity int64) *Store {
	if loadCapacity <= 0 {
		loadCapacity = 100
	}
	return &Store{redis: redisClient, loadCapacity: loadCapacity}
}

func countersKey(tenantID string) string {
	return "tenant:" + tenantID + ":live"
}

func usersKey(tenantID string) string {
	return "tenant:" + tenantID + ":live:users"
}

func minuteKey(tenantID string, t time.Time) string {
	return fmt.Sprintf("tenant:%s:events:%d", tenantID, t.Unix()/60)
}

func (s *Store) ConversationStarted(ctx context.Context, tenantID string) error {
	pipe := s.redis.Pipeline()
	pipe.HIncrBy(ctx, countersKey(tenantID), "active_conversations", 1)
	pipe.Expire(ctx, countersKey(tenantID), countersTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) ConversationEnded(ctx context.Context, tenantID string) error {
	return s.redis.HIncrBy(ctx, countersKey(tenantID), "active_conversations", -1).Err()
}

// TrackUser marks a user active; the set expires so idle users age out of
// the active count.
func (s *Store) TrackUser(ctx context.Context, tenantID, userID string) error {
	if userID == "" {
		return nil
	}
	pipe := s.redis.Pipeline()
	pipe.SAdd(ctx, usersKey(tenantID), userID)
	pipe.Expire(ctx, usersKey(tenantID), usersTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// RecordEvent bumps the throughput counter for the current minute and, for
// errors and responses, the respective accumulators.
func (s *Store) RecordEvent(ctx context.Context, tenantID string, latencyMs int64, isError bool) error {
	now := time.Now().UTC()

	pipe := s.redis.Pipeline()
	pipe.Incr(ctx, minuteKey(tenantID, now))
	pipe.Expire(ctx, minuteKey(tenantID, now), (throughputWindow+1)*time.Minute)
	pipe.HIncrBy(ctx, countersKey(tenantID), "event_count", 1)
	if isError {
		pipe.HIncrBy(ctx, countersKey(tenantID), "error_count", 1)
	}
	if latencyMs > 0 {
		pipe.HIncrBy(ctx, countersKey(tenantID), "total_latency_ms", latencyMs)
		pipe.HIncrBy(ctx, countersKey(tenantID), "latency_count", 1)
	}
	pipe.Expire(ctx, countersKey(tenantID), countersTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// Snapshot reads the tenant's live counters into a Metrics value. Failures
// wrap the upstream sentinel so the feed can retry and eventually degrade.
func (s *Store) Snapshot(ctx context.Context, tenantID string) (*Metrics, error) {
	counters, err := s.redis.HGetAll(ctx, countersKey(tenantID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrUnavailable, err)
	}

	activeUsers, err := s.redis.SCard(ctx, usersKey(tenantID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrUnavailable, err)
	}

	m := &Metrics{ActiveUsers: activeUsers}

	if v, ok := counters["active_conversations"]; ok {
		m.ActiveConversations, _ = strconv.ParseInt(v, 10, 64)
		if m.ActiveConversations < 0 {
			m.ActiveConversations = 0
		}
	}

	totalLatency, _ := strconv.ParseInt(counters["total_latency_ms"], 10, 64)
	latencyCount, _ := strconv.ParseInt(counters["latency_count"], 10, 64)
	if latencyCount > 0 {
		m.ResponseTimeMs = totalLatency / latencyCount
	}

	eventCount, _ := strconv.ParseInt(counters["event_count"], 10, 64)
	errorCount, _ := strconv.ParseInt(counters["error_count"], 10, 64)
	if eventCount > 0 {
		m.ErrorRate = float64(errorCount) / float64(eventCount)
	}

	m.SystemLoad = float64(m.ActiveConversations) / float64(s.loadCapacity)
	if m.SystemLoad > 1 {
		m.SystemLoad = 1
	}

	now := time.Now().UTC()
	var total int64
	for i := 0; i < throughputWindow; i++ {
		v, err := s.redis.Get(ctx, minuteKey(tenantID, now.Add(-time.Duration(i)*time.Minute))).Int64()
		if err != nil && err != redis.Nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrUnavailable, err)
		}
		total += v
	}
	m.ThroughputPerMin = float64(total) / float64(throughputWindow)

	return m, nil
}
