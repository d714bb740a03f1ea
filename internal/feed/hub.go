package feed

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pulsehq/analytics-backend/internal/live"
)

// SnapshotSource supplies the live counters a tick turns into an update.
// *live.Store is the production implementation.
type SnapshotSource interface {
	Snapshot(ctx context.Context, tenantID string) (*live.Metrics, error)
}

// RealTimeMetrics is one delivery to a subscriber. Generation increases
// monotonically per tenant; Degraded marks an update whose fetch failed after
// all retries and therefore carries the last known values.
type RealTimeMetrics struct {
	live.Metrics

	Generation uint64    `json:"generation"`
	Degraded   bool      `json:"degraded"`
	At         time.Time `json:"at"`
}

type Config struct {
	// Interval is the delivery cadence. The feed is timer-driven: one update
	// per interval per subscriber, bounded latency by construction.
	Interval time.Duration

	// MaxRetries bounds per-tick snapshot retries before a degraded delivery.
	MaxRetries int

	// RetryBackoff is the initial backoff between retries, doubling each
	// attempt.
	RetryBackoff time.Duration
}

func (c *Config) applyDefaults() {
	if c.Interval <= 0 {
		c.Interval = 5 * time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 200 * time.Millisecond
	}
}

// Hub runs one delivery loop per subscription, fully independent of the
// on-demand aggregation path. Subscriptions are isolated per tenant: a
// subscriber only ever sees snapshots for the tenant it subscribed with.
type Hub struct {
	source SnapshotSource
	logger *slog.Logger
	cfg    Config

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	gens   map[string]*atomic.Uint64
	closed bool

	subCount atomic.Int64
}

func NewHub(source SnapshotSource, logger *slog.Logger, cfg Config) *Hub {
	cfg.applyDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		source: source,
		logger: logger.With("component", "feed"),
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
		gens:   make(map[string]*atomic.Uint64),
	}
}

// SubscriberCount reports the number of live subscriptions, for health stats.
func (h *Hub) SubscriberCount() int64 {
	return h.subCount.Load()
}

func (h *Hub) nextGen(tenantID string) uint64 {
	h.mu.Lock()
	gen, ok := h.gens[tenantID]
	if !ok {
		gen = &atomic.Uint64{}
		h.gens[tenantID] = gen
	}
	h.mu.Unlock()
	return gen.Add(1)
}

// Subscribe registers fn for the tenant's live updates and starts its
// delivery loop. The first update is delivered immediately, then one per
// cadence interval. The returned subscription's Unsubscribe guarantees no
// delivery happens after it returns.
func (h *Hub) Subscribe(tenantID string, fn func(RealTimeMetrics)) (*Subscription, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, context.Canceled
	}
	h.mu.Unlock()

	ctx, cancel := context.WithCancel(h.ctx)
	sub := &Subscription{
		id:       uuid.NewString(),
		tenantID: tenantID,
		fn:       fn,
		ctx:      ctx,
		cancel:   cancel,
	}

	h.subCount.Add(1)
	h.wg.Add(1)
	go h.run(sub)

	h.logger.Debug("subscriber attached", "tenant_id", tenantID, "subscription_id", sub.id)
	return sub, nil
}

func (h *Hub) run(sub *Subscription) {
	defer h.wg.Done()
	defer h.subCount.Add(-1)

	ticker := time.NewTicker(h.cfg.Interval)
	defer ticker.Stop()

	h.tick(sub)
	for {
		select {
		case <-sub.ctx.Done():
			return
		case <-ticker.C:
			h.tick(sub)
		}
	}
}

func (h *Hub) tick(sub *Subscription) {
	metrics, err := h.fetchWithRetry(sub.ctx, sub.tenantID)

	update := RealTimeMetrics{
		Generation: h.nextGen(sub.tenantID),
		At:         time.Now().UTC(),
	}
	if err != nil {
		if sub.ctx.Err() != nil {
			return
		}
		// Retries exhausted: deliver the last known values with an explicit
		// degraded marker instead of going silent.
		update.Metrics = sub.lastMetrics()
		update.Degraded = true
		h.logger.Warn("live snapshot degraded", "tenant_id", sub.tenantID, "error", err)
	} else {
		update.Metrics = *metrics
		sub.storeMetrics(*metrics)
	}

	sub.deliver(update)
}

func (h *Hub) fetchWithRetry(ctx context.Context, tenantID string) (*live.Metrics, error) {
	backoff := h.cfg.RetryBackoff
	var lastErr error

	for attempt := 0; attempt < h.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		metrics, err := h.source.Snapshot(ctx, tenantID)
		if err == nil {
			return metrics, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// Close cancels every subscription and waits for the delivery loops to exit.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()

	h.cancel()
	h.wg.Wait()
}

// Subscription is the cancellable handle returned by Subscribe. Delivery and
// cancellation synchronize on one mutex: once Unsubscribe has returned, the
// callback cannot be invoked again.
type Subscription struct {
	id       string
	tenantID string
	fn       func(RealTimeMetrics)
	ctx      context.Context
	cancel   context.CancelFunc

	mu     sync.Mutex
	closed bool
	last   live.Metrics
	lastGn uint64
}

func (s *Subscription) ID() string {
	return s.id
}

func (s *Subscription) deliver(update RealTimeMetrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if update.Generation <= s.lastGn {
		return
	}
	s.lastGn = update.Generation
	s.fn(update)
}

func (s *Subscription) storeMetrics(m live.Metrics) {
	s.mu.Lock()
	s.last = m
	s.mu.Unlock()
}

func (s *Subscription) lastMetrics() live.Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Subscription) Unsubscribe() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
}
