package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pulsehq/analytics-backend/internal/timewindow"
	"golang.org/x/sync/errgroup"
)

// Dashboard holds the last committed snapshot per tenant and runs refreshes.
// The four section queries fan out concurrently; each section records its own
// failure so one broken query degrades a section instead of the whole view.
// A refresh commits atomically, and only if no newer refresh started for the
// tenant in the meantime (last-request-wins).
type Dashboard struct {
	svc    *Service
	logger *slog.Logger

	mu        sync.RWMutex
	snapshots map[string]*Snapshot
	gens      map[string]uint64
}

func NewDashboard(svc *Service, logger *slog.Logger) *Dashboard {
	return &Dashboard{
		svc:       svc,
		logger:    logger.With("component", "dashboard"),
		snapshots: make(map[string]*Snapshot),
		gens:      make(map[string]uint64),
	}
}

func (d *Dashboard) begin(tenantID string) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gens[tenantID]++
	return d.gens[tenantID]
}

// commit installs snap unless a newer refresh for the tenant has begun.
func (d *Dashboard) commit(tenantID string, gen uint64, snap *Snapshot) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.gens[tenantID] != gen {
		return false
	}
	d.snapshots[tenantID] = snap
	return true
}

// Current returns the tenant's last committed snapshot. The export encoder
// reads from here so an export always matches what the operator saw.
func (d *Dashboard) Current(tenantID string) (*Snapshot, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	snap, ok := d.snapshots[tenantID]
	return snap, ok
}

// Refresh recomputes all sections for the window and returns the snapshot it
// built. Validation and the agent-ownership check run before any aggregation
// query. When every section fails, the first section error is returned
// instead of a snapshot.
func (d *Dashboard) Refresh(ctx context.Context, tenantID string, period timewindow.Period, agentFilter string) (*Snapshot, error) {
	window, err := d.svc.Resolver().Resolve(period)
	if err != nil {
		return nil, err
	}

	agentID, err := d.svc.ResolveAgentFilter(ctx, tenantID, agentFilter)
	if err != nil {
		return nil, err
	}

	gen := d.begin(tenantID)

	snap := &Snapshot{
		TenantID:    tenantID,
		Window:      window,
		AgentFilter: agentID,
		GeneratedAt: time.Now().UTC(),
	}

	// Each goroutine writes only its own section fields and always returns
	// nil: partial failure is state, not an abort.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap.Summary, snap.SummaryErr = d.svc.ComputeMetrics(gctx, tenantID, window, agentID)
		return nil
	})
	g.Go(func() error {
		snap.Agents, snap.AgentsErr = d.svc.ComputeAgentPerformance(gctx, tenantID, window, agentID)
		return nil
	})
	g.Go(func() error {
		snap.Channels, snap.ChannelsErr = d.svc.ComputeChannelAnalytics(gctx, tenantID, window)
		return nil
	})
	g.Go(func() error {
		snap.Series, snap.SeriesErr = d.svc.BuildSeries(gctx, tenantID, MetricConversations, window, agentID)
		return nil
	})
	_ = g.Wait()

	if snap.Failed() {
		return nil, snap.SummaryErr
	}

	if !d.commit(tenantID, gen, snap) {
		d.logger.Debug("stale refresh discarded", "tenant_id", tenantID, "generation", gen)
		return snap, nil
	}

	if !snap.Complete() {
		d.logger.Warn("snapshot committed with degraded sections",
			"tenant_id", tenantID,
			"summary_err", snap.SummaryErr,
			"agents_err", snap.AgentsErr,
			"channels_err", snap.ChannelsErr,
			"series_err", snap.SeriesErr,
		)
	}
	return snap, nil
}
