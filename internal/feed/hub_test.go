package feed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/pulsehq/analytics-backend/internal/live"
)

type fakeSource struct {
	mu       sync.Mutex
	fail     bool
	byTenant map[string]live.Metrics
	calls    int
}

func (f *fakeSource) Snapshot(ctx context.Context, tenantID string) (*live.Metrics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return nil, errors.New("redis down")
	}
	m := f.byTenant[tenantID]
	return &m, nil
}

func (f *fakeSource) setFail(fail bool) {
	f.mu.Lock()
	f.fail = fail
	f.mu.Unlock()
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testHub(source SnapshotSource) *Hub {
	return NewHub(source, testLogger(), Config{
		Interval:     10 * time.Millisecond,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
	})
}

type recorder struct {
	mu      sync.Mutex
	updates []RealTimeMetrics
}

func (r *recorder) record(u RealTimeMetrics) {
	r.mu.Lock()
	r.updates = append(r.updates, u)
	r.mu.Unlock()
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.updates)
}

func (r *recorder) snapshot() []RealTimeMetrics {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RealTimeMetrics(nil), r.updates...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestHub_DeliversOnCadence(t *testing.T) {
	source := &fakeSource{byTenant: map[string]live.Metrics{
		"tenant_a": {ActiveConversations: 7},
	}}
	hub := testHub(source)
	defer hub.Close()

	rec := &recorder{}
	sub, err := hub.Subscribe("tenant_a", rec.record)
	if err != nil {
		t.Fatalf("Subscribe() error: %v", err)
	}
	defer sub.Unsubscribe()

	waitFor(t, func() bool { return rec.count() >= 3 })

	for _, u := range rec.snapshot() {
		if u.ActiveConversations != 7 {
			t.Errorf("update carried %d active conversations, want 7", u.ActiveConversations)
		}
		if u.Degraded {
			t.Error("healthy source must not produce degraded updates")
		}
	}
}

func TestHub_UnsubscribeStopsDeliveries(t *testing.T) {
	source := &fakeSource{byTenant: map[string]live.Metrics{"tenant_a": {}}}
	hub := testHub(source)
	defer hub.Close()

	rec := &recorder{}
	sub, err := hub.Subscribe("tenant_a", rec.record)
	if err != nil {
		t.Fatalf("Subscribe() error: %v", err)
	}

	waitFor(t, func() bool { return rec.count() >= 2 })
	sub.Unsubscribe()
	after := rec.count()

	time.Sleep(100 * time.Millisecond)
	if got := rec.count(); got != after {
		t.Errorf("callback fired %d times after unsubscribe", got-after)
	}

	// Idempotent.
	sub.Unsubscribe()
}

func TestHub_MonotonicGenerations(t *testing.T) {
	source := &fakeSource{byTenant: map[string]live.Metrics{"tenant_a": {}}}
	hub := testHub(source)
	defer hub.Close()

	rec := &recorder{}
	sub, err := hub.Subscribe("tenant_a", rec.record)
	if err != nil {
		t.Fatalf("Subscribe() error: %v", err)
	}
	defer sub.Unsubscribe()

	waitFor(t, func() bool { return rec.count() >= 5 })

	updates := rec.snapshot()
	for i := 1; i < len(updates); i++ {
		if updates[i].Generation <= updates[i-1].Generation {
			t.Fatalf("generation %d followed %d", updates[i].Generation, updates[i-1].Generation)
		}
	}
}

func TestHub_TenantIsolation(t *testing.T) {
	source := &fakeSource{byTenant: map[string]live.Metrics{
		"tenant_a": {ActiveConversations: 1},
		"tenant_b": {ActiveConversations: 2},
	}}
	hub := testHub(source)
	defer hub.Close()

	recA, recB := &recorder{}, &recorder{}
	subA, _ := hub.Subscribe("tenant_a", recA.record)
	defer subA.Unsubscribe()
	subB, _ := hub.Subscribe("tenant_b", recB.record)
	defer subB.Unsubscribe()

	waitFor(t, func() bool { return recA.count() >= 2 && recB.count() >= 2 })

	for _, u := range recA.snapshot() {
		if u.ActiveConversations != 1 {
			t.Errorf("tenant_a subscriber saw %d, want 1", u.ActiveConversations)
		}
	}
	for _, u := range recB.snapshot() {
		if u.ActiveConversations != 2 {
			t.Errorf("tenant_b subscriber saw %d, want 2", u.ActiveConversations)
		}
	}
}

func TestHub_DegradedAfterRetriesExhausted(t *testing.T) {
	source := &fakeSource{byTenant: map[string]live.Metrics{
		"tenant_a": {ActiveConversations: 9},
	}}
	hub := testHub(source)
	defer hub.Close()

	rec := &recorder{}
	sub, err := hub.Subscribe("tenant_a", rec.record)
	if err != nil {
		t.Fatalf("Subscribe() error: %v", err)
	}
	defer sub.Unsubscribe()

	waitFor(t, func() bool { return rec.count() >= 1 })
	source.setFail(true)

	waitFor(t, func() bool {
		for _, u := range rec.snapshot() {
			if u.Degraded {
				return true
			}
		}
		return false
	})

	var degraded *RealTimeMetrics
	for _, u := range rec.snapshot() {
		if u.Degraded {
			degraded = &u
			break
		}
	}
	if degraded.ActiveConversations != 9 {
		t.Errorf("degraded update carried %d, want last known 9", degraded.ActiveConversations)
	}
}

func TestHub_SubscribeAfterClose(t *testing.T) {
	source := &fakeSource{byTenant: map[string]live.Metrics{}}
	hub := testHub(source)
	hub.Close()

	if _, err := hub.Subscribe("tenant_a", func(RealTimeMetrics) {}); err == nil {
		t.Error("expected error subscribing to a closed hub")
	}
}

func TestHub_SubscriberCount(t *testing.T) {
	source := &fakeSource{byTenant: map[string]live.Metrics{"tenant_a": {}}}
	hub := testHub(source)
	defer hub.Close()

	sub, _ := hub.Subscribe("tenant_a", func(RealTimeMetrics) {})
	waitFor(t, func() bool { return hub.SubscriberCount() == 1 })

	sub.Unsubscribe()
	waitFor(t, func() bool { return hub.SubscriberCount() == 0 })
}
