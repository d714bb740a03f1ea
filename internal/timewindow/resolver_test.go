package timewindow

import (
	"errors"
	"testing"
	"time"

	"github.com/pulsehq/analytics-backend/internal/shared"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestResolver_Resolve(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	r := NewResolver(WithClock(fixedClock(now)))

	tests := []struct {
		period   Period
		lookback time.Duration
	}{
		{PeriodHour, time.Hour},
		{PeriodDay, 24 * time.Hour},
		{PeriodWeek, 7 * 24 * time.Hour},
		{PeriodMonth, 30 * 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			rng, err := r.Resolve(tt.period)
			if err != nil {
				t.Fatalf("Resolve() error: %v", err)
			}
			if !rng.End.After(rng.Start) {
				t.Error("end must be after start")
			}
			if rng.Duration() != tt.lookback {
				t.Errorf("interval = %v, want %v", rng.Duration(), tt.lookback)
			}
			if !rng.End.Equal(now) {
				t.Errorf("end = %v, want %v", rng.End, now)
			}
			if rng.Period != tt.period {
				t.Errorf("period = %s, want %s", rng.Period, tt.period)
			}
		})
	}
}

func TestResolver_UnknownPeriod(t *testing.T) {
	r := NewResolver()
	_, err := r.Resolve("90d")
	if !errors.Is(err, shared.ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestResolver_ConfiguredDefault(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	r := NewResolver(WithDefault(PeriodWeek), WithClock(fixedClock(now)))

	rng, err := r.Resolve("bogus")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if rng.Period != PeriodWeek {
		t.Errorf("expected fallback to 7d, got %s", rng.Period)
	}
	if rng.Duration() != 7*24*time.Hour {
		t.Errorf("interval = %v, want 168h", rng.Duration())
	}
}

func TestResolver_GranularityFor(t *testing.T) {
	r := NewResolver()

	tests := []struct {
		period Period
		width  time.Duration
		points int
	}{
		{PeriodHour, time.Minute, 60},
		{PeriodDay, time.Hour, 24},
		{PeriodWeek, 24 * time.Hour, 7},
		{PeriodMonth, 24 * time.Hour, 30},
	}

	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			g, err := r.GranularityFor(tt.period)
			if err != nil {
				t.Fatalf("GranularityFor() error: %v", err)
			}
			if g.BucketWidth != tt.width {
				t.Errorf("width = %v, want %v", g.BucketWidth, tt.width)
			}
			if g.Points != tt.points {
				t.Errorf("points = %d, want %d", g.Points, tt.points)
			}
			if g.BucketWidth*time.Duration(g.Points) != windows[tt.period].lookback {
				t.Error("points * width must cover the full lookback")
			}
		})
	}

	if _, err := r.GranularityFor("bogus"); !errors.Is(err, shared.ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestBucketIndex(t *testing.T) {
	start := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	width := time.Hour
	n := 24

	tests := []struct {
		name string
		t    time.Time
		want int
	}{
		{"first instant", start, 0},
		{"mid first bucket", start.Add(30 * time.Minute), 0},
		{"second bucket", start.Add(time.Hour), 1},
		{"last bucket", start.Add(23*time.Hour + 59*time.Minute), 23},
		{"end boundary clamps into last", start.Add(24 * time.Hour), 23},
		{"past end clamps into last", start.Add(48 * time.Hour), 23},
		{"before start clamps into first", start.Add(-time.Hour), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BucketIndex(tt.t, start, width, n); got != tt.want {
				t.Errorf("BucketIndex() = %d, want %d", got, tt.want)
			}
		})
	}
}
