package timewindow

import (
	"fmt"
	"time"

	"github.com/pulsehq/analytics-backend/internal/shared"
)

type Period string

const (
	PeriodHour  Period = "1h"
	PeriodDay   Period = "24h"
	PeriodWeek  Period = "7d"
	PeriodMonth Period = "30d"
)

// DateRange is a resolved half-open interval [Start, End). It is resolved
// once per request and passed explicitly to every downstream component so the
// aggregator and the series builder never disagree on "now".
type DateRange struct {
	Start  time.Time
	End    time.Time
	Period Period
}

func (r DateRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Granularity drives the shape of time-series output for a period: bucket
// width, fixed point count, and the label layout for the tick rendered per
// bucket.
type Granularity struct {
	BucketWidth time.Duration
	Points      int
	LabelLayout string
}

type windowSpec struct {
	lookback    time.Duration
	granularity Granularity
}

// The mapping is a table rather than per-call-site switches so adding a
// period is a one-line change.
var windows = map[Period]windowSpec{
	PeriodHour:  {time.Hour, Granularity{BucketWidth: time.Minute, Points: 60, LabelLayout: "15:04"}},
	PeriodDay:   {24 * time.Hour, Granularity{BucketWidth: time.Hour, Points: 24, LabelLayout: "15:00"}},
	PeriodWeek:  {7 * 24 * time.Hour, Granularity{BucketWidth: 24 * time.Hour, Points: 7, LabelLayout: "Jan 2"}},
	PeriodMonth: {30 * 24 * time.Hour, Granularity{BucketWidth: 24 * time.Hour, Points: 30, LabelLayout: "Jan 2"}},
}

type Resolver struct {
	defaultPeriod Period
	now           func() time.Time
}

type Option func(*Resolver)

// WithDefault makes unknown period tokens fall back to p instead of failing.
// Falling back is opt-in; the zero-value resolver surfaces the error.
func WithDefault(p Period) Option {
	return func(r *Resolver) {
		r.defaultPeriod = p
	}
}

// WithClock overrides wall-clock time, used by tests.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve converts a symbolic period token into an absolute [start, end)
// interval ending at wall-clock now.
func (r *Resolver) Resolve(period Period) (DateRange, error) {
	spec, ok := windows[period]
	if !ok {
		if r.defaultPeriod != "" {
			if fallback, ok := windows[r.defaultPeriod]; ok {
				period, spec = r.defaultPeriod, fallback
			} else {
				return DateRange{}, fmt.Errorf("%w: unknown period %q", shared.ErrInvalid, period)
			}
		} else {
			return DateRange{}, fmt.Errorf("%w: unknown period %q", shared.ErrInvalid, period)
		}
	}

	end := r.now().UTC()
	return DateRange{
		Start:  end.Add(-spec.lookback),
		End:    end,
		Period: period,
	}, nil
}

// GranularityFor returns the bucketing configuration for a period.
func (r *Resolver) GranularityFor(period Period) (Granularity, error) {
	spec, ok := windows[period]
	if !ok {
		return Granularity{}, fmt.Errorf("%w: unknown period %q", shared.ErrInvalid, period)
	}
	return spec.granularity, nil
}

// BucketIndex maps a timestamp into its bucket within [start, start+n*width).
// Events landing exactly on the end boundary clamp into the last bucket, and
// anything earlier than start clamps into the first.
func BucketIndex(t, start time.Time, width time.Duration, n int) int {
	idx := int(t.Sub(start) / width)
	if idx < 0 {
		return 0
	}
	if idx >= n {
		return n - 1
	}
	return idx
}
