package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/pulsehq/analytics-backend/internal/event"
	"github.com/pulsehq/analytics-backend/internal/shared"
	"github.com/pulsehq/analytics-backend/internal/timewindow"
)

// BuildSeries buckets events into a fixed-cardinality series for the window.
// Buckets are half-open, equal width, ascending, and zero-filled: a bucket
// with no data reads 0 for every metric kind, counts and latencies alike.
// The zero-fill policy is asserted by tests; charts stay gap-free and the
// distinction between "no data" and "zero latency" is carried by the count
// series alongside.
func (s *Service) BuildSeries(ctx context.Context, tenantID string, metric Metric, window timewindow.DateRange, agentID string) (*TimeSeriesData, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenant id required", shared.ErrInvalid)
	}
	if !metric.Valid() {
		return nil, fmt.Errorf("%w: unknown metric %q", shared.ErrInvalid, metric)
	}

	gran, err := s.resolver.GranularityFor(window.Period)
	if err != nil {
		return nil, err
	}

	data := &TimeSeriesData{
		Metric: metric,
		Period: window.Period,
		Points: emptyPoints(window.Start, gran),
	}

	switch metric {
	case MetricConversations:
		stamps, err := s.events.ConversationStarts(ctx, tenantID, agentID, window)
		if err != nil {
			return nil, err
		}
		fillCounts(data.Points, stamps, window.Start, gran)

	case MetricMessages:
		stamps, err := s.events.EventTimes(ctx, tenantID, agentID, window, event.KindMessageIn, event.KindMessageOut)
		if err != nil {
			return nil, err
		}
		fillCounts(data.Points, stamps, window.Start, gran)

	case MetricErrors:
		stamps, err := s.events.EventTimes(ctx, tenantID, agentID, window, event.KindError)
		if err != nil {
			return nil, err
		}
		fillCounts(data.Points, stamps, window.Start, gran)

	case MetricResponseTime:
		samples, err := s.events.ResponseSamples(ctx, tenantID, agentID, window)
		if err != nil {
			return nil, err
		}
		fillAverages(data.Points, samples, window.Start, gran)
	}

	return data, nil
}

func emptyPoints(start time.Time, gran timewindow.Granularity) []TimeSeriesPoint {
	points := make([]TimeSeriesPoint, gran.Points)
	for i := range points {
		tick := start.Add(time.Duration(i) * gran.BucketWidth)
		points[i] = TimeSeriesPoint{Label: tick.Format(gran.LabelLayout)}
	}
	return points
}

func fillCounts(points []TimeSeriesPoint, stamps []time.Time, start time.Time, gran timewindow.Granularity) {
	for _, t := range stamps {
		idx := timewindow.BucketIndex(t, start, gran.BucketWidth, len(points))
		points[idx].Value++
	}
}

func fillAverages(points []TimeSeriesPoint, samples []event.ResponseSample, start time.Time, gran timewindow.Granularity) {
	sums := make([]float64, len(points))
	counts := make([]int64, len(points))
	for _, sample := range samples {
		idx := timewindow.BucketIndex(sample.At, start, gran.BucketWidth, len(points))
		sums[idx] += float64(sample.Ms)
		counts[idx]++
	}
	for i := range points {
		if counts[i] > 0 {
			points[i].Value = sums[i] / float64(counts[i])
		}
	}
}
