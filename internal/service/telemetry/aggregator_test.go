package telemetry

import (
	"testing"
	"time"

	"github.com/hostpulse/hostpulse/internal/domain"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestAggregatorBucketsByPlatformAndSpan(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	agg := newRollupAggregator(time.Minute, 0, fixedClock(base.Add(5*time.Minute)))

	agg.add(domain.PerformanceLog{Platform: "Railway", LoadTimeMS: 1000, TTFBMS: 100, CreatedAt: base})
	agg.add(domain.PerformanceLog{Platform: "Railway", LoadTimeMS: 3000, TTFBMS: 300, IsColdStart: true, CreatedAt: base.Add(10 * time.Second)})
	agg.add(domain.PerformanceLog{Platform: "Render", LoadTimeMS: 2000, TTFBMS: 200, CreatedAt: base})
	agg.add(domain.PerformanceLog{Platform: "Railway", LoadTimeMS: 500, TTFBMS: 50, CreatedAt: base.Add(90 * time.Second)})

	rollups := agg.flushAll()
	if len(rollups) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(rollups))
	}

	var railway *domain.PlatformRollup
	for i := range rollups {
		if rollups[i].Platform == "Railway" && rollups[i].BucketStart.Equal(base) {
			railway = &rollups[i]
		}
	}
	if railway == nil {
		t.Fatalf("missing Railway bucket at %v", base)
	}
	if railway.Count != 2 || railway.ColdStartCount != 1 {
		t.Fatalf("Railway bucket count=%d cold=%d, want 2/1", railway.Count, railway.ColdStartCount)
	}
	if railway.AvgLoadTimeMS == nil || *railway.AvgLoadTimeMS != 2000 {
		t.Fatalf("Railway avg load %v, want 2000", railway.AvgLoadTimeMS)
	}
	if railway.MaxLoadTimeMS == nil || *railway.MaxLoadTimeMS != 3000 {
		t.Fatalf("Railway max load %v, want 3000", railway.MaxLoadTimeMS)
	}
}

func TestAggregatorFlushBeforeKeepsOpenBucket(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	agg := newRollupAggregator(time.Minute, 0, fixedClock(base))

	agg.add(domain.PerformanceLog{Platform: "Railway", TTFBMS: 100, CreatedAt: base.Add(-2 * time.Minute)})
	agg.add(domain.PerformanceLog{Platform: "Railway", TTFBMS: 100, CreatedAt: base.Add(-10 * time.Second)})

	closed := agg.flushBefore(base)
	if len(closed) != 1 {
		t.Fatalf("expected only the closed bucket, got %d", len(closed))
	}
	if !closed[0].BucketStart.Equal(base.Add(-2 * time.Minute)) {
		t.Fatalf("flushed wrong bucket: %v", closed[0].BucketStart)
	}

	remaining := agg.flushAll()
	if len(remaining) != 1 {
		t.Fatalf("open bucket must survive flushBefore, got %d", len(remaining))
	}
}

func TestAggregatorEmptyPlatformFallsBackToUnknown(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	agg := newRollupAggregator(time.Minute, 0, fixedClock(base))

	agg.add(domain.PerformanceLog{Platform: "  ", TTFBMS: 10, CreatedAt: base})

	rollups := agg.flushAll()
	if len(rollups) != 1 || rollups[0].Platform != "Unknown" {
		t.Fatalf("expected Unknown platform bucket, got %+v", rollups)
	}
}

func TestAggregatorTTFBPercentiles(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	agg := newRollupAggregator(time.Minute, 0, fixedClock(base))

	for i := 1; i <= 100; i++ {
		agg.add(domain.PerformanceLog{Platform: "Railway", TTFBMS: int64(i * 10), CreatedAt: base})
	}

	rollups := agg.flushAll()
	if len(rollups) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(rollups))
	}
	r := rollups[0]
	if r.P50TTFBMS == nil || *r.P50TTFBMS != 505 {
		t.Fatalf("p50 %v, want 505", r.P50TTFBMS)
	}
	if r.P95TTFBMS == nil || *r.P95TTFBMS <= *r.P50TTFBMS {
		t.Fatalf("p95 %v must exceed p50 %v", r.P95TTFBMS, r.P50TTFBMS)
	}
	if r.P99TTFBMS == nil || *r.P99TTFBMS > 1000 {
		t.Fatalf("p99 %v must not exceed max sample", r.P99TTFBMS)
	}
}

func TestAggregatorReservoirStaysBounded(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	agg := newRollupAggregator(time.Minute, 16, fixedClock(base))

	for i := 0; i < 1000; i++ {
		agg.add(domain.PerformanceLog{Platform: "Railway", TTFBMS: int64(i), CreatedAt: base})
	}

	key := bucketKey{platform: "Railway", start: base.Truncate(time.Minute)}
	agg.mu.Lock()
	samples := len(agg.buckets[key].ttfbs)
	count := agg.buckets[key].count
	agg.mu.Unlock()
	if samples != 16 {
		t.Fatalf("reservoir size %d, want cap 16", samples)
	}
	if count != 1000 {
		t.Fatalf("count %d must track every sample", count)
	}
}

func TestPercentileInterpolation(t *testing.T) {
	values := []float64{10, 20, 30, 40}
	if got := percentile(values, 0.5); got != 25 {
		t.Fatalf("p50 of 10..40 = %v, want 25", got)
	}
	if got := percentile(values, 0); got != 10 {
		t.Fatalf("p0 = %v, want first value", got)
	}
	if got := percentile(values, 1); got != 40 {
		t.Fatalf("p100 = %v, want last value", got)
	}
	if got := percentile(nil, 0.5); got != 0 {
		t.Fatalf("empty input = %v, want 0", got)
	}
}
