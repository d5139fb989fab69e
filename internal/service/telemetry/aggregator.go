package telemetry

import (
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hostpulse/hostpulse/internal/domain"
)

type bucketKey struct {
	platform string
	start    time.Time
}

type rollupBucket struct {
	count          int64
	coldStartCount int64
	loadSum        float64
	loadMax        float64
	hasLoad        bool
	ttfbs          []float64
}

// rollupAggregator buckets ingested performance logs per platform and span.
// Buckets hold a bounded TTFB reservoir for percentile estimation.
type rollupAggregator struct {
	mu         sync.Mutex
	span       time.Duration
	maxSamples int
	buckets    map[bucketKey]*rollupBucket
	now        func() time.Time
	random     *rand.Rand
}

const defaultRollupSamples = 512

func newRollupAggregator(span time.Duration, maxSamples int, now func() time.Time) *rollupAggregator {
	if span <= 0 {
		span = time.Minute
	}
	if maxSamples <= 0 {
		maxSamples = defaultRollupSamples
	}
	if now == nil {
		now = time.Now
	}
	return &rollupAggregator{
		span:       span,
		maxSamples: maxSamples,
		buckets:    make(map[bucketKey]*rollupBucket),
		now:        now,
		random:     rand.New(rand.NewSource(now().UnixNano())),
	}
}

func (a *rollupAggregator) add(log domain.PerformanceLog) {
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	platform := strings.TrimSpace(log.Platform)
	if platform == "" {
		platform = "Unknown"
	}
	key := bucketKey{
		platform: platform,
		start:    log.CreatedAt.Truncate(a.span),
	}
	bucket := a.buckets[key]
	if bucket == nil {
		bucket = &rollupBucket{}
		a.buckets[key] = bucket
	}
	bucket.count++
	if log.IsColdStart {
		bucket.coldStartCount++
	}
	load := float64(log.LoadTimeMS)
	bucket.loadSum += load
	if !bucket.hasLoad || load > bucket.loadMax {
		bucket.loadMax = load
		bucket.hasLoad = true
	}
	ttfb := float64(log.TTFBMS)
	if len(bucket.ttfbs) < a.maxSamples {
		bucket.ttfbs = append(bucket.ttfbs, ttfb)
	} else {
		idx := a.random.Intn(a.maxSamples)
		bucket.ttfbs[idx] = ttfb
	}
}

func (a *rollupAggregator) flushBefore(cutoff time.Time) []domain.PlatformRollup {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.buckets) == 0 {
		return nil
	}
	rollups := make([]domain.PlatformRollup, 0)
	for key, bucket := range a.buckets {
		if key.start.Add(a.span).After(cutoff) {
			continue
		}
		rollups = append(rollups, bucket.toRollup(key, a.span, a.now()))
		delete(a.buckets, key)
	}
	return rollups
}

func (a *rollupAggregator) flushAll() []domain.PlatformRollup {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.buckets) == 0 {
		return nil
	}
	now := a.now()
	rollups := make([]domain.PlatformRollup, 0, len(a.buckets))
	for key, bucket := range a.buckets {
		rollups = append(rollups, bucket.toRollup(key, a.span, now))
		delete(a.buckets, key)
	}
	return rollups
}

func (b *rollupBucket) toRollup(key bucketKey, span time.Duration, now time.Time) domain.PlatformRollup {
	r := domain.PlatformRollup{
		Platform:       key.platform,
		BucketStart:    key.start,
		BucketSpan:     span,
		Count:          b.count,
		ColdStartCount: b.coldStartCount,
		UpdatedAt:      now,
	}
	if b.count > 0 {
		avg := b.loadSum / float64(b.count)
		r.AvgLoadTimeMS = &avg
	}
	if b.hasLoad {
		max := b.loadMax
		r.MaxLoadTimeMS = &max
	}
	if len(b.ttfbs) > 0 {
		sorted := append([]float64(nil), b.ttfbs...)
		sort.Float64s(sorted)
		p50 := percentile(sorted, 0.50)
		p95 := percentile(sorted, 0.95)
		p99 := percentile(sorted, 0.99)
		r.P50TTFBMS = &p50
		r.P95TTFBMS = &p95
		r.P99TTFBMS = &p99
	}
	return r
}

func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	if p <= 0 {
		return values[0]
	}
	if p >= 1 {
		return values[len(values)-1]
	}
	pos := p * float64(len(values)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return values[lower]
	}
	weight := pos - float64(lower)
	return values[lower]*(1-weight) + values[upper]*weight
}
