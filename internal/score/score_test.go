package score

import (
	"math/rand"
	"testing"

	"github.com/hostpulse/hostpulse/internal/domain"
)

func f64(v float64) *float64 { return &v }

func TestTotalIsSumOfBuckets(t *testing.T) {
	// Deterministic fuzz over the input space: the total must always equal
	// the bucket sum and stay within [0,100].
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 5000; i++ {
		rec := domain.MetricsRecord{
			IsColdStart:   rng.Intn(2) == 0,
			ColdStartTTFB: rng.Int63n(20000),
		}
		rec.Navigation.TTFBMS = rng.Int63n(10000)
		if rng.Intn(2) == 0 {
			rec.Memory = &domain.MemoryInfo{UsedMB: rng.Int63n(500)}
		}
		if rng.Intn(2) == 0 {
			rec.FirstContentfulPaintMS = f64(rng.Float64() * 8000)
		}
		if rng.Intn(2) == 0 {
			rec.LargestContentfulMS = f64(rng.Float64() * 10000)
		}

		s := Calculate(rec)
		sum := s.ColdStart + s.Performance + s.Scalability + s.UserExperience
		if s.Total != sum {
			t.Fatalf("total %d != bucket sum %d for record %+v", s.Total, sum, rec)
		}
		if s.Total < 0 || s.Total > 100 {
			t.Fatalf("total %d out of range for record %+v", s.Total, rec)
		}
		for _, bucket := range []int{s.ColdStart, s.Performance, s.Scalability, s.UserExperience} {
			if bucket < 0 || bucket > 25 {
				t.Fatalf("bucket out of range in %+v", s)
			}
		}
	}
}

func TestEmptyRecordScoresMidRange(t *testing.T) {
	s := Calculate(domain.MetricsRecord{})
	if s.Total != s.ColdStart+s.Performance+s.Scalability+s.UserExperience {
		t.Fatalf("total %d is not the bucket sum", s.Total)
	}
	// No cold start and a zero TTFB max out their buckets; unmeasured
	// memory and paint metrics bottom out theirs.
	if s.ColdStart != 25 || s.Performance != 25 {
		t.Fatalf("unexpected cold start/performance buckets: %+v", s)
	}
	if s.Scalability != 5 || s.UserExperience != 4 {
		t.Fatalf("unmeasured optional metrics should take the bottom rung: %+v", s)
	}
}

func TestPerformanceLadderEdges(t *testing.T) {
	cases := []struct {
		ttfb int64
		want int
	}{
		{199, 25},
		{200, 20},
		{499, 20},
		{500, 15},
		{999, 15},
		{1000, 10},
		{1999, 10},
		{2000, 5},
		{9000, 5},
	}
	for _, tc := range cases {
		rec := domain.MetricsRecord{}
		rec.Navigation.TTFBMS = tc.ttfb
		if got := Calculate(rec).Performance; got != tc.want {
			t.Errorf("ttfb %dms: performance score %d, want %d", tc.ttfb, got, tc.want)
		}
	}
}

func TestColdStartLadder(t *testing.T) {
	warm := Calculate(domain.MetricsRecord{IsColdStart: false})
	if warm.ColdStart != 25 {
		t.Fatalf("warm record should score 25, got %d", warm.ColdStart)
	}

	cases := []struct {
		ttfb int64
		want int
	}{
		{2500, 20},
		{2999, 20},
		{3000, 15},
		{4999, 15},
		{5000, 10},
		{9999, 10},
		{10000, 5},
	}
	for _, tc := range cases {
		s := Calculate(domain.MetricsRecord{IsColdStart: true, ColdStartTTFB: tc.ttfb})
		if s.ColdStart != tc.want {
			t.Errorf("cold start ttfb %dms: score %d, want %d", tc.ttfb, s.ColdStart, tc.want)
		}
	}
}

func TestScalabilityLadder(t *testing.T) {
	cases := []struct {
		usedMB int64
		want   int
	}{
		{19, 25},
		{20, 20},
		{49, 20},
		{50, 15},
		{99, 15},
		{100, 10},
		{199, 10},
		{200, 5},
	}
	for _, tc := range cases {
		rec := domain.MetricsRecord{Memory: &domain.MemoryInfo{UsedMB: tc.usedMB}}
		if got := Calculate(rec).Scalability; got != tc.want {
			t.Errorf("used %dMB: scalability score %d, want %d", tc.usedMB, got, tc.want)
		}
	}
}

func TestUserExperienceLadder(t *testing.T) {
	rec := domain.MetricsRecord{
		FirstContentfulPaintMS: f64(900),
		LargestContentfulMS:    f64(1900),
	}
	if got := Calculate(rec).UserExperience; got != 25 {
		t.Fatalf("fast paints should score 25, got %d", got)
	}

	rec = domain.MetricsRecord{
		FirstContentfulPaintMS: f64(3500),
		LargestContentfulMS:    f64(7000),
	}
	if got := Calculate(rec).UserExperience; got != 4 {
		t.Fatalf("slow paints should score 4, got %d", got)
	}

	// Measured zero is a fast paint, not an absent one.
	rec = domain.MetricsRecord{
		FirstContentfulPaintMS: f64(0),
		LargestContentfulMS:    f64(0),
	}
	if got := Calculate(rec).UserExperience; got != 25 {
		t.Fatalf("measured-zero paints should score 25, got %d", got)
	}
}

func TestCalculateIsDeterministic(t *testing.T) {
	rec := domain.MetricsRecord{
		IsColdStart:            true,
		ColdStartTTFB:          4200,
		Memory:                 &domain.MemoryInfo{UsedMB: 64},
		FirstContentfulPaintMS: f64(1500),
		LargestContentfulMS:    f64(3100),
	}
	rec.Navigation.TTFBMS = 640
	first := Calculate(rec)
	for i := 0; i < 100; i++ {
		if got := Calculate(rec); got != first {
			t.Fatalf("score changed between calls: %+v vs %+v", got, first)
		}
	}
}
