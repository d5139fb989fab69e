// Package score rates a page-load measurement for hosting suitability.
// Calculation is a pure total function: every input, including a zero-value
// record, produces a score, and Total always equals the sum of the four
// buckets.
package score

import "github.com/hostpulse/hostpulse/internal/domain"

// Bucket caps. A record that exhibited a cold start can score at most
// coldStartMax in the cold-start bucket; only a warm response earns bucketMax.
const (
	bucketMax    = 25
	coldStartMax = 20
)

// Calculate derives the HostingScore for one MetricsRecord.
func Calculate(rec domain.MetricsRecord) domain.HostingScore {
	s := domain.HostingScore{
		ColdStart:      coldStartScore(rec),
		Performance:    performanceScore(rec.Navigation.TTFBMS),
		Scalability:    scalabilityScore(rec.Memory),
		UserExperience: userExperienceScore(rec.FirstContentfulPaintMS, rec.LargestContentfulMS),
	}
	s.Total = s.ColdStart + s.Performance + s.Scalability + s.UserExperience
	return s
}

func coldStartScore(rec domain.MetricsRecord) int {
	if !rec.IsColdStart {
		return bucketMax
	}
	switch ttfb := rec.ColdStartTTFB; {
	case ttfb < 3000:
		return coldStartMax
	case ttfb < 5000:
		return 15
	case ttfb < 10000:
		return 10
	default:
		return 5
	}
}

func performanceScore(ttfbMS int64) int {
	switch {
	case ttfbMS < 200:
		return 25
	case ttfbMS < 500:
		return 20
	case ttfbMS < 1000:
		return 15
	case ttfbMS < 2000:
		return 10
	default:
		return 5
	}
}

// scalabilityScore rates memory efficiency. A missing snapshot scores the
// bottom rung: "not measured" must not be rewarded as if it were zero.
func scalabilityScore(mem *domain.MemoryInfo) int {
	if mem == nil {
		return 5
	}
	usedMB := mem.UsedMB
	switch {
	case usedMB < 20:
		return 25
	case usedMB < 50:
		return 20
	case usedMB < 100:
		return 15
	case usedMB < 200:
		return 10
	default:
		return 5
	}
}

// userExperienceScore rates paint milestones. Unreported paint entries take
// the bottom rung of their ladder.
func userExperienceScore(fcp, lcp *float64) int {
	score := 0
	switch {
	case fcp == nil:
		score += 2
	case *fcp < 1000:
		score += 12
	case *fcp < 2000:
		score += 8
	case *fcp < 3000:
		score += 5
	default:
		score += 2
	}
	switch {
	case lcp == nil:
		score += 2
	case *lcp < 2000:
		score += 13
	case *lcp < 4000:
		score += 9
	case *lcp < 6000:
		score += 5
	default:
		score += 2
	}
	return score
}
