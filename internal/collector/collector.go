// Package collector measures page-load performance of a target site. A
// Collector performs one instrumented request and derives an immutable
// MetricsRecord; browser-reported metrics that cannot be observed from the
// server side (paint timings, layout shift, first input delay) can be merged
// in afterwards from a beacon payload.
package collector

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptrace"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hostpulse/hostpulse/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	defaultAgent   = "hostpulse-probe/1.0"

	// ColdStartThresholdMS classifies a response as a cold start when TTFB
	// is strictly greater than this value. This is a heuristic: a congested
	// network path produces the same signal as a dormant instance.
	ColdStartThresholdMS = 2000
)

// Collector performs instrumented requests against a target site.
type Collector struct {
	client    *http.Client
	userAgent string
	now       func() time.Time
}

// New creates a Collector. A nil client gets a default with a 30s timeout.
func New(client *http.Client) *Collector {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	} else if client.Timeout == 0 {
		client.Timeout = defaultTimeout
	}
	return &Collector{
		client:    client,
		userAgent: defaultAgent,
		now:       time.Now,
	}
}

// NewSessionID returns a fresh opaque session identifier for correlating
// successive measurements.
func NewSessionID() string {
	return "probe_" + uuid.NewString()
}

// phases captures wall-clock checkpoints reported by httptrace during one
// request.
type phases struct {
	start     time.Time
	dnsStart  time.Time
	dnsDone   time.Time
	connStart time.Time
	connDone  time.Time
	firstByte time.Time
}

// Collect fetches the target once and returns the derived MetricsRecord.
// The record is complete for all server-observable fields; browser-only
// fields stay absent until MergeBeacon supplies them.
func (c *Collector) Collect(ctx context.Context, target, platform, sessionID string) (domain.MetricsRecord, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return domain.MetricsRecord{}, errors.New("collector: target url required")
	}

	var ph phases
	trace := &httptrace.ClientTrace{
		DNSStart:             func(httptrace.DNSStartInfo) { ph.dnsStart = time.Now() },
		DNSDone:              func(httptrace.DNSDoneInfo) { ph.dnsDone = time.Now() },
		ConnectStart:         func(string, string) { ph.connStart = time.Now() },
		ConnectDone:          func(string, string, error) { ph.connDone = time.Now() },
		GotFirstResponseByte: func() { ph.firstByte = time.Now() },
	}

	req, err := http.NewRequestWithContext(httptrace.WithClientTrace(ctx, trace), http.MethodGet, target, nil)
	if err != nil {
		return domain.MetricsRecord{}, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Cache-Control", "no-cache")

	ph.start = time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return domain.MetricsRecord{}, err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return domain.MetricsRecord{}, err
	}
	done := time.Now()

	nav := ph.toNavigation(done)
	isCold := IsColdStart(nav.TTFBMS)

	rec := domain.MetricsRecord{
		Timestamp:       c.now().UTC(),
		Platform:        strings.TrimSpace(platform),
		URL:             target,
		SessionID:       strings.TrimSpace(sessionID),
		Navigation:      nav,
		Device:          domain.DeviceInfo{UserAgent: c.userAgent},
		IsColdStart:     isCold,
		ColdStartTTFB:   nav.TTFBMS,
		ResourceCount:   1,
		TotalLoadTimeMS: done.Sub(ph.start).Milliseconds(),
	}
	return rec, nil
}

func (p phases) toNavigation(done time.Time) domain.NavigationTiming {
	nav := domain.NavigationTiming{}
	if !p.dnsStart.IsZero() && !p.dnsDone.IsZero() {
		nav.DNSMS = clampMS(p.dnsDone.Sub(p.dnsStart))
	}
	if !p.connStart.IsZero() && !p.connDone.IsZero() {
		nav.TCPMS = clampMS(p.connDone.Sub(p.connStart))
	}
	if !p.firstByte.IsZero() {
		nav.TTFBMS = clampMS(p.firstByte.Sub(p.start))
		nav.ResponseMS = clampMS(done.Sub(p.firstByte))
	}
	nav.LoadCompleteMS = clampMS(done.Sub(p.start))
	return nav
}

// IsColdStart classifies a time-to-first-byte. The boundary is strict: a
// TTFB of exactly ColdStartThresholdMS is not a cold start.
func IsColdStart(ttfbMS int64) bool {
	return ttfbMS > ColdStartThresholdMS
}

func clampMS(d time.Duration) int64 {
	ms := d.Milliseconds()
	if ms < 0 {
		return 0
	}
	return ms
}

// Beacon carries browser-reported metrics that a server-side probe cannot
// observe. All fields are optional; nil means the browser never reported
// the entry.
type Beacon struct {
	FirstPaintMS           *float64            `json:"first_paint_ms,omitempty"`
	FirstContentfulPaintMS *float64            `json:"first_contentful_paint_ms,omitempty"`
	LargestContentfulMS    *float64            `json:"largest_contentful_paint_ms,omitempty"`
	FirstInputDelayMS      *float64            `json:"first_input_delay_ms,omitempty"`
	CumulativeLayoutShift  *float64            `json:"cumulative_layout_shift,omitempty"`
	FPSAverage             *float64            `json:"fps_average,omitempty"`
	Memory                 *domain.MemoryInfo  `json:"memory,omitempty"`
	Network                *domain.NetworkInfo `json:"network,omitempty"`
	Device                 *domain.DeviceInfo  `json:"device,omitempty"`
	ResourceCount          int                 `json:"resource_count,omitempty"`
}

// MergeBeacon returns a copy of rec with the beacon's browser-side metrics
// filled in. Fields already present on the record are only replaced when the
// beacon actually reported them.
func MergeBeacon(rec domain.MetricsRecord, b Beacon) domain.MetricsRecord {
	if b.FirstPaintMS != nil {
		rec.FirstPaintMS = b.FirstPaintMS
	}
	if b.FirstContentfulPaintMS != nil {
		rec.FirstContentfulPaintMS = b.FirstContentfulPaintMS
	}
	if b.LargestContentfulMS != nil {
		rec.LargestContentfulMS = b.LargestContentfulMS
	}
	if b.FirstInputDelayMS != nil {
		rec.FirstInputDelayMS = b.FirstInputDelayMS
	}
	if b.CumulativeLayoutShift != nil {
		rec.CumulativeLayoutShift = b.CumulativeLayoutShift
	}
	if b.FPSAverage != nil {
		rec.FPSAverage = b.FPSAverage
	}
	if b.Memory != nil {
		mem := *b.Memory
		rec.Memory = &mem
	}
	if b.Network != nil {
		net := *b.Network
		rec.Network = &net
	}
	if b.Device != nil {
		rec.Device = *b.Device
	}
	if b.ResourceCount > 0 {
		rec.ResourceCount = b.ResourceCount
	}
	return rec
}
