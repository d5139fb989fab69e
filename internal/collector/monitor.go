package collector

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hostpulse/hostpulse/internal/domain"
)

const (
	defaultInterval    = time.Minute
	defaultSampleEvery = 2 * time.Second

	// frameTick is the target cadence of the tick-rate loop. The achieved
	// rate drops below 1/frameTick when the scheduler is starved, which is
	// what the fps figure is meant to expose.
	frameTick = 16 * time.Millisecond
)

// Sink receives each completed measurement.
type Sink func(context.Context, domain.MetricsRecord)

// Monitor runs Collect on a fixed interval and samples process memory and
// loop tick rate between collections, attaching the latest snapshot to every
// record. It stops on context cancellation or an explicit Stop call.
type Monitor struct {
	collector   *Collector
	target      string
	platform    string
	sessionID   string
	interval    time.Duration
	sampleEvery time.Duration
	sink        Sink
	logger      *slog.Logger

	mu         sync.Mutex
	memory     *domain.MemoryInfo
	fps        *float64
	lastSample time.Time

	ticks  atomic.Int64
	stopCh chan struct{}
	once   sync.Once
}

// NewMonitor constructs a Monitor with sane defaults.
func NewMonitor(c *Collector, target, platform string, interval, sampleEvery time.Duration, sink Sink, logger *slog.Logger) *Monitor {
	if c == nil {
		c = New(nil)
	}
	if interval <= 0 {
		interval = defaultInterval
	}
	if sampleEvery <= 0 {
		sampleEvery = defaultSampleEvery
	}
	if logger != nil {
		logger = logger.With("component", "monitor")
	}
	return &Monitor{
		collector:   c,
		target:      target,
		platform:    platform,
		sessionID:   NewSessionID(),
		interval:    interval,
		sampleEvery: sampleEvery,
		sink:        sink,
		logger:      logger,
		stopCh:      make(chan struct{}),
	}
}

// SessionID returns the session identifier attached to every record.
func (m *Monitor) SessionID() string {
	return m.sessionID
}

// Stop terminates the monitoring loop. Safe to call more than once.
func (m *Monitor) Stop() {
	m.once.Do(func() {
		close(m.stopCh)
	})
}

// Run blocks until the context is cancelled or Stop is called. The first
// collection happens immediately, then on every interval tick.
func (m *Monitor) Run(ctx context.Context) {
	if m.logger != nil {
		m.logger.Info("monitor started", "target", m.target, "interval", m.interval)
	}
	go m.sampleLoop(ctx)
	go m.frameLoop(ctx)

	m.collect(ctx)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logStopped()
			return
		case <-m.stopCh:
			m.logStopped()
			return
		case <-ticker.C:
			m.collect(ctx)
		}
	}
}

func (m *Monitor) logStopped() {
	if m.logger != nil {
		m.logger.Info("monitor stopped", "target", m.target)
	}
}

func (m *Monitor) collect(ctx context.Context) {
	rec, err := m.collector.Collect(ctx, m.target, m.platform, m.sessionID)
	if err != nil {
		if m.logger != nil {
			m.logger.Warn("collection failed", "target", m.target, "error", err)
		}
		return
	}
	m.mu.Lock()
	if m.memory != nil {
		mem := *m.memory
		rec.Memory = &mem
	}
	if m.fps != nil {
		fps := *m.fps
		rec.FPSAverage = &fps
	}
	m.mu.Unlock()

	if m.sink != nil {
		m.sink(ctx, rec)
	}
}

// sampleLoop refreshes the memory snapshot and tick rate between
// collections. Both reflect the probe process, not the measured site.
func (m *Monitor) sampleLoop(ctx context.Context) {
	ticker := time.NewTicker(m.sampleEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.sample()
		}
	}
}

// frameLoop increments the tick counter at a fixed cadence. The achieved
// rate is folded into fps on every sample.
func (m *Monitor) frameLoop(ctx context.Context) {
	ticker := time.NewTicker(frameTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.ticks.Add(1)
		}
	}
}

func (m *Monitor) sample() {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	snap := &domain.MemoryInfo{
		UsedMB:  int64(stats.HeapAlloc / 1024 / 1024),
		TotalMB: int64(stats.HeapSys / 1024 / 1024),
		LimitMB: int64(stats.Sys / 1024 / 1024),
	}
	now := time.Now()
	ticks := m.ticks.Swap(0)

	m.mu.Lock()
	m.memory = snap
	if !m.lastSample.IsZero() {
		if elapsed := now.Sub(m.lastSample).Seconds(); elapsed > 0 {
			fps := float64(ticks) / elapsed
			m.fps = &fps
		}
	}
	m.lastSample = now
	m.mu.Unlock()
}
