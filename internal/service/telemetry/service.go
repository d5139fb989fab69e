// Package telemetry implements performance log ingest, interaction tracking,
// analytics reporting, and the rollup flush loop.
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"log/slog"

	"github.com/hostpulse/hostpulse/internal/domain"
	"github.com/hostpulse/hostpulse/internal/repository"
)

// Validation sentinels. Handlers map these to 400 responses.
var (
	ErrSessionRequired  = errors.New("sessionId is required")
	ErrPlatformRequired = errors.New("platform is required")
	ErrActionRequired   = errors.New("action is required")
)

// Broadcaster fans an ingested measurement out to live subscribers.
type Broadcaster interface {
	Broadcast(platform string, payload []byte)
}

// Options tune the reporting windows and the rollup aggregator.
type Options struct {
	AnalyticsWindow  time.Duration
	ComparisonWindow time.Duration
	TopInteractions  int
	BucketSpan       time.Duration
	FlushEvery       time.Duration
	Now              func() time.Time
}

func (o Options) withDefaults() Options {
	if o.AnalyticsWindow <= 0 {
		o.AnalyticsWindow = 7 * 24 * time.Hour
	}
	if o.ComparisonWindow <= 0 {
		o.ComparisonWindow = 24 * time.Hour
	}
	if o.TopInteractions <= 0 {
		o.TopInteractions = 10
	}
	if o.BucketSpan <= 0 {
		o.BucketSpan = time.Minute
	}
	if o.FlushEvery <= 0 {
		o.FlushEvery = 30 * time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Service handles ingest and reporting for the telemetry collector.
type Service struct {
	perf         repository.PerformanceRepository
	interactions repository.InteractionRepository
	hub          Broadcaster
	agg          *rollupAggregator
	opts         Options
	logger       *slog.Logger
}

// New constructs a Service with an empty rollup aggregator.
func New(perf repository.PerformanceRepository, interactions repository.InteractionRepository, hub Broadcaster, logger *slog.Logger, opts Options) *Service {
	opts = opts.withDefaults()
	if logger != nil {
		logger = logger.With("component", "telemetry")
	}
	return &Service{
		perf:         perf,
		interactions: interactions,
		hub:          hub,
		agg:          newRollupAggregator(opts.BucketSpan, 0, opts.Now),
		opts:         opts,
		logger:       logger,
	}
}

// PerformanceInput is the ingest payload posted by probes and page beacons.
type PerformanceInput struct {
	Platform    string   `json:"platform"`
	LoadTimeMS  int64    `json:"loadTime"`
	TTFBMS      int64    `json:"ttfb"`
	IsColdStart bool     `json:"isColdStart"`
	MemoryMB    *int64   `json:"memoryUsage,omitempty"`
	FPSAverage  *float64 `json:"fpsAverage,omitempty"`
	UserAgent   string   `json:"userAgent"`
	SessionID   string   `json:"sessionId"`
}

// IngestPerformance persists one measurement, folds it into the rollup
// aggregator, and broadcasts it to live subscribers of its platform.
func (s *Service) IngestPerformance(ctx context.Context, input PerformanceInput) (*domain.PerformanceLog, error) {
	input.Platform = strings.TrimSpace(input.Platform)
	input.SessionID = strings.TrimSpace(input.SessionID)
	if input.Platform == "" {
		return nil, ErrPlatformRequired
	}
	if input.SessionID == "" {
		return nil, ErrSessionRequired
	}

	log := &domain.PerformanceLog{
		SessionID:   input.SessionID,
		Platform:    input.Platform,
		LoadTimeMS:  input.LoadTimeMS,
		TTFBMS:      input.TTFBMS,
		IsColdStart: input.IsColdStart,
		MemoryMB:    input.MemoryMB,
		FPSAverage:  input.FPSAverage,
		UserAgent:   input.UserAgent,
	}
	if err := s.perf.InsertPerformanceLog(ctx, log); err != nil {
		return nil, err
	}
	s.agg.add(*log)

	if s.hub != nil {
		if payload, err := json.Marshal(log); err == nil {
			s.hub.Broadcast(log.Platform, payload)
		}
	}
	if s.logger != nil {
		s.logger.Info("performance log ingested",
			"platform", log.Platform,
			"session_id", log.SessionID,
			"load_time_ms", log.LoadTimeMS,
			"ttfb_ms", log.TTFBMS,
			"cold_start", log.IsColdStart,
		)
	}
	return log, nil
}

// InteractionInput is the client action payload.
type InteractionInput struct {
	SessionID string          `json:"sessionId"`
	Action    string          `json:"action"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// RecordInteraction appends one user interaction row.
func (s *Service) RecordInteraction(ctx context.Context, input InteractionInput) (*domain.UserInteraction, error) {
	input.SessionID = strings.TrimSpace(input.SessionID)
	input.Action = strings.TrimSpace(input.Action)
	if input.SessionID == "" {
		return nil, ErrSessionRequired
	}
	if input.Action == "" {
		return nil, ErrActionRequired
	}

	interaction := &domain.UserInteraction{
		SessionID: input.SessionID,
		Action:    input.Action,
		Data:      input.Data,
	}
	if err := s.interactions.InsertInteraction(ctx, interaction); err != nil {
		return nil, err
	}
	return interaction, nil
}

// AnalyticsReport is the long-window per-platform report with the most
// frequent interactions.
type AnalyticsReport struct {
	WindowHours  int                       `json:"window_hours"`
	Platforms    []domain.PlatformSummary  `json:"platforms"`
	Interactions []domain.InteractionCount `json:"interactions"`
}

// Analytics summarizes each platform over the analytics window and reports
// the top interaction actions.
func (s *Service) Analytics(ctx context.Context) (*AnalyticsReport, error) {
	since := s.opts.Now().Add(-s.opts.AnalyticsWindow)
	platforms, err := s.perf.SummarizePlatforms(ctx, since)
	if err != nil {
		return nil, err
	}
	interactions, err := s.interactions.TopInteractions(ctx, since, s.opts.TopInteractions)
	if err != nil {
		return nil, err
	}
	roundSummaries(platforms)
	return &AnalyticsReport{
		WindowHours:  int(s.opts.AnalyticsWindow / time.Hour),
		Platforms:    platforms,
		Interactions: interactions,
	}, nil
}

// ComparisonReport ranks platforms over the short comparison window.
type ComparisonReport struct {
	WindowHours   int                      `json:"window_hours"`
	Platforms     []domain.PlatformSummary `json:"platforms"`
	FastestTTFB   string                   `json:"fastest_ttfb,omitempty"`
	FastestLoad   string                   `json:"fastest_load,omitempty"`
	FewestColdPct string                   `json:"fewest_cold_starts,omitempty"`
}

// Comparison summarizes the comparison window and names the leader per
// metric. Leaders are empty when no platform reported.
func (s *Service) Comparison(ctx context.Context) (*ComparisonReport, error) {
	since := s.opts.Now().Add(-s.opts.ComparisonWindow)
	platforms, err := s.perf.SummarizePlatforms(ctx, since)
	if err != nil {
		return nil, err
	}
	roundSummaries(platforms)

	report := &ComparisonReport{
		WindowHours: int(s.opts.ComparisonWindow / time.Hour),
		Platforms:   platforms,
	}
	var bestTTFB, bestLoad, bestCold float64
	for i, p := range platforms {
		coldPct := float64(p.ColdStartCount) / float64(p.SampleCount)
		if i == 0 || p.AvgTTFBMS < bestTTFB {
			bestTTFB = p.AvgTTFBMS
			report.FastestTTFB = p.Platform
		}
		if i == 0 || p.AvgLoadTimeMS < bestLoad {
			bestLoad = p.AvgLoadTimeMS
			report.FastestLoad = p.Platform
		}
		if i == 0 || coldPct < bestCold {
			bestCold = coldPct
			report.FewestColdPct = p.Platform
		}
	}
	return report, nil
}

// SessionHistory is every row recorded for one session.
type SessionHistory struct {
	SessionID    string                   `json:"session_id"`
	Performance  []domain.PerformanceLog  `json:"performance"`
	Interactions []domain.UserInteraction `json:"interactions"`
}

// Session returns all performance logs and interactions for one session.
func (s *Service) Session(ctx context.Context, sessionID string) (*SessionHistory, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrSessionRequired
	}
	performance, err := s.perf.ListPerformanceLogsBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	interactions, err := s.interactions.ListInteractionsBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &SessionHistory{
		SessionID:    sessionID,
		Performance:  performance,
		Interactions: interactions,
	}, nil
}

// Run drives the periodic rollup flush until ctx is cancelled, then flushes
// every open bucket before returning.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.opts.FlushEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.flush(s.agg.flushAll())
			return
		case <-ticker.C:
			s.flush(s.agg.flushBefore(s.opts.Now()))
		}
	}
}

func (s *Service) flush(rollups []domain.PlatformRollup) {
	if len(rollups) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.perf.UpsertPlatformRollups(ctx, rollups); err != nil {
		if s.logger != nil {
			s.logger.Error("rollup flush failed", "error", err, "buckets", len(rollups))
		}
		return
	}
	if s.logger != nil {
		s.logger.Debug("rollups flushed", "buckets", len(rollups))
	}
}

func roundSummaries(platforms []domain.PlatformSummary) {
	for i := range platforms {
		platforms[i].AvgLoadTimeMS = round2(platforms[i].AvgLoadTimeMS)
		platforms[i].AvgTTFBMS = round2(platforms[i].AvgTTFBMS)
		if platforms[i].AvgMemoryMB != nil {
			v := round2(*platforms[i].AvgMemoryMB)
			platforms[i].AvgMemoryMB = &v
		}
		if platforms[i].AvgFPS != nil {
			v := round2(*platforms[i].AvgFPS)
			platforms[i].AvgFPS = &v
		}
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
