package domain

import (
	"encoding/json"
	"time"
)

// PerformanceLog is one persisted page-load measurement. Rows are append
// only; the service never updates or deletes them.
type PerformanceLog struct {
	ID          int64     `json:"id"`
	SessionID   string    `json:"session_id"`
	Platform    string    `json:"platform"`
	LoadTimeMS  int64     `json:"load_time_ms"`
	TTFBMS      int64     `json:"ttfb_ms"`
	IsColdStart bool      `json:"is_cold_start"`
	MemoryMB    *int64    `json:"memory_mb,omitempty"`
	FPSAverage  *float64  `json:"fps_average,omitempty"`
	UserAgent   string    `json:"user_agent"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserInteraction is an append-only client action row keyed by session.
// Data is raw JSON so the jsonb column round-trips as an object, not as
// base64 bytes.
type UserInteraction struct {
	ID        int64           `json:"id"`
	SessionID string          `json:"session_id"`
	Action    string          `json:"action"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// PlatformSummary aggregates performance logs for one platform inside a
// time window.
type PlatformSummary struct {
	Platform       string    `json:"platform"`
	SampleCount    int64     `json:"sample_count"`
	AvgLoadTimeMS  float64   `json:"avg_load_time_ms"`
	AvgTTFBMS      float64   `json:"avg_ttfb_ms"`
	ColdStartCount int64     `json:"cold_start_count"`
	AvgMemoryMB    *float64  `json:"avg_memory_mb,omitempty"`
	AvgFPS         *float64  `json:"avg_fps,omitempty"`
	FirstSeen      time.Time `json:"first_seen"`
	LastSeen       time.Time `json:"last_seen"`
}

// InteractionCount is one row of the top-N interaction frequency report.
type InteractionCount struct {
	Action string `json:"action"`
	Count  int64  `json:"count"`
}

// PlatformRollup stores bucketed ingest statistics flushed by the in-memory
// aggregator.
type PlatformRollup struct {
	Platform       string        `json:"platform"`
	BucketStart    time.Time     `json:"bucket_start"`
	BucketSpan     time.Duration `json:"bucket_span"`
	Count          int64         `json:"count"`
	ColdStartCount int64         `json:"cold_start_count"`
	AvgLoadTimeMS  *float64      `json:"avg_load_time_ms,omitempty"`
	MaxLoadTimeMS  *float64      `json:"max_load_time_ms,omitempty"`
	P50TTFBMS      *float64      `json:"p50_ttfb_ms,omitempty"`
	P95TTFBMS      *float64      `json:"p95_ttfb_ms,omitempty"`
	P99TTFBMS      *float64      `json:"p99_ttfb_ms,omitempty"`
	UpdatedAt      time.Time     `json:"updated_at"`
}
