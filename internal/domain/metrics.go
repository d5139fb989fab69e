package domain

import "time"

// NavigationTiming breaks a page load into its network and document phases.
// All durations are non-negative milliseconds.
type NavigationTiming struct {
	DNSMS           int64 `json:"dns_ms"`
	TCPMS           int64 `json:"tcp_ms"`
	TTFBMS          int64 `json:"ttfb_ms"`
	ResponseMS      int64 `json:"response_ms"`
	DOMProcessingMS int64 `json:"dom_processing_ms"`
	LoadCompleteMS  int64 `json:"load_complete_ms"`
}

// MemoryInfo is a heap snapshot in megabytes.
type MemoryInfo struct {
	UsedMB  int64 `json:"used_mb"`
	TotalMB int64 `json:"total_mb"`
	LimitMB int64 `json:"limit_mb"`
}

// NetworkInfo describes the client's connection as reported by the browser.
type NetworkInfo struct {
	EffectiveType string  `json:"effective_type"`
	DownlinkMbps  float64 `json:"downlink_mbps"`
	RTTMS         int64   `json:"rtt_ms"`
	SaveData      bool    `json:"save_data"`
}

// DeviceInfo identifies the measuring client.
type DeviceInfo struct {
	UserAgent      string `json:"user_agent"`
	ViewportWidth  int    `json:"viewport_width"`
	ViewportHeight int    `json:"viewport_height"`
	ScreenWidth    int    `json:"screen_width"`
	ScreenHeight   int    `json:"screen_height"`
}

// MetricsRecord is one page-load measurement. It is built once per load and
// never mutated afterwards. Browser-only metrics (paint timings, first input
// delay, layout shift) are pointers: nil means "not measured", which is
// distinct from a measured zero.
type MetricsRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Platform  string    `json:"platform"`
	URL       string    `json:"url"`
	SessionID string    `json:"session_id"`

	Navigation NavigationTiming `json:"navigation"`

	FirstPaintMS           *float64 `json:"first_paint_ms,omitempty"`
	FirstContentfulPaintMS *float64 `json:"first_contentful_paint_ms,omitempty"`
	LargestContentfulMS    *float64 `json:"largest_contentful_paint_ms,omitempty"`
	FirstInputDelayMS      *float64 `json:"first_input_delay_ms,omitempty"`
	CumulativeLayoutShift  *float64 `json:"cumulative_layout_shift,omitempty"`

	Memory  *MemoryInfo  `json:"memory,omitempty"`
	Network *NetworkInfo `json:"network,omitempty"`
	Device  DeviceInfo   `json:"device"`

	// FPSAverage is the client's rendering (or sampling-loop) rate. Probes
	// report their achieved tick rate; browsers report frames per second.
	FPSAverage *float64 `json:"fps_average,omitempty"`

	// Cold start classification is a heuristic: TTFB strictly above the
	// threshold on the initial request. It cannot distinguish a genuinely
	// dormant instance from a slow network path.
	IsColdStart   bool  `json:"is_cold_start"`
	ColdStartTTFB int64 `json:"cold_start_ttfb_ms"`

	ResourceCount   int   `json:"resource_count"`
	TotalLoadTimeMS int64 `json:"total_load_time_ms"`
}

// HostingScore rates a MetricsRecord for hosting suitability. Each bucket is
// within [0,25] and Total is always the sum of the four buckets.
type HostingScore struct {
	ColdStart      int `json:"cold_start"`
	Performance    int `json:"performance"`
	Scalability    int `json:"scalability"`
	UserExperience int `json:"user_experience"`
	Total          int `json:"total"`
}
