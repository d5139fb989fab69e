package config

import "time"

// ProbeConfig holds runtime configuration for the synthetic probe.
type ProbeConfig struct {
	TargetURL     string
	Platform      string
	TelemetryURL  string
	Interval      time.Duration
	SampleEvery   time.Duration
	RequestLimit  int
	ForwardResult bool
}

// LoadProbeConfig constructs a ProbeConfig from environment variables.
func LoadProbeConfig() ProbeConfig {
	return ProbeConfig{
		TargetURL:     GetString("PROBE_TARGET_URL", ""),
		Platform:      GetString("PROBE_PLATFORM", ""),
		TelemetryURL:  GetString("PROBE_TELEMETRY_URL", "http://localhost:3001"),
		Interval:      time.Duration(GetInt("PROBE_INTERVAL_SECONDS", 60)) * time.Second,
		SampleEvery:   time.Duration(GetInt("PROBE_SAMPLE_SECONDS", 2)) * time.Second,
		RequestLimit:  GetInt("PROBE_REQUEST_LIMIT", 0),
		ForwardResult: GetBool("PROBE_FORWARD", true),
	}
}
