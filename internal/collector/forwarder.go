package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hostpulse/hostpulse/internal/domain"
)

const (
	forwardTimeout   = 5 * time.Second
	maxErrorBodySize = 4096
)

// ErrInvalidArgument indicates the telemetry API rejected the payload.
var ErrInvalidArgument = errors.New("telemetry forward invalid argument")

// Forwarder ships measurements to the telemetry API's performance endpoint.
type Forwarder struct {
	baseURL string
	client  *http.Client
}

// NewForwarder creates a Forwarder for the given telemetry API base URL.
func NewForwarder(baseURL string, client *http.Client) (*Forwarder, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errors.New("telemetry forward base url required")
	}
	if client == nil {
		client = &http.Client{Timeout: forwardTimeout}
	} else if client.Timeout == 0 {
		client.Timeout = forwardTimeout
	}
	return &Forwarder{baseURL: trimmed, client: client}, nil
}

// Forward posts one measurement. Errors are terminal; the probe does not
// retry, matching the service's no-retry policy.
func (f *Forwarder) Forward(ctx context.Context, rec domain.MetricsRecord) error {
	if f == nil {
		return errors.New("telemetry forwarder not initialised")
	}
	payload := map[string]any{
		"platform":    rec.Platform,
		"loadTime":    rec.TotalLoadTimeMS,
		"ttfb":        rec.Navigation.TTFBMS,
		"isColdStart": rec.IsColdStart,
		"userAgent":   rec.Device.UserAgent,
		"sessionId":   rec.SessionID,
	}
	if rec.Memory != nil {
		payload["memoryUsage"] = rec.Memory.UsedMB
	}
	if rec.FPSAverage != nil {
		payload["fpsAverage"] = *rec.FPSAverage
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal performance payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+"/api/performance", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build performance request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("send performance request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return f.errorForStatus(resp)
	}
	return nil
}

func (f *Forwarder) errorForStatus(resp *http.Response) error {
	limited := io.LimitReader(resp.Body, maxErrorBodySize)
	buf, _ := io.ReadAll(limited)
	summary := strings.TrimSpace(string(buf))
	if summary == "" {
		summary = resp.Status
	}
	if resp.StatusCode == http.StatusBadRequest {
		return fmt.Errorf("%w: %s", ErrInvalidArgument, summary)
	}
	return fmt.Errorf("performance forward failed: %s", summary)
}
