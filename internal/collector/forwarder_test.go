package collector

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hostpulse/hostpulse/internal/domain"
)

func probeRecord() domain.MetricsRecord {
	fps := 58.3
	rec := domain.MetricsRecord{
		Platform:        "Render",
		SessionID:       "probe_abc",
		IsColdStart:     true,
		ColdStartTTFB:   2400,
		TotalLoadTimeMS: 3100,
		Device:          domain.DeviceInfo{UserAgent: "hostpulse-probe/1.0"},
		Memory:          &domain.MemoryInfo{UsedMB: 18},
		FPSAverage:      &fps,
	}
	rec.Navigation.TTFBMS = 2400
	return rec
}

func TestForwardPostsPerformancePayload(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/performance" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	f, err := NewForwarder(srv.URL, srv.Client())
	if err != nil {
		t.Fatalf("new forwarder: %v", err)
	}
	if err := f.Forward(context.Background(), probeRecord()); err != nil {
		t.Fatalf("forward failed: %v", err)
	}

	if got["platform"] != "Render" || got["sessionId"] != "probe_abc" {
		t.Fatalf("labels missing from payload: %v", got)
	}
	if got["isColdStart"] != true {
		t.Fatalf("cold start flag missing: %v", got)
	}
	if got["ttfb"].(float64) != 2400 {
		t.Fatalf("ttfb missing: %v", got)
	}
	if got["memoryUsage"].(float64) != 18 {
		t.Fatalf("memory missing: %v", got)
	}
	if got["fpsAverage"].(float64) != 58.3 {
		t.Fatalf("fps missing: %v", got)
	}
}

func TestForwardMapsBadRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"success":false,"error":"platform is required"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	f, err := NewForwarder(srv.URL, srv.Client())
	if err != nil {
		t.Fatalf("new forwarder: %v", err)
	}
	err = f.Forward(context.Background(), probeRecord())
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestNewForwarderRequiresBaseURL(t *testing.T) {
	if _, err := NewForwarder("   ", nil); err == nil {
		t.Fatalf("expected error for empty base url")
	}
}
