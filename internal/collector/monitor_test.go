package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/hostpulse/hostpulse/internal/domain"
)

type recordingSink struct {
	mu   sync.Mutex
	recs []domain.MetricsRecord
}

func (rs *recordingSink) add(_ context.Context, rec domain.MetricsRecord) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.recs = append(rs.recs, rec)
}

func (rs *recordingSink) count() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.recs)
}

func TestMonitorCollectsOnInterval(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	sink := &recordingSink{}
	m := NewMonitor(New(srv.Client()), srv.URL, "Local", 20*time.Millisecond, 5*time.Millisecond, sink.add, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	m.Run(ctx)

	if sink.count() < 2 {
		t.Fatalf("expected at least an immediate and one interval collection, got %d", sink.count())
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	for _, rec := range sink.recs {
		if rec.SessionID != m.SessionID() {
			t.Fatalf("record session %q does not match monitor session %q", rec.SessionID, m.SessionID())
		}
		if rec.Platform != "Local" {
			t.Fatalf("unexpected platform %q", rec.Platform)
		}
	}
}

func TestMonitorStopHandle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	sink := &recordingSink{}
	m := NewMonitor(New(srv.Client()), srv.URL, "Local", time.Hour, time.Hour, sink.add, nil)

	done := make(chan struct{})
	go func() {
		m.Run(context.Background())
		close(done)
	}()

	// Stop must terminate the loop without context cancellation, and be
	// safe to call twice.
	m.Stop()
	m.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("monitor did not stop after Stop()")
	}
	if sink.count() != 1 {
		t.Fatalf("expected exactly the immediate collection, got %d", sink.count())
	}
}
