package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hostpulse/hostpulse/internal/service/telemetry"
	"github.com/hostpulse/hostpulse/internal/ws"
)

const (
	rateWindowRealtime = 30 * time.Second
	rateLimitIngest    = 600
	rateLimitReports   = 120
	rateLimitWebsocket = 30
)

// TelemetryRouter wires the collector endpoints to the telemetry service.
type TelemetryRouter struct {
	base
	mux      *http.ServeMux
	svc      *telemetry.Service
	hub      *ws.Hub
	upgrader websocket.Upgrader
	dbHealth func(context.Context) error
}

// NewTelemetryRouter assembles the collector routes.
func NewTelemetryRouter(logger *slog.Logger, svc *telemetry.Service, hub *ws.Hub, limiter RateLimiter, dbHealth func(context.Context) error) *TelemetryRouter {
	r := &TelemetryRouter{
		base: base{
			logger:  logger,
			limiter: limiter,
			metrics: newMetricsSet("telemetry"),
		},
		mux: http.NewServeMux(),
		svc: svc,
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		dbHealth: dbHealth,
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	r.register()
	return r
}

// ServeHTTP delegates to underlying mux.
func (r *TelemetryRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *TelemetryRouter) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *TelemetryRouter) register() {
	r.mux.HandleFunc("/api/performance", r.audit("/api/performance", r.withRateLimit("/api/performance", rateLimitIngest, rateWindowDefault, r.handlePerformance)))
	r.mux.HandleFunc("/api/interaction", r.audit("/api/interaction", r.withRateLimit("/api/interaction", rateLimitIngest, rateWindowDefault, r.handleInteraction)))
	r.mux.HandleFunc("/api/analytics", r.audit("/api/analytics", r.withRateLimit("/api/analytics", rateLimitReports, rateWindowDefault, r.handleAnalytics)))
	r.mux.HandleFunc("/api/comparison", r.audit("/api/comparison", r.withRateLimit("/api/comparison", rateLimitReports, rateWindowDefault, r.handleComparison)))
	r.mux.HandleFunc("/api/session/", r.audit("/api/session", r.withRateLimit("/api/session", rateLimitReports, rateWindowDefault, r.handleSession)))
	r.mux.HandleFunc("/ws/metrics", r.audit("/ws/metrics", r.withRateLimit("/ws/metrics", rateLimitWebsocket, rateWindowRealtime, r.handleMetricsWS)))
	r.mux.HandleFunc("/health", r.audit("/health", r.handleHealth))
	r.mux.Handle("/metrics", promhttp.Handler())
}

func (r *TelemetryRouter) handlePerformance(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var payload telemetry.PerformanceInput
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	log, err := r.svc.IngestPerformance(req.Context(), payload)
	if err != nil {
		if isTelemetryValidation(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		r.logger.Error("performance ingest failed", "error", err, "session_id", payload.SessionID)
		writeError(w, http.StatusInternalServerError, "Failed to log performance data")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"id":      log.ID,
	})
}

func (r *TelemetryRouter) handleInteraction(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var payload telemetry.InteractionInput
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	interaction, err := r.svc.RecordInteraction(req.Context(), payload)
	if err != nil {
		if isTelemetryValidation(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		r.logger.Error("interaction ingest failed", "error", err, "session_id", payload.SessionID)
		writeError(w, http.StatusInternalServerError, "Failed to log interaction")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"id":      interaction.ID,
	})
}

func (r *TelemetryRouter) handleAnalytics(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	report, err := r.svc.Analytics(req.Context())
	if err != nil {
		r.logger.Error("analytics query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch analytics")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"analytics": report,
	})
}

func (r *TelemetryRouter) handleComparison(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	report, err := r.svc.Comparison(req.Context())
	if err != nil {
		r.logger.Error("comparison query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch comparison")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"comparison": report,
	})
}

func (r *TelemetryRouter) handleSession(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	sessionID := strings.TrimPrefix(req.URL.Path, "/api/session/")
	if sessionID == "" || strings.Contains(sessionID, "/") {
		notFound(w)
		return
	}
	history, err := r.svc.Session(req.Context(), sessionID)
	if err != nil {
		if isTelemetryValidation(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		r.logger.Error("session query failed", "error", err, "session_id", sessionID)
		writeError(w, http.StatusInternalServerError, "Failed to fetch session data")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"session": history,
	})
}

func (r *TelemetryRouter) handleMetricsWS(w http.ResponseWriter, req *http.Request) {
	platform := strings.TrimSpace(req.URL.Query().Get("platform"))
	if platform == "" {
		writeError(w, http.StatusBadRequest, "platform query parameter required")
		return
	}
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	client := ws.NewClient(conn, r.logger)
	r.hub.Register(platform, client)
	go func() {
		defer func() {
			r.hub.Unregister(platform, client)
			client.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

func (r *TelemetryRouter) handleHealth(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeHealth(w, req, r.dbHealth, r.logger)
}

func isTelemetryValidation(err error) bool {
	return errors.Is(err, telemetry.ErrSessionRequired) ||
		errors.Is(err, telemetry.ErrPlatformRequired) ||
		errors.Is(err, telemetry.ErrActionRequired)
}
