package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hostpulse/hostpulse/internal/collector"
	"github.com/hostpulse/hostpulse/internal/config"
	"github.com/hostpulse/hostpulse/internal/domain"
	"github.com/hostpulse/hostpulse/internal/logger"
	"github.com/hostpulse/hostpulse/internal/score"
)

func main() {
	cfg := config.LoadProbeConfig()
	log := logger.New("probe", slog.LevelInfo)

	if strings.TrimSpace(cfg.TargetURL) == "" {
		log.Error("PROBE_TARGET_URL is required")
		os.Exit(1)
	}
	platform := strings.TrimSpace(cfg.Platform)
	if platform == "" {
		platform = "Unknown"
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var forwarder *collector.Forwarder
	if cfg.ForwardResult {
		fw, err := collector.NewForwarder(cfg.TelemetryURL, nil)
		if err != nil {
			log.Error("forwarder misconfigured", "error", err)
			os.Exit(1)
		}
		forwarder = fw
	}

	var monitor *collector.Monitor
	collected := 0
	sink := func(ctx context.Context, rec domain.MetricsRecord) {
		grade := score.Calculate(rec)
		log.Info("measurement complete",
			"target", rec.URL,
			"platform", rec.Platform,
			"ttfb_ms", rec.Navigation.TTFBMS,
			"load_time_ms", rec.TotalLoadTimeMS,
			"cold_start", rec.IsColdStart,
			"score_total", grade.Total,
			"score_cold_start", grade.ColdStart,
			"score_performance", grade.Performance,
			"score_scalability", grade.Scalability,
			"score_ux", grade.UserExperience,
		)
		if forwarder != nil {
			if err := forwarder.Forward(ctx, rec); err != nil {
				if errors.Is(err, collector.ErrInvalidArgument) {
					log.Error("telemetry rejected measurement", "error", err)
				} else {
					log.Warn("telemetry forward failed", "error", err)
				}
			}
		}
		collected++
		if cfg.RequestLimit > 0 && collected >= cfg.RequestLimit {
			log.Info("request limit reached", "limit", cfg.RequestLimit)
			monitor.Stop()
		}
	}

	monitor = collector.NewMonitor(collector.New(nil), cfg.TargetURL, platform, cfg.Interval, cfg.SampleEvery, sink, log)
	log.Info("probe session", "session_id", monitor.SessionID(), "target", cfg.TargetURL, "platform", platform)
	monitor.Run(ctx)
}
