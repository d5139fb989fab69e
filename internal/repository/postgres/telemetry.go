package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hostpulse/hostpulse/internal/domain"
)

// InsertPerformanceLog appends one measurement row.
func (r *Repository) InsertPerformanceLog(ctx context.Context, log *domain.PerformanceLog) error {
	const query = `INSERT INTO performance_logs
			(session_id, platform, load_time_ms, ttfb_ms, is_cold_start, memory_mb, fps_average, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`
	row := r.pool.QueryRow(ctx, query,
		log.SessionID,
		log.Platform,
		log.LoadTimeMS,
		log.TTFBMS,
		log.IsColdStart,
		log.MemoryMB,
		log.FPSAverage,
		log.UserAgent,
	)
	return row.Scan(&log.ID, &log.CreatedAt)
}

// ListPerformanceLogsBySession returns every measurement for a session,
// newest first, with no time filter.
func (r *Repository) ListPerformanceLogsBySession(ctx context.Context, sessionID string) ([]domain.PerformanceLog, error) {
	const query = `SELECT id, session_id, platform, load_time_ms, ttfb_ms, is_cold_start,
			memory_mb, fps_average, user_agent, created_at
		FROM performance_logs
		WHERE session_id = $1
		ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.PerformanceLog, 0)
	for rows.Next() {
		var l domain.PerformanceLog
		if err := rows.Scan(
			&l.ID,
			&l.SessionID,
			&l.Platform,
			&l.LoadTimeMS,
			&l.TTFBMS,
			&l.IsColdStart,
			&l.MemoryMB,
			&l.FPSAverage,
			&l.UserAgent,
			&l.CreatedAt,
		); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// SummarizePlatforms aggregates measurements per platform since the given
// cutoff: sample count, average load time and TTFB, cold-start count,
// average memory and FPS where reported, and first/last timestamps.
func (r *Repository) SummarizePlatforms(ctx context.Context, since time.Time) ([]domain.PlatformSummary, error) {
	const query = `SELECT platform,
			COUNT(1),
			COALESCE(AVG(load_time_ms), 0),
			COALESCE(AVG(ttfb_ms), 0),
			COUNT(1) FILTER (WHERE is_cold_start),
			AVG(memory_mb),
			AVG(fps_average),
			MIN(created_at),
			MAX(created_at)
		FROM performance_logs
		WHERE created_at >= $1
		GROUP BY platform
		ORDER BY platform`
	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]domain.PlatformSummary, 0)
	for rows.Next() {
		var s domain.PlatformSummary
		if err := rows.Scan(
			&s.Platform,
			&s.SampleCount,
			&s.AvgLoadTimeMS,
			&s.AvgTTFBMS,
			&s.ColdStartCount,
			&s.AvgMemoryMB,
			&s.AvgFPS,
			&s.FirstSeen,
			&s.LastSeen,
		); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// UpsertPlatformRollups writes flushed aggregator buckets, replacing any
// earlier flush of the same bucket.
func (r *Repository) UpsertPlatformRollups(ctx context.Context, rollups []domain.PlatformRollup) error {
	if len(rollups) == 0 {
		return nil
	}
	const query = `INSERT INTO platform_rollups
			(platform, bucket_start, bucket_span_seconds, sample_count, cold_start_count,
			 avg_load_time_ms, max_load_time_ms, p50_ttfb_ms, p95_ttfb_ms, p99_ttfb_ms, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (platform, bucket_start, bucket_span_seconds)
		DO UPDATE SET sample_count = EXCLUDED.sample_count,
			cold_start_count = EXCLUDED.cold_start_count,
			avg_load_time_ms = EXCLUDED.avg_load_time_ms,
			max_load_time_ms = EXCLUDED.max_load_time_ms,
			p50_ttfb_ms = EXCLUDED.p50_ttfb_ms,
			p95_ttfb_ms = EXCLUDED.p95_ttfb_ms,
			p99_ttfb_ms = EXCLUDED.p99_ttfb_ms,
			updated_at = EXCLUDED.updated_at`
	batch := &pgx.Batch{}
	for _, rollup := range rollups {
		batch.Queue(query,
			rollup.Platform,
			rollup.BucketStart,
			int64(rollup.BucketSpan.Seconds()),
			rollup.Count,
			rollup.ColdStartCount,
			rollup.AvgLoadTimeMS,
			rollup.MaxLoadTimeMS,
			rollup.P50TTFBMS,
			rollup.P95TTFBMS,
			rollup.P99TTFBMS,
			rollup.UpdatedAt,
		)
	}
	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range rollups {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// InsertInteraction appends one user interaction row.
func (r *Repository) InsertInteraction(ctx context.Context, interaction *domain.UserInteraction) error {
	const query = `INSERT INTO user_interactions (session_id, action, data)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	row := r.pool.QueryRow(ctx, query, interaction.SessionID, interaction.Action, interaction.Data)
	return row.Scan(&interaction.ID, &interaction.CreatedAt)
}

// ListInteractionsBySession returns every interaction for a session,
// newest first.
func (r *Repository) ListInteractionsBySession(ctx context.Context, sessionID string) ([]domain.UserInteraction, error) {
	const query = `SELECT id, session_id, action, data, created_at
		FROM user_interactions
		WHERE session_id = $1
		ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	interactions := make([]domain.UserInteraction, 0)
	for rows.Next() {
		var i domain.UserInteraction
		if err := rows.Scan(&i.ID, &i.SessionID, &i.Action, &i.Data, &i.CreatedAt); err != nil {
			return nil, err
		}
		interactions = append(interactions, i)
	}
	return interactions, rows.Err()
}

// TopInteractions returns the most frequent actions since the cutoff.
func (r *Repository) TopInteractions(ctx context.Context, since time.Time, limit int) ([]domain.InteractionCount, error) {
	if limit <= 0 {
		limit = 10
	}
	const query = `SELECT action, COUNT(1) AS freq
		FROM user_interactions
		WHERE created_at >= $1
		GROUP BY action
		ORDER BY freq DESC
		LIMIT $2`
	rows, err := r.pool.Query(ctx, query, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make([]domain.InteractionCount, 0)
	for rows.Next() {
		var c domain.InteractionCount
		if err := rows.Scan(&c.Action, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
