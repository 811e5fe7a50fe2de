package store

import (
	"context"
	"fmt"
	"time"
)

// dailyMetricRepo implements DailyMetricRepository.
type dailyMetricRepo struct {
	pool querier
}

func (r *dailyMetricRepo) Upsert(ctx context.Context, metric DailyMetric) error {
	defer observeDB(ctx, "db.daily_metrics.upsert")()

	// Counters replace in full: a normalized record already carries the
	// whole day's totals, so replaying the same payload converges instead
	// of double-counting.
	const q = `
		INSERT INTO daily_metrics
			(location_id, metric_date, views, searches, actions, calls,
			 direction_requests, website_clicks, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		ON CONFLICT (location_id, metric_date) DO UPDATE SET
			views              = EXCLUDED.views,
			searches           = EXCLUDED.searches,
			actions            = EXCLUDED.actions,
			calls              = EXCLUDED.calls,
			direction_requests = EXCLUDED.direction_requests,
			website_clicks     = EXCLUDED.website_clicks,
			updated_at         = NOW()`

	_, err := r.pool.Exec(ctx, q,
		metric.LocationID, metric.MetricDate, metric.Views, metric.Searches,
		metric.Actions, metric.Calls, metric.DirectionRequests, metric.WebsiteClicks,
	)
	if err != nil {
		return fmt.Errorf("upsert daily metric: %w", err)
	}
	return nil
}

func (r *dailyMetricRepo) ListForLocation(ctx context.Context, locationID int64, from, to time.Time) ([]DailyMetric, error) {
	defer observeDB(ctx, "db.daily_metrics.list")()

	const q = `
		SELECT id, location_id, metric_date, views, searches, actions, calls,
			direction_requests, website_clicks, created_at, updated_at
		FROM daily_metrics
		WHERE location_id = $1 AND metric_date >= $2 AND metric_date <= $3
		ORDER BY metric_date`

	rows, err := r.pool.Query(ctx, q, locationID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list daily metrics: %w", err)
	}
	defer rows.Close()

	var metrics []DailyMetric
	for rows.Next() {
		var m DailyMetric
		if err := rows.Scan(
			&m.ID, &m.LocationID, &m.MetricDate, &m.Views, &m.Searches,
			&m.Actions, &m.Calls, &m.DirectionRequests, &m.WebsiteClicks,
			&m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan daily metric: %w", err)
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}
