package store

import (
	"context"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestReviewUpsertStatementMergesMissingFields(t *testing.T) {
	// Every nullable column must merge through COALESCE so an absent field
	// in a later payload never clears a stored value; rating replaces.
	pattern := regexp.MustCompile(`(?s)` +
		`author_name\s*= COALESCE\(EXCLUDED\.author_name, reviews\.author_name\).*` +
		`rating\s*= EXCLUDED\.rating.*` +
		`comment\s*= COALESCE\(EXCLUDED\.comment, reviews\.comment\).*` +
		`review_date\s*= COALESCE\(EXCLUDED\.review_date, reviews\.review_date\).*` +
		`response_text\s*= COALESCE\(EXCLUDED\.response_text, reviews\.response_text\).*` +
		`response_date\s*= COALESCE\(EXCLUDED\.response_date, reviews\.response_date\)`)

	pool := &mockPool{
		t: t,
		queries: []queryExpectation{{
			expect: pattern,
			args:   []any{int64(1), "r1", nil, 4, nil, nil, nil, nil},
			err:    pgx.ErrNoRows,
		}},
	}

	repo := &reviewRepo{pool: pool}
	_, err := repo.Upsert(context.Background(), Review{LocationID: 1, GoogleReviewID: "r1", Rating: 4})
	if err == nil {
		t.Fatal("expected error from fake row")
	}
	pool.assertDone()
}

func TestDailyMetricUpsertStatementReplacesCounters(t *testing.T) {
	// Counters replace in full; a normalized record carries the whole day's
	// totals, so replaying a payload converges instead of accumulating.
	pattern := regexp.MustCompile(`(?s)` +
		`views\s*= EXCLUDED\.views.*` +
		`searches\s*= EXCLUDED\.searches.*` +
		`actions\s*= EXCLUDED\.actions.*` +
		`calls\s*= EXCLUDED\.calls.*` +
		`direction_requests\s*= EXCLUDED\.direction_requests.*` +
		`website_clicks\s*= EXCLUDED\.website_clicks`)

	pool := &mockPool{
		t: t,
		execs: []execExpectation{{
			expect: pattern,
			tag:    "INSERT 0 1",
		}},
	}

	repo := &dailyMetricRepo{pool: pool}
	if err := repo.Upsert(context.Background(), DailyMetric{LocationID: 1}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	pool.assertDone()
}
