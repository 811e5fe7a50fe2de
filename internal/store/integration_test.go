//go:build integration

package store

// These tests exercise the real upsert SQL against a disposable database:
//
//	TEST_DATABASE_URL=postgres://... go test -tags integration ./internal/store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func setupIntegration(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := ApplyMigrations(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE users CASCADE`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return New(pool)
}

func seedLocation(t *testing.T, st *Store) (*GoogleAccount, *Location) {
	t.Helper()
	ctx := context.Background()

	user, err := st.Users.UpsertOAuthUser(ctx, "sub-"+t.Name(), "user@example.com")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	acct, err := st.GoogleAccounts.Upsert(ctx, GoogleAccount{
		UserID:          user.ID,
		GoogleAccountID: "g-1",
		Email:           "user@example.com",
		AccessToken:     "tok",
		RefreshToken:    "refresh-1",
	})
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	loc, err := st.Locations.Upsert(ctx, Location{
		GoogleAccountID: acct.ID,
		LocationID:      "accounts/1/locations/2",
		Name:            "Cafe Central",
	})
	if err != nil {
		t.Fatalf("seed location: %v", err)
	}
	return acct, loc
}

func TestIntegrationReviewUpsertMergeMissing(t *testing.T) {
	st := setupIntegration(t)
	ctx := context.Background()
	_, loc := seedLocation(t, st)

	response := "thanks!"
	when := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	first, err := st.Reviews.Upsert(ctx, Review{
		LocationID:     loc.ID,
		GoogleReviewID: "r1",
		Rating:         5,
		ResponseText:   &response,
		ResponseDate:   &when,
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	// A later payload without the owner response must not clear it.
	second, err := st.Reviews.Upsert(ctx, Review{
		LocationID:     loc.ID,
		GoogleReviewID: "r1",
		Rating:         4,
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("upsert created a new row: %d vs %d", second.ID, first.ID)
	}
	if second.Rating != 4 {
		t.Errorf("rating = %d, want 4", second.Rating)
	}
	if second.ResponseText == nil || *second.ResponseText != "thanks!" {
		t.Errorf("response text cleared: %v", second.ResponseText)
	}
	if second.ResponseDate == nil {
		t.Error("response date cleared")
	}
}

func TestIntegrationRefreshTokenGuard(t *testing.T) {
	st := setupIntegration(t)
	ctx := context.Background()
	acct, _ := seedLocation(t, st)

	// Re-linking without a refresh token (repeat consent) keeps the stored one.
	relinked, err := st.GoogleAccounts.Upsert(ctx, GoogleAccount{
		UserID:          acct.UserID,
		GoogleAccountID: acct.GoogleAccountID,
		Email:           acct.Email,
		AccessToken:     "tok-2",
		RefreshToken:    "",
	})
	if err != nil {
		t.Fatalf("relink upsert: %v", err)
	}
	if relinked.RefreshToken != "refresh-1" {
		t.Errorf("refresh token after relink = %q, want refresh-1", relinked.RefreshToken)
	}

	// A refresh that did not rotate passes the empty string through.
	if err := st.GoogleAccounts.UpdateTokens(ctx, acct.ID, "tok-3", "", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("update tokens: %v", err)
	}
	accounts, err := st.GoogleAccounts.ListByUser(ctx, acct.UserID)
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	if len(accounts) != 1 || accounts[0].RefreshToken != "refresh-1" {
		t.Errorf("refresh token after empty update: %+v", accounts)
	}

	// A rotated refresh token replaces the stored one.
	if err := st.GoogleAccounts.UpdateTokens(ctx, acct.ID, "tok-4", "refresh-2", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("update tokens: %v", err)
	}
	accounts, err = st.GoogleAccounts.ListByUser(ctx, acct.UserID)
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	if len(accounts) != 1 || accounts[0].RefreshToken != "refresh-2" {
		t.Errorf("refresh token after rotation: %+v", accounts)
	}
}

func TestIntegrationDailyMetricReplayConverges(t *testing.T) {
	st := setupIntegration(t)
	ctx := context.Background()
	_, loc := seedLocation(t, st)

	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	metric := DailyMetric{
		LocationID: loc.ID, MetricDate: day,
		Views: 10, Calls: 2, WebsiteClicks: 3, Actions: 5,
	}
	if err := st.DailyMetrics.Upsert(ctx, metric); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := st.DailyMetrics.Upsert(ctx, metric); err != nil {
		t.Fatalf("replay upsert: %v", err)
	}

	rows, err := st.DailyMetrics.ListForLocation(ctx, loc.ID, day, day)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row after replay, got %d", len(rows))
	}
	if rows[0].Views != 10 || rows[0].Calls != 2 || rows[0].Actions != 5 {
		t.Errorf("counters diverged after replay: %+v", rows[0])
	}
}
