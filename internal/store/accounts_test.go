package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
)

var refreshGuard = regexp.MustCompile(`refresh_token\s*= COALESCE\(NULLIF\(\$3, ''\), refresh_token\)`)

func TestUpdateTokensEmptyRefreshKeepsStored(t *testing.T) {
	expiry := time.Now().Add(time.Hour)
	pool := &mockPool{
		t: t,
		execs: []execExpectation{{
			expect: refreshGuard,
			args:   []any{int64(7), "new-access", "", expiry},
			tag:    "UPDATE 1",
		}},
	}

	repo := &googleAccountRepo{pool: pool}
	// The empty refresh token reaches the statement untouched; the NULLIF
	// guard keeps the stored value.
	if err := repo.UpdateTokens(context.Background(), 7, "new-access", "", expiry); err != nil {
		t.Fatalf("UpdateTokens: %v", err)
	}
	pool.assertDone()
}

func TestUpdateTokensRotatedRefreshToken(t *testing.T) {
	expiry := time.Now().Add(time.Hour)
	pool := &mockPool{
		t: t,
		execs: []execExpectation{{
			expect: refreshGuard,
			args:   []any{int64(7), "new-access", "rotated", expiry},
			tag:    "UPDATE 1",
		}},
	}

	repo := &googleAccountRepo{pool: pool}
	if err := repo.UpdateTokens(context.Background(), 7, "new-access", "rotated", expiry); err != nil {
		t.Fatalf("UpdateTokens: %v", err)
	}
	pool.assertDone()
}

func TestUpdateTokensUnknownAccount(t *testing.T) {
	pool := &mockPool{
		t: t,
		execs: []execExpectation{{
			expect: refreshGuard,
			tag:    "UPDATE 0",
		}},
	}

	repo := &googleAccountRepo{pool: pool}
	err := repo.UpdateTokens(context.Background(), 99, "tok", "", time.Now())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	pool.assertDone()
}

func TestGoogleAccountUpsertGuardsRefreshToken(t *testing.T) {
	pool := &mockPool{
		t: t,
		queries: []queryExpectation{{
			expect: regexp.MustCompile(`refresh_token\s*= COALESCE\(NULLIF\(EXCLUDED\.refresh_token, ''\), google_accounts\.refresh_token\)`),
			args:   []any{int64(1), "g-1", "user@example.com", "tok", "", nil},
			err:    pgx.ErrNoRows,
		}},
	}

	repo := &googleAccountRepo{pool: pool}
	_, err := repo.Upsert(context.Background(), GoogleAccount{
		UserID:          1,
		GoogleAccountID: "g-1",
		Email:           "user@example.com",
		AccessToken:     "tok",
	})
	if err == nil {
		t.Fatal("expected error from fake row")
	}
	pool.assertDone()
}
