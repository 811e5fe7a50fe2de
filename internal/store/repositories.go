package store

import (
	"context"
	"time"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	UpsertOAuthUser(ctx context.Context, subject, email string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
}

// GoogleAccountRepository manages linked Google accounts and their tokens.
type GoogleAccountRepository interface {
	Upsert(ctx context.Context, acct GoogleAccount) (*GoogleAccount, error)
	ListByUser(ctx context.Context, userID int64) ([]GoogleAccount, error)
	// UpdateTokens persists a refreshed credential pair. An empty
	// refreshToken leaves the stored refresh token untouched.
	UpdateTokens(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt time.Time) error
	Delete(ctx context.Context, userID, id int64) error
	ListUserIDsWithAccounts(ctx context.Context) ([]int64, error)
}

// LocationRepository handles business location storage.
type LocationRepository interface {
	Upsert(ctx context.Context, loc Location) (*Location, error)
	ListByUser(ctx context.Context, userID int64) ([]Location, error)
	GetForUser(ctx context.Context, userID, id int64) (*Location, error)
}

// ReviewRepository handles review storage.
type ReviewRepository interface {
	Upsert(ctx context.Context, review Review) (*Review, error)
	ListForLocation(ctx context.Context, locationID int64, limit int) ([]Review, error)
}

// DailyMetricRepository handles per-day performance counters.
type DailyMetricRepository interface {
	Upsert(ctx context.Context, metric DailyMetric) error
	ListForLocation(ctx context.Context, locationID int64, from, to time.Time) ([]DailyMetric, error)
}
