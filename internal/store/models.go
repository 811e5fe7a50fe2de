package store

import "time"

// User represents a person authenticated via OIDC.
type User struct {
	ID           int64
	OAuthSubject string
	PrimaryEmail string
	CreatedAt    time.Time
	LastLoginAt  time.Time
}

// GoogleAccount is a linked Google identity with its OAuth credential pair.
// One row per (user, external account id).
type GoogleAccount struct {
	ID              int64
	UserID          int64
	GoogleAccountID string
	Email           string
	AccessToken     string
	RefreshToken    string
	TokenExpiresAt  *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Location is one business location under a linked account. LocationID is
// the upstream resource name (e.g. "accounts/123/locations/456").
type Location struct {
	ID              int64
	GoogleAccountID int64
	LocationID      string
	Name            string
	Address         *string
	City            *string
	Department      *string
	Phone           *string
	Website         *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Review is a customer review of a location. Optional fields stay nil when
// the upstream payload omits them; the upsert never clears a previously
// stored value with an absent one.
type Review struct {
	ID             int64
	LocationID     int64
	GoogleReviewID string
	AuthorName     *string
	Rating         int
	Comment        *string
	ReviewDate     *time.Time
	ResponseText   *string
	ResponseDate   *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DailyMetric holds one calendar day's aggregated performance counters for a
// location. MetricDate is a UTC calendar date. Actions always equals
// Calls + DirectionRequests + WebsiteClicks.
type DailyMetric struct {
	ID                int64
	LocationID        int64
	MetricDate        time.Time
	Views             int64
	Searches          int64
	Actions           int64
	Calls             int64
	DirectionRequests int64
	WebsiteClicks     int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
