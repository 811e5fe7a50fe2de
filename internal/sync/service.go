package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/reviewpulse/reviewpulse/internal/gbp"
	"github.com/reviewpulse/reviewpulse/internal/metrics"
	"github.com/reviewpulse/reviewpulse/internal/store"
)

// metricWindowDays is the fixed metric window: last 30 days ending today, UTC.
const metricWindowDays = 30

// Stage identifies where in the pipeline a per-scope error occurred.
type Stage string

const (
	StageToken     Stage = "token"
	StageLocations Stage = "locations"
	StageReviews   Stage = "reviews"
	StageMetrics   Stage = "metrics"
	StagePersist   Stage = "persist"
)

// AccountError is one recorded per-scope failure.
type AccountError struct {
	Account string `json:"account"`
	Stage   Stage  `json:"stage"`
	Message string `json:"message"`
}

// Result summarizes one sync run. Success is true whenever the run made it
// through all accounts; per-scope failures are reported in Errors without
// failing the run.
type Result struct {
	RunID             string         `json:"run_id"`
	Success           bool           `json:"success"`
	AccountsProcessed int            `json:"accounts_processed"`
	Errors            []AccountError `json:"errors"`
}

// ErrNoLinkedAccounts aborts a run before any account is processed.
var ErrNoLinkedAccounts = errors.New("no linked google accounts")

// ProfileAPI is the upstream surface the orchestrator drives.
// *gbp.Client implements it.
type ProfileAPI interface {
	ListLocations(ctx context.Context, token string) ([]gbp.Location, error)
	ListReviews(ctx context.Context, token, locationName string) ([]gbp.Review, error)
	FetchDailyMetrics(ctx context.Context, token, locationName string, dr gbp.DateRange) ([]gbp.SeriesEntry, error)
}

// TokenProvider issues valid access tokens. *TokenStore implements it.
type TokenProvider interface {
	EnsureValidToken(ctx context.Context, acct *store.GoogleAccount) (string, error)
}

// Service walks every linked account of a user through token refresh,
// location/review/metric fetch, normalization and persistence. Accounts are
// processed sequentially; a failure in one scope never aborts the run.
type Service struct {
	store  *store.Store
	api    ProfileAPI
	tokens TokenProvider
}

func NewService(st *store.Store, api ProfileAPI, tokens TokenProvider) *Service {
	return &Service{store: st, api: api, tokens: tokens}
}

// SyncUser runs one full pipeline pass over the user's linked accounts.
// Only a failed account load or an empty account list produce an error;
// everything below that is accumulated into the returned Result.
func (s *Service) SyncUser(ctx context.Context, userID int64) (*Result, error) {
	runID := uuid.NewString()
	logger := log.With().Str("run_id", runID).Int64("user_id", userID).Logger()

	accounts, err := s.store.GoogleAccounts.ListByUser(ctx, userID)
	if err != nil {
		metrics.CountSyncRun(false)
		return nil, fmt.Errorf("load linked accounts: %w", err)
	}
	if len(accounts) == 0 {
		metrics.CountSyncRun(false)
		return nil, ErrNoLinkedAccounts
	}

	result := &Result{
		RunID:             runID,
		AccountsProcessed: len(accounts),
		Errors:            []AccountError{},
	}

	for i := range accounts {
		s.syncAccount(ctx, logger, &accounts[i], result)
	}

	result.Success = true
	metrics.CountSyncRun(true)
	logger.Info().
		Int("accounts", result.AccountsProcessed).
		Int("errors", len(result.Errors)).
		Msg("sync run finished")
	return result, nil
}

func (s *Service) syncAccount(ctx context.Context, logger zerolog.Logger, acct *store.GoogleAccount, result *Result) {
	token, err := s.tokens.EnsureValidToken(ctx, acct)
	if err != nil {
		recordError(logger, result, acct.GoogleAccountID, StageToken, err)
		return
	}

	locations, err := s.api.ListLocations(ctx, token)
	if err != nil {
		recordError(logger, result, acct.GoogleAccountID, StageLocations, err)
		return
	}

	window := gbp.LastNDays(metricWindowDays)
	for _, loc := range locations {
		s.syncLocation(ctx, logger, acct, token, loc, window, result)
	}
}

func (s *Service) syncLocation(ctx context.Context, logger zerolog.Logger, acct *store.GoogleAccount, token string, loc gbp.Location, window gbp.DateRange, result *Result) {
	stored, err := s.store.Locations.Upsert(ctx, locationRow(acct.ID, loc))
	if err != nil {
		// Reviews and metrics hang off the location row; without it the
		// whole location scope is skipped.
		recordError(logger, result, acct.GoogleAccountID, StagePersist, err)
		return
	}

	reviews, err := s.api.ListReviews(ctx, token, loc.Name)
	if err != nil {
		recordError(logger, result, acct.GoogleAccountID, StageReviews, err)
	} else {
		for _, rev := range reviews {
			if _, err := s.store.Reviews.Upsert(ctx, reviewRow(stored.ID, rev)); err != nil {
				recordError(logger, result, acct.GoogleAccountID, StagePersist, err)
			}
		}
	}

	series, err := s.api.FetchDailyMetrics(ctx, token, loc.Name, window)
	if err != nil {
		recordError(logger, result, acct.GoogleAccountID, StageMetrics, err)
		return
	}
	for _, rec := range gbp.NormalizeDailyMetrics(series) {
		row, ok := metricRow(stored.ID, rec)
		if !ok {
			continue
		}
		if err := s.store.DailyMetrics.Upsert(ctx, row); err != nil {
			recordError(logger, result, acct.GoogleAccountID, StagePersist, err)
		}
	}
}

func recordError(logger zerolog.Logger, result *Result, account string, stage Stage, err error) {
	metrics.CountSyncStageError(string(stage))
	logger.Warn().
		Str("account", account).
		Str("stage", string(stage)).
		Err(err).
		Msg("sync scope failed")
	result.Errors = append(result.Errors, AccountError{
		Account: account,
		Stage:   stage,
		Message: err.Error(),
	})
}

func locationRow(accountID int64, loc gbp.Location) store.Location {
	row := store.Location{
		GoogleAccountID: accountID,
		LocationID:      loc.Name,
		Name:            loc.LocationName,
	}
	if loc.Address != nil {
		if len(loc.Address.AddressLines) > 0 {
			row.Address = strPtr(strings.Join(loc.Address.AddressLines, ", "))
		}
		row.City = optStr(loc.Address.Locality)
		row.Department = optStr(loc.Address.AdministrativeArea)
	}
	row.Phone = optStr(loc.PrimaryPhone)
	row.Website = optStr(loc.WebsiteURL)
	return row
}

func reviewRow(locationID int64, rev gbp.Review) store.Review {
	row := store.Review{
		LocationID:     locationID,
		GoogleReviewID: rev.ReviewID,
		Rating:         int(rev.StarRating),
		Comment:        optStr(rev.Comment),
		ReviewDate:     parseTime(rev.CreateTime),
	}
	if rev.Reviewer != nil {
		row.AuthorName = optStr(rev.Reviewer.DisplayName)
	}
	if rev.Reply != nil {
		row.ResponseText = optStr(rev.Reply.Comment)
		row.ResponseDate = parseTime(rev.Reply.UpdateTime)
	}
	return row
}

func metricRow(locationID int64, rec gbp.DailyRecord) (store.DailyMetric, bool) {
	date, err := time.ParseInLocation("2006-01-02", rec.Date, time.UTC)
	if err != nil {
		return store.DailyMetric{}, false
	}
	return store.DailyMetric{
		LocationID:        locationID,
		MetricDate:        date,
		Views:             rec.Views,
		Searches:          rec.Searches,
		Actions:           rec.Actions,
		Calls:             rec.Calls,
		DirectionRequests: rec.DirectionRequests,
		WebsiteClicks:     rec.WebsiteClicks,
	}, true
}

func strPtr(s string) *string { return &s }

func optStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}
