package gbp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/reviewpulse/reviewpulse/internal/metrics"
)

// Config carries the endpoints and timeout for the Business Profile APIs.
// Base URLs are injected so tests can point the client at local servers.
type Config struct {
	AccountAPIBaseURL     string
	PerformanceAPIBaseURL string
	Timeout               time.Duration
}

// Client is an HTTP client for the Google Business Profile APIs: the v4
// account management API (locations, reviews) and the v1 performance API
// (daily metric time series).
type Client struct {
	httpClient      *http.Client
	accountBase     string
	performanceBase string
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient:      &http.Client{Timeout: timeout},
		accountBase:     cfg.AccountAPIBaseURL,
		performanceBase: cfg.PerformanceAPIBaseURL,
	}
}

// APIError is a non-2xx response from an upstream endpoint.
type APIError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// Location is the subset of the v4 location resource the dashboard keeps.
// Name is the upstream resource name ("accounts/{id}/locations/{id}").
type Location struct {
	Name         string         `json:"name"`
	LocationName string         `json:"locationName"`
	PrimaryPhone string         `json:"primaryPhone"`
	WebsiteURL   string         `json:"websiteUrl"`
	Address      *PostalAddress `json:"address"`
}

type PostalAddress struct {
	AddressLines       []string `json:"addressLines"`
	Locality           string   `json:"locality"`
	AdministrativeArea string   `json:"administrativeArea"`
}

// Review is the subset of the v4 review resource the dashboard keeps.
type Review struct {
	ReviewID   string       `json:"reviewId"`
	Reviewer   *Reviewer    `json:"reviewer"`
	StarRating StarRating   `json:"starRating"`
	Comment    string       `json:"comment"`
	CreateTime string       `json:"createTime"`
	Reply      *ReviewReply `json:"reviewReply"`
}

type Reviewer struct {
	DisplayName string `json:"displayName"`
}

type ReviewReply struct {
	Comment    string `json:"comment"`
	UpdateTime string `json:"updateTime"`
}

// StarRating tolerates both response variants: a plain number and the
// enumerated string form ("ONE".."FIVE").
type StarRating int

func (s *StarRating) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*s = StarRating(n)
		return nil
	}

	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("star rating: unsupported value %s", data)
	}
	switch name {
	case "ONE":
		*s = 1
	case "TWO":
		*s = 2
	case "THREE":
		*s = 3
	case "FOUR":
		*s = 4
	case "FIVE":
		*s = 5
	default:
		*s = 0
	}
	return nil
}

// DateRange is a closed calendar-day interval, UTC.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// LastNDays returns the range covering the n days ending today, UTC,
// computed at call time.
func LastNDays(n int) DateRange {
	now := time.Now().UTC()
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return DateRange{Start: end.AddDate(0, 0, -n), End: end}
}

// ListLocations fetches the locations visible to the token's account.
// Only the first page is processed; pagination is a known limitation.
func (c *Client) ListLocations(ctx context.Context, token string) ([]Location, error) {
	var payload struct {
		Locations []Location `json:"locations"`
	}
	u := c.accountBase + "/v4/accounts/me/locations"
	if err := c.getJSON(ctx, "locations", u, token, &payload); err != nil {
		return nil, err
	}

	log.Debug().Int("locations", len(payload.Locations)).Msg("fetched locations")
	return payload.Locations, nil
}

// ListReviews fetches the reviews of one location. First page only.
func (c *Client) ListReviews(ctx context.Context, token, locationName string) ([]Review, error) {
	var payload struct {
		Reviews []Review `json:"reviews"`
	}
	u := c.accountBase + "/v4/" + locationName + "/reviews"
	if err := c.getJSON(ctx, "reviews", u, token, &payload); err != nil {
		return nil, err
	}

	log.Debug().Str("location", locationName).Int("reviews", len(payload.Reviews)).Msg("fetched reviews")
	return payload.Reviews, nil
}

// FetchDailyMetrics fetches the multi-metric daily time series for one
// location over the given range and returns the raw series entries. The
// response envelope is not stable across API variants, so entries are kept
// duck-typed and resolved later by the normalizer.
func (c *Client) FetchDailyMetrics(ctx context.Context, token, locationName string, dr DateRange) ([]SeriesEntry, error) {
	q := url.Values{}
	for _, kind := range DailyMetricKinds {
		q.Add("dailyMetrics", kind)
	}
	q.Set("dailyRange.start_date.year", strconv.Itoa(dr.Start.Year()))
	q.Set("dailyRange.start_date.month", strconv.Itoa(int(dr.Start.Month())))
	q.Set("dailyRange.start_date.day", strconv.Itoa(dr.Start.Day()))
	q.Set("dailyRange.end_date.year", strconv.Itoa(dr.End.Year()))
	q.Set("dailyRange.end_date.month", strconv.Itoa(int(dr.End.Month())))
	q.Set("dailyRange.end_date.day", strconv.Itoa(dr.End.Day()))

	var payload map[string]any
	u := c.performanceBase + "/v1/" + locationName + ":fetchMultiDailyMetricsTimeSeries?" + q.Encode()
	if err := c.getJSON(ctx, "metrics", u, token, &payload); err != nil {
		return nil, err
	}

	entries := flattenSeries(payload)
	log.Debug().Str("location", locationName).Int("series", len(entries)).Msg("fetched metric series")
	return entries, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, rawURL, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create %s request: %w", endpoint, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveUpstreamRequest(endpoint, 0, start)
		return fmt.Errorf("execute %s request: %w", endpoint, err)
	}
	defer resp.Body.Close()
	metrics.ObserveUpstreamRequest(endpoint, resp.StatusCode, start)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}
