package gbp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(Config{
		AccountAPIBaseURL:     srv.URL,
		PerformanceAPIBaseURL: srv.URL,
		Timeout:               5 * time.Second,
	})
}

func TestListLocations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v4/accounts/me/locations" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("authorization header = %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"locations": []map[string]any{
				{
					"name":         "accounts/1/locations/2",
					"locationName": "Cafe Central",
					"primaryPhone": "+33 1 23 45 67 89",
					"address": map[string]any{
						"addressLines": []string{"1 Rue de la Paix"},
						"locality":     "Paris",
					},
				},
			},
		})
	}))
	defer srv.Close()

	locations, err := newTestClient(srv).ListLocations(context.Background(), "tok-123")
	if err != nil {
		t.Fatalf("ListLocations: %v", err)
	}
	if len(locations) != 1 {
		t.Fatalf("expected 1 location, got %d", len(locations))
	}
	loc := locations[0]
	if loc.Name != "accounts/1/locations/2" || loc.LocationName != "Cafe Central" {
		t.Errorf("unexpected location %+v", loc)
	}
	if loc.Address == nil || loc.Address.Locality != "Paris" {
		t.Errorf("unexpected address %+v", loc.Address)
	}
}

func TestListLocations_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).ListLocations(context.Background(), "tok")
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError || apiErr.Endpoint != "locations" {
		t.Errorf("unexpected error %+v", apiErr)
	}
}

func TestListReviews_StarRatingVariants(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if want := "/v4/accounts/1/locations/2/reviews"; r.URL.Path != want {
			t.Errorf("path = %s, want %s", r.URL.Path, want)
		}
		_, _ = w.Write([]byte(`{"reviews":[
			{"reviewId":"r1","starRating":"FIVE","comment":"great","reviewer":{"displayName":"Ana"}},
			{"reviewId":"r2","starRating":3,"reviewReply":{"comment":"thanks!","updateTime":"2024-03-05T10:00:00Z"}}
		]}`))
	}))
	defer srv.Close()

	reviews, err := newTestClient(srv).ListReviews(context.Background(), "tok", "accounts/1/locations/2")
	if err != nil {
		t.Fatalf("ListReviews: %v", err)
	}
	if len(reviews) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(reviews))
	}
	if reviews[0].StarRating != 5 {
		t.Errorf("enum rating = %d, want 5", reviews[0].StarRating)
	}
	if reviews[1].StarRating != 3 {
		t.Errorf("numeric rating = %d, want 3", reviews[1].StarRating)
	}
	if reviews[1].Reply == nil || reviews[1].Reply.Comment != "thanks!" {
		t.Errorf("unexpected reply %+v", reviews[1].Reply)
	}
}

func TestFetchDailyMetrics_QueryAndEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":fetchMultiDailyMetricsTimeSeries") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if got := q["dailyMetrics"]; len(got) != len(DailyMetricKinds) {
			t.Errorf("dailyMetrics params = %v", got)
		}
		if q.Get("dailyRange.start_date.year") == "" || q.Get("dailyRange.end_date.day") == "" {
			t.Errorf("missing date range params in %v", q)
		}
		_, _ = w.Write([]byte(`{"multiDailyMetricTimeSeries":[{"dailyMetricTimeSeries":[
			{"dailyMetric":"CALL_CLICKS","timeSeries":{"datedValues":[
				{"date":{"year":2024,"month":3,"day":5},"value":"2"}
			]}}
		]}]}`))
	}))
	defer srv.Close()

	entries, err := newTestClient(srv).FetchDailyMetrics(context.Background(), "tok", "locations/2", LastNDays(30))
	if err != nil {
		t.Fatalf("FetchDailyMetrics: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 series entry, got %d", len(entries))
	}

	records := NormalizeDailyMetrics(entries)
	if len(records) != 1 || records[0].Date != "2024-03-05" || records[0].Calls != 2 {
		t.Errorf("unexpected records %+v", records)
	}
}

func TestLastNDays(t *testing.T) {
	dr := LastNDays(30)
	if got := dr.End.Sub(dr.Start); got != 30*24*time.Hour {
		t.Errorf("window length = %v, want 720h", got)
	}
	if dr.End.Location() != time.UTC {
		t.Errorf("end not in UTC: %v", dr.End)
	}
	if h, m, s := dr.End.Clock(); h != 0 || m != 0 || s != 0 {
		t.Errorf("end not at midnight: %v", dr.End)
	}
}
