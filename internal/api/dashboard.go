package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/reviewpulse/reviewpulse/internal/auth"
	httperrors "github.com/reviewpulse/reviewpulse/internal/http/errors"
	"github.com/reviewpulse/reviewpulse/internal/store"
)

type locationResponse struct {
	ID         int64   `json:"id"`
	LocationID string  `json:"location_id"`
	Name       string  `json:"name"`
	Address    *string `json:"address,omitempty"`
	City       *string `json:"city,omitempty"`
	Department *string `json:"department,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Website    *string `json:"website,omitempty"`
}

type reviewResponse struct {
	ID           int64      `json:"id"`
	AuthorName   *string    `json:"author_name,omitempty"`
	Rating       int        `json:"rating"`
	Comment      *string    `json:"comment,omitempty"`
	ReviewDate   *time.Time `json:"review_date,omitempty"`
	ResponseText *string    `json:"response_text,omitempty"`
	ResponseDate *time.Time `json:"response_date,omitempty"`
}

type dailyMetricResponse struct {
	Date              string `json:"date"`
	Views             int64  `json:"views"`
	Searches          int64  `json:"searches"`
	Actions           int64  `json:"actions"`
	Calls             int64  `json:"calls"`
	DirectionRequests int64  `json:"direction_requests"`
	WebsiteClicks     int64  `json:"website_clicks"`
}

// ListLocations returns every location synced for the current user.
func (h *Handler) ListLocations(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	locations, err := h.store.Locations.ListByUser(r.Context(), user.ID)
	if err != nil {
		httperrors.InternalError(w, r, err, "listing locations failed")
		return
	}

	out := make([]locationResponse, 0, len(locations))
	for _, l := range locations {
		out = append(out, locationResponse{
			ID:         l.ID,
			LocationID: l.LocationID,
			Name:       l.Name,
			Address:    l.Address,
			City:       l.City,
			Department: l.Department,
			Phone:      l.Phone,
			Website:    l.Website,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// ListLocationReviews returns the most recent reviews of one location.
func (h *Handler) ListLocationReviews(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	location, ok := h.locationForRequest(w, r, user.ID)
	if !ok {
		return
	}

	reviews, err := h.store.Reviews.ListForLocation(r.Context(), location.ID, parseLimit(r))
	if err != nil {
		httperrors.InternalError(w, r, err, "listing reviews failed")
		return
	}

	out := make([]reviewResponse, 0, len(reviews))
	for _, rev := range reviews {
		out = append(out, reviewResponse{
			ID:           rev.ID,
			AuthorName:   rev.AuthorName,
			Rating:       rev.Rating,
			Comment:      rev.Comment,
			ReviewDate:   rev.ReviewDate,
			ResponseText: rev.ResponseText,
			ResponseDate: rev.ResponseDate,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// ListLocationDailyMetrics returns per-day performance counters for one
// location. The range defaults to the last 30 days when from/to are absent.
func (h *Handler) ListLocationDailyMetrics(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	location, ok := h.locationForRequest(w, r, user.ID)
	if !ok {
		return
	}

	now := time.Now().UTC()
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	from := to.AddDate(0, 0, -30)
	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.ParseInLocation("2006-01-02", v, time.UTC)
		if err != nil {
			httperrors.BadRequestError(w, r, err, "invalid from date")
			return
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.ParseInLocation("2006-01-02", v, time.UTC)
		if err != nil {
			httperrors.BadRequestError(w, r, err, "invalid to date")
			return
		}
		to = parsed
	}

	rows, err := h.store.DailyMetrics.ListForLocation(r.Context(), location.ID, from, to)
	if err != nil {
		httperrors.InternalError(w, r, err, "listing daily metrics failed")
		return
	}

	out := make([]dailyMetricResponse, 0, len(rows))
	for _, m := range rows {
		out = append(out, dailyMetricResponse{
			Date:              m.MetricDate.Format("2006-01-02"),
			Views:             m.Views,
			Searches:          m.Searches,
			Actions:           m.Actions,
			Calls:             m.Calls,
			DirectionRequests: m.DirectionRequests,
			WebsiteClicks:     m.WebsiteClicks,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) locationForRequest(w http.ResponseWriter, r *http.Request, userID int64) (*store.Location, bool) {
	id, err := pathID(r, "id")
	if err != nil {
		httperrors.BadRequestError(w, r, err, "invalid location id")
		return nil, false
	}

	location, err := h.store.Locations.GetForUser(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "location not found", http.StatusNotFound)
			return nil, false
		}
		httperrors.InternalError(w, r, err, "location lookup failed")
		return nil, false
	}
	return location, true
}
