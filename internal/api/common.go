package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
)

const (
	defaultReviewLimit = 50
	maxReviewLimit     = 200
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func parseLimit(r *http.Request) int {
	limit := defaultReviewLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= maxReviewLimit {
			limit = parsed
		}
	}
	return limit
}

func isSecureBaseURL(base string) bool {
	u, err := url.Parse(base)
	return err == nil && u.Scheme == "https"
}
