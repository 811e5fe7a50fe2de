package api

import (
	"errors"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/reviewpulse/reviewpulse/internal/auth"
	"github.com/reviewpulse/reviewpulse/internal/config"
	httperrors "github.com/reviewpulse/reviewpulse/internal/http/errors"
	"github.com/reviewpulse/reviewpulse/internal/store"
	syncsvc "github.com/reviewpulse/reviewpulse/internal/sync"
)

// Handler serves the JSON API consumed by the dashboard frontend.
type Handler struct {
	cfg        *config.Config
	store      *store.Store
	sync       *syncsvc.Service
	google     oauth2.Config
	httpClient *http.Client
	secure     bool
}

func NewHandler(cfg *config.Config, st *store.Store, syncService *syncsvc.Service) *Handler {
	timeout := cfg.Sync.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Handler{
		cfg:        cfg,
		store:      st,
		sync:       syncService,
		httpClient: &http.Client{Timeout: timeout},
		google: oauth2.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.Google.AuthURL,
				TokenURL: cfg.Google.TokenURL,
			},
			RedirectURL: cfg.BaseURL + cfg.Google.RedirectPath,
			Scopes: []string{
				"https://www.googleapis.com/auth/business.manage",
				"https://www.googleapis.com/auth/userinfo.email",
			},
		},
		secure: isSecureBaseURL(cfg.BaseURL),
	}
}

// SyncNow runs a full sync pass for the current user and returns the run
// summary. Per-account errors ride along in the summary; only a missing or
// empty account list fails the request.
func (h *Handler) SyncNow(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	result, err := h.sync.SyncUser(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, syncsvc.ErrNoLinkedAccounts) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"success": false,
				"error":   "no linked google accounts",
			})
			return
		}
		httperrors.InternalError(w, r, err, "sync run failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type accountResponse struct {
	ID              int64      `json:"id"`
	GoogleAccountID string     `json:"google_account_id"`
	Email           string     `json:"email"`
	TokenExpiresAt  *time.Time `json:"token_expires_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ListAccounts returns the user's linked accounts with credentials redacted.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	accounts, err := h.store.GoogleAccounts.ListByUser(r.Context(), user.ID)
	if err != nil {
		httperrors.InternalError(w, r, err, "listing accounts failed")
		return
	}

	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, accountResponse{
			ID:              a.ID,
			GoogleAccountID: a.GoogleAccountID,
			Email:           a.Email,
			TokenExpiresAt:  a.TokenExpiresAt,
			CreatedAt:       a.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// DisconnectAccount removes a linked account; the schema cascades the delete
// to its locations, reviews and metrics.
func (h *Handler) DisconnectAccount(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		httperrors.BadRequestError(w, r, err, "invalid account id")
		return
	}

	if err := h.store.GoogleAccounts.Delete(r.Context(), user.ID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "account not found", http.StatusNotFound)
			return
		}
		httperrors.InternalError(w, r, err, "account delete failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
