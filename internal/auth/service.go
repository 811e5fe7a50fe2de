package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/reviewpulse/reviewpulse/internal/config"
	httperrors "github.com/reviewpulse/reviewpulse/internal/http/errors"
	"github.com/reviewpulse/reviewpulse/internal/store"
)

const stateCookieName = "reviewpulse_oauth_state"

// Service encapsulates OIDC login and session handling.
type Service struct {
	cfg      *config.Config
	store    *store.Store
	sessions *SessionManager
	verifier *oidc.IDTokenVerifier
	oauth    oauth2.Config
	secure   bool
}

func NewService(ctx context.Context, cfg *config.Config, st *store.Store, sessions *SessionManager) (*Service, error) {
	provider, err := oidc.NewProvider(ctx, cfg.OIDC.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("discover oidc provider: %w", err)
	}

	return &Service{
		cfg:      cfg,
		store:    st,
		sessions: sessions,
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.OIDC.ClientID}),
		oauth: oauth2.Config{
			ClientID:     cfg.OIDC.ClientID,
			ClientSecret: cfg.OIDC.ClientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  cfg.BaseURL + cfg.OIDC.RedirectPath,
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		secure: sessions.secure,
	}, nil
}

// BeginOAuth starts the OIDC authorization flow.
func (s *Service) BeginOAuth(w http.ResponseWriter, r *http.Request) {
	state, err := randomToken()
	if err != nil {
		httperrors.InternalError(w, r, err, "failed to generate oauth state")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, s.oauth.AuthCodeURL(state), http.StatusFound)
}

// HandleOAuthCallback completes the OIDC flow and creates a session.
func (s *Service) HandleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		httperrors.BadRequestError(w, r, errors.New("state mismatch"), "invalid oauth state")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Value: "", Path: "/", Expires: time.Unix(0, 0)})

	code := r.URL.Query().Get("code")
	if code == "" {
		httperrors.BadRequestError(w, r, errors.New("missing code"), "missing oauth code")
		return
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		httperrors.InternalError(w, r, err, "oauth code exchange failed")
		return
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		httperrors.InternalError(w, r, errors.New("token response missing id_token"), "oauth response incomplete")
		return
	}

	idToken, err := s.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		httperrors.InternalError(w, r, err, "id token verification failed")
		return
	}

	var claims struct {
		Email string `json:"email"`
	}
	if err := idToken.Claims(&claims); err != nil {
		httperrors.InternalError(w, r, err, "id token claims decode failed")
		return
	}

	user, err := s.store.Users.UpsertOAuthUser(ctx, idToken.Subject, claims.Email)
	if err != nil {
		httperrors.InternalError(w, r, err, "user upsert failed")
		return
	}

	if err := s.sessions.Issue(w, user.ID); err != nil {
		httperrors.InternalError(w, r, err, "session issue failed")
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout clears the session cookie.
func (s *Service) Logout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// RequireSession retrieves the current user from the session cookie and adds
// it to the request context, rejecting unauthenticated requests.
func (s *Service) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.sessions.CurrentUserID(r)
		if !ok {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}

		user, err := s.store.Users.GetByID(r.Context(), userID)
		if err != nil {
			s.sessions.Clear(w)
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
