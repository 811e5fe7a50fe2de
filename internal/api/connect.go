package api

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/reviewpulse/reviewpulse/internal/auth"
	httperrors "github.com/reviewpulse/reviewpulse/internal/http/errors"
	"github.com/reviewpulse/reviewpulse/internal/store"
)

const googleStateCookieName = "reviewpulse_google_state"

// GoogleConnect starts the Google account linking flow. Offline access with a
// forced consent prompt makes Google return a refresh token even for accounts
// that already granted the app before.
func (h *Handler) GoogleConnect(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserFromContext(r.Context()); !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	state, err := randomState()
	if err != nil {
		httperrors.InternalError(w, r, err, "failed to generate oauth state")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     googleStateCookieName,
		Value:    state,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	url := h.google.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
	http.Redirect(w, r, url, http.StatusFound)
}

// GoogleCallback finishes the linking flow: it exchanges the authorization
// code, resolves which Google account the tokens belong to, and stores the
// credentials for the sync pipeline.
func (h *Handler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := auth.UserFromContext(ctx)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	stateCookie, err := r.Cookie(googleStateCookieName)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		httperrors.BadRequestError(w, r, errors.New("state mismatch"), "invalid oauth state")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: googleStateCookieName, Value: "", Path: "/", Expires: time.Unix(0, 0)})

	code := r.URL.Query().Get("code")
	if code == "" {
		httperrors.BadRequestError(w, r, errors.New("missing code"), "missing oauth code")
		return
	}

	token, err := h.google.Exchange(ctx, code)
	if err != nil {
		httperrors.InternalError(w, r, err, "google code exchange failed")
		return
	}

	info, err := h.fetchUserInfo(ctx, token.AccessToken)
	if err != nil {
		httperrors.InternalError(w, r, err, "google userinfo lookup failed")
		return
	}

	account := store.GoogleAccount{
		UserID:          user.ID,
		GoogleAccountID: info.ID,
		Email:           info.Email,
		AccessToken:     token.AccessToken,
		RefreshToken:    token.RefreshToken,
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		account.TokenExpiresAt = &expiry
	}

	if _, err := h.store.GoogleAccounts.Upsert(ctx, account); err != nil {
		httperrors.InternalError(w, r, err, "google account upsert failed")
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

type googleUserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (h *Handler) fetchUserInfo(ctx context.Context, accessToken string) (*googleUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.cfg.Google.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("userinfo returned status %d: %s", resp.StatusCode, body)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	if info.ID == "" {
		return nil, errors.New("userinfo response missing account id")
	}
	return &info, nil
}

func randomState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
