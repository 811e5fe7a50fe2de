package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/reviewpulse/reviewpulse/internal/store"
)

// refreshMargin is subtracted from the stored expiry so a token about to
// lapse mid-run is refreshed up front.
const refreshMargin = 2 * time.Minute

// defaultTokenLifetime stands in when the token endpoint omits expires_in.
const defaultTokenLifetime = time.Hour

// TokenStore keeps per-account access tokens valid. A refreshed credential
// pair is persisted before the token is handed out, so an interrupted run
// never leaves a usable-but-unsaved token behind.
type TokenStore struct {
	accounts store.GoogleAccountRepository
	oauth    *oauth2.Config
	now      func() time.Time
}

func NewTokenStore(accounts store.GoogleAccountRepository, clientID, clientSecret, tokenURL string) *TokenStore {
	return &TokenStore{
		accounts: accounts,
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
		},
		now: time.Now,
	}
}

// EnsureValidToken returns a usable access token for the account. A token
// with an unset or passed expiry is exchanged via the refresh-token grant;
// the renewed pair is stored on the account row and mirrored into acct.
func (t *TokenStore) EnsureValidToken(ctx context.Context, acct *store.GoogleAccount) (string, error) {
	if acct.AccessToken != "" && acct.TokenExpiresAt != nil && acct.TokenExpiresAt.After(t.now().Add(refreshMargin)) {
		return acct.AccessToken, nil
	}

	src := t.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: acct.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return "", fmt.Errorf("refresh token for account %s: %w", acct.GoogleAccountID, err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("refresh token for account %s: response missing access_token", acct.GoogleAccountID)
	}

	expiry := tok.Expiry
	if expiry.IsZero() {
		expiry = t.now().Add(defaultTokenLifetime)
	}

	// oauth2 echoes the original refresh token back unless the endpoint
	// rotated it; pass the empty string in that case so the stored value
	// stays untouched.
	refresh := tok.RefreshToken
	if refresh == acct.RefreshToken {
		refresh = ""
	}

	if err := t.accounts.UpdateTokens(ctx, acct.ID, tok.AccessToken, refresh, expiry); err != nil {
		return "", fmt.Errorf("persist refreshed token for account %s: %w", acct.GoogleAccountID, err)
	}

	acct.AccessToken = tok.AccessToken
	acct.TokenExpiresAt = &expiry
	if refresh != "" {
		acct.RefreshToken = refresh
	}

	log.Debug().Str("account", acct.GoogleAccountID).Time("expires_at", expiry).Msg("refreshed access token")
	return tok.AccessToken, nil
}
