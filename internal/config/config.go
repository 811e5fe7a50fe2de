package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenAddr string
	BaseURL    string

	DB struct {
		DSN string
	}

	OIDC struct {
		ClientID     string
		ClientSecret string
		IssuerURL    string
		RedirectPath string
	}

	// Google holds the credentials and endpoints used to talk to the
	// Business Profile APIs on behalf of linked accounts. The token and API
	// base URLs are configurable so tests can point them at local servers.
	Google struct {
		ClientID              string
		ClientSecret          string
		TokenURL              string
		AuthURL               string
		UserInfoURL           string
		AccountAPIBaseURL     string
		PerformanceAPIBaseURL string
		RedirectPath          string
	}

	Sync struct {
		Schedule       string
		RequestTimeout time.Duration
	}

	Session struct {
		Secret string
	}

	PrometheusEnabled bool
	TrustedProxies    []string
}

func Load() (*Config, error) {
	cfg := &Config{}

	cfg.ListenAddr = getenvDefault("APP_LISTEN_ADDR", ":8080")
	cfg.BaseURL = getenvDefault("APP_BASE_URL", "http://localhost:8080")
	cfg.DB.DSN = os.Getenv("APP_DB_DSN")

	if cfg.DB.DSN == "" {
		host := os.Getenv("APP_DB_HOST")
		name := os.Getenv("APP_DB_NAME")
		user := os.Getenv("APP_DB_USER")
		password := os.Getenv("APP_DB_PASSWORD")
		port := getenvDefault("APP_DB_PORT", "5432")
		sslmode := getenvDefault("APP_DB_SSLMODE", "disable")

		var missing []string
		if host == "" {
			missing = append(missing, "APP_DB_HOST")
		}
		if name == "" {
			missing = append(missing, "APP_DB_NAME")
		}
		if user == "" {
			missing = append(missing, "APP_DB_USER")
		}
		if password == "" {
			missing = append(missing, "APP_DB_PASSWORD")
		}

		if len(missing) == 0 {
			cfg.DB.DSN = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, password, host, port, name, sslmode)
		}
	}

	cfg.OIDC.ClientID = os.Getenv("APP_OIDC_CLIENT_ID")
	cfg.OIDC.ClientSecret = os.Getenv("APP_OIDC_CLIENT_SECRET")
	cfg.OIDC.IssuerURL = os.Getenv("APP_OIDC_ISSUER_URL")
	cfg.OIDC.RedirectPath = getenvDefault("APP_OIDC_REDIRECT_PATH", "/auth/callback")

	cfg.Google.ClientID = os.Getenv("APP_GOOGLE_CLIENT_ID")
	cfg.Google.ClientSecret = os.Getenv("APP_GOOGLE_CLIENT_SECRET")
	cfg.Google.TokenURL = getenvDefault("APP_GOOGLE_TOKEN_URL", "https://oauth2.googleapis.com/token")
	cfg.Google.AuthURL = getenvDefault("APP_GOOGLE_AUTH_URL", "https://accounts.google.com/o/oauth2/v2/auth")
	cfg.Google.UserInfoURL = getenvDefault("APP_GOOGLE_USERINFO_URL", "https://www.googleapis.com/oauth2/v2/userinfo")
	cfg.Google.AccountAPIBaseURL = getenvDefault("APP_GOOGLE_ACCOUNT_API_URL", "https://mybusiness.googleapis.com")
	cfg.Google.PerformanceAPIBaseURL = getenvDefault("APP_GOOGLE_PERFORMANCE_API_URL", "https://businessprofileperformance.googleapis.com")
	cfg.Google.RedirectPath = getenvDefault("APP_GOOGLE_REDIRECT_PATH", "/api/google/callback")

	cfg.Sync.Schedule = getenvDefault("APP_SYNC_SCHEDULE", "@every 6h")
	cfg.Sync.RequestTimeout = getenvDuration("APP_SYNC_REQUEST_TIMEOUT", 30*time.Second)

	cfg.Session.Secret = os.Getenv("APP_SESSION_SECRET")
	cfg.PrometheusEnabled = getenvBool("APP_PROMETHEUS_ENDPOINT_ENABLED", false)
	cfg.TrustedProxies = getenvList("APP_TRUSTED_PROXIES")

	if cfg.DB.DSN == "" {
		return nil, errors.New("APP_DB_DSN is required (or set APP_DB_HOST, APP_DB_NAME, APP_DB_USER, and APP_DB_PASSWORD)")
	}
	if cfg.OIDC.ClientID == "" || cfg.OIDC.ClientSecret == "" {
		return nil, errors.New("oidc configuration is required: client id and secret")
	}
	if cfg.OIDC.IssuerURL == "" {
		return nil, errors.New("APP_OIDC_ISSUER_URL is required")
	}
	if cfg.Google.ClientID == "" || cfg.Google.ClientSecret == "" {
		return nil, errors.New("google configuration is required: client id and secret")
	}
	if cfg.Session.Secret == "" {
		return nil, errors.New("APP_SESSION_SECRET is required")
	}
	if len(cfg.Session.Secret) < 32 {
		return nil, fmt.Errorf("APP_SESSION_SECRET must be at least 32 characters long (got %d)", len(cfg.Session.Secret))
	}

	if len(cfg.TrustedProxies) == 0 {
		fmt.Println("WARNING: No APP_TRUSTED_PROXIES configured. ReviewPulse will trust all proxies - Not recommended for public environments.")
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return def
}

func getenvList(key string) []string {
	if v := os.Getenv(key); v != "" {
		var result []string
		for _, item := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return nil
}
