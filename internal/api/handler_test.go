package api

import (
	"testing"
	"time"

	"github.com/reviewpulse/reviewpulse/internal/config"
)

func TestNewHandlerBoundsUserInfoClient(t *testing.T) {
	cfg := &config.Config{BaseURL: "http://localhost:8080"}
	cfg.Sync.RequestTimeout = 5 * time.Second

	h := NewHandler(cfg, nil, nil)
	if h.httpClient.Timeout != 5*time.Second {
		t.Errorf("client timeout = %v, want 5s", h.httpClient.Timeout)
	}
}

func TestNewHandlerDefaultsClientTimeout(t *testing.T) {
	cfg := &config.Config{BaseURL: "http://localhost:8080"}

	h := NewHandler(cfg, nil, nil)
	if h.httpClient.Timeout != 30*time.Second {
		t.Errorf("client timeout = %v, want 30s default", h.httpClient.Timeout)
	}
}
