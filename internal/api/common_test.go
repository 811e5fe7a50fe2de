package api

import (
	"net/http/httptest"
	"testing"
)

func TestParseLimit(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want int
	}{
		{"default when absent", "/api/locations/1/reviews", 50},
		{"explicit value", "/api/locations/1/reviews?limit=25", 25},
		{"zero falls back", "/api/locations/1/reviews?limit=0", 50},
		{"negative falls back", "/api/locations/1/reviews?limit=-3", 50},
		{"over max falls back", "/api/locations/1/reviews?limit=9999", 50},
		{"max allowed", "/api/locations/1/reviews?limit=200", 200},
		{"garbage falls back", "/api/locations/1/reviews?limit=abc", 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			if got := parseLimit(r); got != tt.want {
				t.Errorf("parseLimit(%s) = %d, want %d", tt.url, got, tt.want)
			}
		})
	}
}

func TestIsSecureBaseURL(t *testing.T) {
	tests := []struct {
		base string
		want bool
	}{
		{"https://dash.example.com", true},
		{"http://localhost:8080", false},
		{"://bad", false},
	}

	for _, tt := range tests {
		if got := isSecureBaseURL(tt.base); got != tt.want {
			t.Errorf("isSecureBaseURL(%q) = %v, want %v", tt.base, got, tt.want)
		}
	}
}
