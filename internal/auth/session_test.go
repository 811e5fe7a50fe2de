package auth

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/reviewpulse/reviewpulse/internal/config"
)

func testSessionManager(t *testing.T) *SessionManager {
	t.Helper()
	cfg := &config.Config{BaseURL: "http://localhost:8080"}
	cfg.Session.Secret = strings.Repeat("k", 32)
	return NewSessionManager(cfg)
}

func TestSessionRoundTrip(t *testing.T) {
	m := testSessionManager(t)

	rec := httptest.NewRecorder()
	if err := m.Issue(rec, 42); err != nil {
		t.Fatalf("Issue: %v", err)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}

	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(cookies[0])

	uid, ok := m.CurrentUserID(r)
	if !ok || uid != 42 {
		t.Errorf("CurrentUserID = (%d, %v), want (42, true)", uid, ok)
	}
}

func TestSessionRejectsTamperedCookie(t *testing.T) {
	m := testSessionManager(t)

	rec := httptest.NewRecorder()
	if err := m.Issue(rec, 42); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	cookie := rec.Result().Cookies()[0]
	cookie.Value = cookie.Value[:len(cookie.Value)-2] + "xx"

	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(cookie)

	if _, ok := m.CurrentUserID(r); ok {
		t.Error("tampered cookie accepted")
	}
}

func TestSessionMissingCookie(t *testing.T) {
	m := testSessionManager(t)

	r := httptest.NewRequest("GET", "/", nil)
	if _, ok := m.CurrentUserID(r); ok {
		t.Error("missing cookie accepted")
	}
}

func TestSessionInsecureCookieForHTTPBase(t *testing.T) {
	m := testSessionManager(t)

	rec := httptest.NewRecorder()
	if err := m.Issue(rec, 1); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if rec.Result().Cookies()[0].Secure {
		t.Error("cookie marked secure for http base url")
	}
}

func TestSessionClear(t *testing.T) {
	m := testSessionManager(t)

	rec := httptest.NewRecorder()
	m.Clear(rec)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != "" {
		t.Errorf("unexpected cookies after clear: %+v", cookies)
	}
	if !cookies[0].Expires.Before(time.Now()) {
		t.Errorf("cleared cookie not expired: %v", cookies[0].Expires)
	}
}
