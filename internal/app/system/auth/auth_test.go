package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

const testKey = "0123456789ABCDEF0123456789ABCDEF"

func newTestManager(t *testing.T) *SessionManager {
	t.Helper()
	sm, err := NewSessionManager(testKey, "dispo-test-session", "", false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	return sm
}

func TestNewSessionManager_EmptyKey(t *testing.T) {
	if _, err := NewSessionManager("", "s", "", false, zap.NewNop()); err == nil {
		t.Error("expected error for empty session key")
	}
}

func TestSignInRoundTrip(t *testing.T) {
	sm := newTestManager(t)

	// Sign in and capture the cookie.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	if err := sm.SignIn(rec, req, SessionUser{ID: "5738821234", Name: "Alex"}); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie")
	}

	// Replay the cookie through LoadSessionUser.
	var got *SessionUser
	handler := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = CurrentUser(r)
	}))
	req2 := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	for _, c := range cookies {
		req2.AddCookie(c)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req2)

	if got == nil {
		t.Fatal("expected user in context after sign-in")
	}
	if got.ID != "5738821234" || got.Name != "Alex" {
		t.Errorf("got user %+v, want ID=5738821234 Name=Alex", got)
	}
}

func TestRequireSignedIn_Unauthorized(t *testing.T) {
	sm := newTestManager(t)

	called := false
	handler := sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/feed", nil))

	if called {
		t.Error("handler ran without a signed-in user")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if !strings.Contains(rec.Body.String(), "sign in required") {
		t.Errorf("body = %q, want sign-in error", rec.Body.String())
	}
}

func TestRequireSignedIn_WithTestUser(t *testing.T) {
	sm := newTestManager(t)

	var got *SessionUser
	handler := sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = CurrentUser(r)
	}))

	req := WithTestUser(httptest.NewRequest(http.MethodGet, "/api/feed", nil),
		&SessionUser{ID: "15551234567", Name: "Sam"})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.ID != "15551234567" {
		t.Fatalf("got %+v, want injected test user", got)
	}
}

func TestSignOut(t *testing.T) {
	sm := newTestManager(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	if err := sm.SignOut(rec, req); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected an expiring cookie")
	}
	if cookies[0].MaxAge >= 0 {
		t.Errorf("cookie MaxAge = %d, want negative (expired)", cookies[0].MaxAge)
	}
}
