package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/memoria/internal/app/system/auth"
)

func TestLimiter_WindowExpires(t *testing.T) {
	l := New(2, time.Minute)
	defer l.Close()
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("first two requests should pass")
	}
	if l.Allow("a") {
		t.Fatal("third request should be limited")
	}
	if !l.Allow("b") {
		t.Error("other keys have their own window")
	}
	if got := l.Remaining("a"); got != 0 {
		t.Errorf("Remaining = %d, want 0", got)
	}

	clock = clock.Add(2 * time.Minute)
	if !l.Allow("a") {
		t.Error("window should have expired")
	}
}

func TestMiddleware(t *testing.T) {
	l := New(1, time.Minute)
	defer l.Close()
	h := Middleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(method, user string) int {
		req := httptest.NewRequest(method, "/entries", nil)
		if user != "" {
			req = auth.WithTestUser(req, &auth.SessionUser{ID: user, Role: "member"})
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := call(http.MethodPost, "u1"); code != http.StatusNoContent {
		t.Fatalf("first POST = %d", code)
	}
	if code := call(http.MethodPost, "u1"); code != http.StatusTooManyRequests {
		t.Fatalf("second POST = %d, want 429", code)
	}
	if code := call(http.MethodGet, "u1"); code != http.StatusNoContent {
		t.Errorf("GET should not be limited, got %d", code)
	}
	if code := call(http.MethodPost, "u2"); code != http.StatusNoContent {
		t.Errorf("another user POST = %d", code)
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	if got := ClientIP(r); got != "10.0.0.1" {
		t.Errorf("RemoteAddr: got %q", got)
	}
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.2")
	if got := ClientIP(r); got != "203.0.113.9" {
		t.Errorf("X-Forwarded-For: got %q", got)
	}
}
