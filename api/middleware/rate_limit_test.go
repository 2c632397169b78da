package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeLimiterStore struct {
	counts map[string]int64
	err    error
}

func (f *fakeLimiterStore) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	if f.counts == nil {
		f.counts = make(map[string]int64)
	}
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitBlocksOrgOverLimit(t *testing.T) {
	store := &fakeLimiterStore{}
	policy := NewRateLimitPolicy("agent", time.Minute, 2, 0)
	handler := RateLimit(policy, store, nil)(okHandler())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/agent/messages", nil)
		req = req.WithContext(WithOrgID(req.Context(), "org-1"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200 got %d", i+1, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/agent/messages", nil)
	req = req.WithContext(WithOrgID(req.Context(), "org-1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", rec.Code)
	}
}

func TestRateLimitScopesPerOrganization(t *testing.T) {
	store := &fakeLimiterStore{}
	policy := NewRateLimitPolicy("agent", time.Minute, 1, 0)
	handler := RateLimit(policy, store, nil)(okHandler())

	for _, org := range []string{"org-a", "org-b"} {
		req := httptest.NewRequest(http.MethodPost, "/agent/messages", nil)
		req = req.WithContext(WithOrgID(req.Context(), org))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("org %s should have its own window, got %d", org, rec.Code)
		}
	}
}

func TestRateLimitBlocksIPOverLimit(t *testing.T) {
	store := &fakeLimiterStore{}
	policy := NewRateLimitPolicy("agent", time.Minute, 0, 1)
	handler := RateLimit(policy, store, nil)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/agent/messages", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/agent/messages", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", rec.Code)
	}
}

func TestRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	store := &fakeLimiterStore{}
	handler := RateLimit(NewRateLimitPolicy("agent", 0, 10, 10), store, nil)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/agent/messages", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if len(store.counts) != 0 {
		t.Fatalf("store should not be consulted when disabled")
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:4455"
	req.Header.Set("X-Forwarded-For", " 198.51.100.7 , 10.0.0.2")
	if got := clientIP(req); got != "198.51.100.7" {
		t.Fatalf("unexpected ip %q", got)
	}

	req.Header.Del("X-Forwarded-For")
	if got := clientIP(req); got != "10.0.0.1" {
		t.Fatalf("unexpected ip %q", got)
	}
}
