package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAllowPerClient(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 60, Burst: 3})

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.1.1.1") {
			t.Fatalf("request %d should be allowed within burst", i+1)
		}
	}
	if rl.Allow("1.1.1.1") {
		t.Fatal("fourth immediate request should be limited")
	}
	if !rl.Allow("2.2.2.2") {
		t.Fatal("other clients have their own bucket")
	}
	if rl.ActiveClients() != 2 {
		t.Fatalf("active clients = %d, want 2", rl.ActiveClients())
	}
	if m := rl.GetMetrics(); m.Rejected != 1 || m.ClientCount != 2 {
		t.Fatalf("unexpected metrics: %+v", m)
	}
}

func TestDefaultsApplied(t *testing.T) {
	rl := NewLimiter(Config{})
	if rl.burst != 60 {
		t.Fatalf("burst = %d, want 60", rl.burst)
	}
}

func TestMiddleware(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1, Burst: 1})
	h := rl.Middleware(func(*http.Request) string { return "ip" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusCreated) }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("first request: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("Retry-After header missing")
	}

	called := false
	custom := rl.Middleware(func(*http.Request) string { return "ip" }, func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	})(http.NotFoundHandler())
	rec = httptest.NewRecorder()
	custom.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if !called || rec.Code != http.StatusNoContent {
		t.Fatalf("custom onLimit not used: called=%v code=%d", called, rec.Code)
	}
}
