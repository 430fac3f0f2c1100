package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	t.Parallel()

	rl, stop := newRateLimiter(1, 3, testDiscardLogger())
	defer stop()

	h := rl.middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := range 3 {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}
}

func TestRateLimiter_RejectsOverBurst(t *testing.T) {
	t.Parallel()

	rl, stop := newRateLimiter(0.001, 1, testDiscardLogger())
	defer stop()

	h := rl.middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second request: expected 429, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "1" {
		t.Errorf("Retry-After = %q, want %q", got, "1")
	}
}

func TestRateLimiter_PerIPIsolation(t *testing.T) {
	t.Parallel()

	rl, stop := newRateLimiter(0.001, 1, testDiscardLogger())
	defer stop()

	h := rl.middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Exhaust IP A's bucket.
	reqA := httptest.NewRequest(http.MethodGet, "/", nil)
	reqA.RemoteAddr = "10.0.0.3:1"
	h.ServeHTTP(httptest.NewRecorder(), reqA)

	// IP B should still be allowed.
	reqB := httptest.NewRequest(http.MethodGet, "/", nil)
	reqB.RemoteAddr = "10.0.0.4:1"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, reqB)
	if w.Code != http.StatusOK {
		t.Errorf("different IP should not be limited, got %d", w.Code)
	}
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		addr string
		want string
	}{
		{"10.0.0.1:8080", "10.0.0.1"},
		{"[::1]:8080", "[::1]"},
		{"noport", "noport"},
	}
	for _, tc := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = tc.addr
		if got := clientIP(r); got != tc.want {
			t.Errorf("clientIP(%q) = %q, want %q", tc.addr, got, tc.want)
		}
	}
}

func TestHandleReady_AllProbesHealthy(t *testing.T) {
	t.Parallel()

	ok := PingerFunc("ollama", func(context.Context) error { return nil })
	s := newTestServer(t, &fakeAsker{answer: "x"}, &Config{Pingers: []Pinger{ok}})

	req := httptest.NewRequest(http.MethodGet, "/api/ready", nil)
	w := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandleReady_FailingProbeIs503(t *testing.T) {
	t.Parallel()

	bad := PingerFunc("qdrant", func(context.Context) error { return fmt.Errorf("connection refused") })
	s := newTestServer(t, &fakeAsker{answer: "x"}, &Config{Pingers: []Pinger{bad}})

	req := httptest.NewRequest(http.MethodGet, "/api/ready", nil)
	w := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}

func TestMultiPinger_FirstFailureWins(t *testing.T) {
	t.Parallel()

	a := PingerFunc("a", func(context.Context) error { return nil })
	b := PingerFunc("b", func(context.Context) error { return fmt.Errorf("down") })
	m := NewMultiPinger(a, b)

	err := m.Ping(context.Background())
	if err == nil {
		t.Fatal("expected error from failing pinger")
	}
}

// testDiscardLogger returns a quiet structured logger for middleware tests.
func testDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
