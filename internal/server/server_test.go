package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/docqa-ai/docqa-go/internal/rag"
)

// fakeAsker implements the Asker interface for tests.
type fakeAsker struct {
	// answer is returned verbatim on each Answer call.
	answer string
	// err is returned as the error value.
	err error
	// lastQuery records the most recent query received.
	lastQuery string
}

func (f *fakeAsker) Answer(_ context.Context, query string) (string, error) {
	f.lastQuery = query
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

// newTestServer builds a *Server wired with the given asker fake and a fresh
// metrics registry.
func newTestServer(t *testing.T, a Asker, cfg *Config) *Server {
	t.Helper()
	s, err := New(a, cfg, prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.stopRL)
	return s
}

func postAsk(s *Server, body string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, m := range mutate {
		m(req)
	}
	w := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(w, req)
	return w
}

func TestHandleAsk_ReturnsAnswer(t *testing.T) {
	t.Parallel()

	fake := &fakeAsker{answer: "Robert lives in London."}
	s := newTestServer(t, fake, nil)

	w := postAsk(s, `{"question":"Where does Robert live?"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp askResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Answer != "Robert lives in London." {
		t.Errorf("answer = %q", resp.Answer)
	}
	if resp.Question != "Where does Robert live?" {
		t.Errorf("question echo = %q", resp.Question)
	}
	if fake.lastQuery != "Where does Robert live?" {
		t.Errorf("asker received %q", fake.lastQuery)
	}
}

func TestHandleAsk_MissingQuestion(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeAsker{answer: "x"}, nil)
	w := postAsk(s, `{}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestHandleAsk_InvalidJSON(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeAsker{answer: "x"}, nil)
	w := postAsk(s, `not-json`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestHandleAsk_EmptyIndexIsConflict(t *testing.T) {
	t.Parallel()

	fake := &fakeAsker{err: fmt.Errorf("retrieve: %w", rag.ErrEmptyIndex)}
	s := newTestServer(t, fake, nil)
	w := postAsk(s, `{"question":"anything"}`)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

func TestHandleAsk_BackendFailureIsBadGateway(t *testing.T) {
	t.Parallel()

	fake := &fakeAsker{err: fmt.Errorf("backend exploded")}
	s := newTestServer(t, fake, nil)
	w := postAsk(s, `{"question":"anything"}`)

	if w.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", w.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeAsker{answer: "x"}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeAsker{answer: "x"}, nil)

	// Drive one ask so the counter has a sample.
	postAsk(s, `{"question":"q"}`)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "docqa_ask_requests_total") {
		t.Error("metrics output missing docqa_ask_requests_total")
	}
}

func TestNew_NilAskerRejected(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, nil, prometheus.NewRegistry()); err == nil {
		t.Fatal("expected error for nil asker, got nil")
	}
}
