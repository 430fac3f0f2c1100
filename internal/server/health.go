package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/docqa-ai/docqa-go/internal/logging"
)

// probeTimeout bounds each dependency probe during a readiness check, so
// /api/ready answers promptly when a dependency hangs instead of refusing.
const probeTimeout = 5 * time.Second

// Pinger is implemented by any dependency that can report its own
// reachability: nil when healthy, a descriptive error otherwise.
// Implementations must be safe for concurrent use.
type Pinger interface {
	// Ping checks reachability within the given context.
	Ping(ctx context.Context) error

	// Name is a short label used in readiness responses ("ollama", "qdrant").
	Name() string
}

// MultiPinger runs several probes as one, failing on the first unhealthy
// dependency.
type MultiPinger struct {
	pingers []Pinger
}

// NewMultiPinger constructs a MultiPinger over the given probes.
func NewMultiPinger(pingers ...Pinger) *MultiPinger {
	return &MultiPinger{pingers: pingers}
}

// Ping probes each dependency in order and returns the first failure,
// prefixed with the dependency's name.
func (m *MultiPinger) Ping(ctx context.Context) error {
	for _, p := range m.pingers {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("%s: %w", p.Name(), err)
		}
	}
	return nil
}

func (m *MultiPinger) Name() string { return "multi" }

// readyCheck is one dependency's result in the /api/ready response.
type readyCheck struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// readyResponse is the JSON body for GET /api/ready.
type readyResponse struct {
	Ready  bool         `json:"ready"`
	Checks []readyCheck `json:"checks"`
}

// handleReady probes every registered dependency and reports 200 only when
// all of them are reachable, 503 otherwise. /api/health answers liveness;
// this endpoint answers "can an ask succeed right now".
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	resp := readyResponse{Ready: true}
	for _, p := range s.pingers {
		resp.Checks = append(resp.Checks, s.probe(r.Context(), p, log))
	}
	for _, c := range resp.Checks {
		if !c.OK {
			resp.Ready = false
			break
		}
	}

	status := http.StatusOK
	if !resp.Ready {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error("ready encode error", slog.Any("error", err))
	}
}

// probe runs a single dependency check under the probe timeout.
func (s *Server) probe(ctx context.Context, p Pinger, log *slog.Logger) readyCheck {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	check := readyCheck{Name: p.Name(), OK: true}
	if err := p.Ping(probeCtx); err != nil {
		check.OK = false
		check.Error = err.Error()
		log.Warn("readiness probe failed",
			slog.String("dependency", p.Name()),
			slog.Any("error", err),
		)
	}
	return check
}
