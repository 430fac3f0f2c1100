package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/qdrant/go-client/qdrant"
)

// HTTPPinger probes an HTTP endpoint (e.g. an Ollama or embedding API base
// URL) with a GET request. It satisfies the Pinger interface and is used by
// GET /api/ready. Unlike a Generate-based probe it never consumes tokens.
type HTTPPinger struct {
	// url is the endpoint probed with a GET request.
	url string
	// name identifies the dependency in readiness responses (e.g. "ollama").
	name string
	// client is the HTTP client with a short timeout.
	client *http.Client
}

// NewHTTPPinger constructs an HTTPPinger for the given base URL and label.
func NewHTTPPinger(url, name string) *HTTPPinger {
	return &HTTPPinger{
		url:    url,
		name:   name,
		client: &http.Client{Timeout: probeTimeout},
	}
}

// Name returns the dependency label used in readiness responses.
func (p *HTTPPinger) Name() string { return p.name }

// Ping issues a GET request to the endpoint and reports any non-5xx response
// as healthy. 4xx responses still prove the dependency is up and reachable.
func (p *HTTPPinger) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("unhealthy: HTTP %d", resp.StatusCode)
	}
	return nil
}

// QdrantPinger probes a Qdrant instance using its native HealthCheck RPC.
// It satisfies the Pinger interface and is used by GET /api/ready.
type QdrantPinger struct {
	// client is the Qdrant gRPC client to probe.
	client *qdrant.Client
}

// NewQdrantPinger constructs a QdrantPinger for the given Qdrant client.
func NewQdrantPinger(client *qdrant.Client) *QdrantPinger {
	return &QdrantPinger{client: client}
}

// Name returns the dependency label used in readiness responses.
func (p *QdrantPinger) Name() string { return "qdrant" }

// Ping calls the Qdrant HealthCheck RPC.
// Returns nil if Qdrant is reachable, or a descriptive error otherwise.
func (p *QdrantPinger) Ping(ctx context.Context) error {
	_, err := p.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// pingerFunc adapts a plain function into a Pinger. Useful in tests and for
// ad-hoc probes.
type pingerFunc struct {
	name string
	fn   func(ctx context.Context) error
}

// PingerFunc wraps fn as a named Pinger.
func PingerFunc(name string, fn func(ctx context.Context) error) Pinger {
	return &pingerFunc{name: name, fn: fn}
}

func (p *pingerFunc) Name() string                   { return p.name }
func (p *pingerFunc) Ping(ctx context.Context) error { return p.fn(ctx) }
