package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/eino/callbacks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/docqa-ai/docqa-go/internal/embedder"
	"github.com/docqa-ai/docqa-go/internal/logging"
	"github.com/docqa-ai/docqa-go/internal/rag"
	"github.com/docqa-ai/docqa-go/internal/server"
	"github.com/docqa-ai/docqa-go/internal/tracing"
)

// NewServeCmd constructs the `docqa serve` command, which starts the HTTP
// server exposing the answer pipeline as a JSON API.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the docqa HTTP server",
		Long: `Start the docqa HTTP server on localhost.

The server exposes POST /api/ask for question answering against the ingested
corpus, plus health, readiness, and Prometheus metrics endpoints. Requires a
running Qdrant instance populated by 'docqa ingest'.

Examples:
  docqa serve
  docqa serve --port 9090
  MODEL_PROVIDER=azure docqa serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			log.Info("serve starting", slog.String("provider", os.Getenv("MODEL_PROVIDER")))

			// Setup Langfuse tracing — opt-in, no-op if keys are absent.
			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
				log.Info("langfuse tracing enabled")
			} else {
				log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY not set"))
			}

			if err := embedder.Validate(log); err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			store, err := buildStore(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer func() { _ = store.Close() }()

			if _, inMemory := store.(*rag.MemoryIndex); inMemory {
				log.Warn("serving with an empty in-memory index — set QDRANT_HOST to answer from an ingested collection")
			}

			pipe, err := buildAnswerPipeline(ctx, log, store, 0)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			var asker server.Asker = pipe
			if hs := openHistory(log); hs != nil {
				defer func() { _ = hs.Close() }()
				asker = &recordingAsker{inner: pipe, store: hs, corpus: corpusName(), log: log}
			}

			var pingers []server.Pinger
			if getEnvOrDefault("MODEL_PROVIDER", "ollama") == "ollama" {
				ollamaHost := getEnvOrDefault("OLLAMA_HOST", "http://localhost:11434")
				pingers = append(pingers, server.NewHTTPPinger(ollamaHost, "ollama"))
			}
			if qs, ok := store.(*rag.QdrantStore); ok {
				pingers = append(pingers, server.NewQdrantPinger(qs.Client()))
			}

			srv, err := server.New(asker, &server.Config{
				Host:    host,
				Port:    port,
				Logger:  log,
				Pingers: pingers,
				APIKey:  os.Getenv("DOCQA_API_KEY"),
			}, prometheus.NewRegistry())
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "TCP port to listen on")

	return cmd
}
