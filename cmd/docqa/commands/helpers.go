package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/docqa-ai/docqa-go/internal/embedder"
	"github.com/docqa-ai/docqa-go/internal/history"
	"github.com/docqa-ai/docqa-go/internal/llm"
	"github.com/docqa-ai/docqa-go/internal/pipeline"
	"github.com/docqa-ai/docqa-go/internal/prompt"
	"github.com/docqa-ai/docqa-go/internal/provider"
	"github.com/docqa-ai/docqa-go/internal/rag"
	"github.com/docqa-ai/docqa-go/internal/server"
)

// buildStore constructs the vector store shared by ask, ingest, and serve.
// When QDRANT_HOST is set the documents live in a Qdrant collection;
// otherwise an in-memory index is used, which only holds documents ingested
// in the same process.
func buildStore(ctx context.Context, log *slog.Logger) (rag.VectorStore, error) {
	qdrantHost := os.Getenv("QDRANT_HOST")
	metric, err := rag.ParseMetric(os.Getenv("DOCQA_DISTANCE_METRIC"))
	if err != nil {
		return nil, err
	}

	if qdrantHost == "" {
		log.Info("vector store: in-memory index", slog.String("metric", string(metric)))
		return rag.NewMemoryIndex(metric), nil
	}

	qdrantPort := getEnvInt("QDRANT_PORT", 6334)
	collection := corpusName()
	embBackend := getEnvOrDefault("EMBEDDING_PROVIDER", getEnvOrDefault("MODEL_PROVIDER", "ollama"))
	vectorSize := uint64(getEnvInt("EMBEDDING_DIMENSIONS", embedder.DefaultDimensions(embBackend))) //nolint:gosec // dimensions are bounded

	store, err := rag.NewQdrantStore(ctx, &rag.QdrantConfig{
		Host:       qdrantHost,
		Port:       qdrantPort,
		Collection: collection,
		VectorSize: vectorSize,
		Metric:     metric,
		APIKey:     os.Getenv("QDRANT_API_KEY"),
		UseTLS:     os.Getenv("QDRANT_TLS") == "true",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant at %s:%d: %w", qdrantHost, qdrantPort, err)
	}
	log.Info("vector store: qdrant",
		slog.String("host", qdrantHost),
		slog.Int("port", qdrantPort),
		slog.String("collection", collection),
		slog.String("metric", string(metric)),
	)
	return store, nil
}

// buildAnswerPipeline wires the retriever, prompt assembler, and generation
// invoker into a compiled answer pipeline over the given store. topK ≤ 0
// falls back to DOCQA_TOP_K (default 1).
func buildAnswerPipeline(ctx context.Context, log *slog.Logger, store rag.VectorStore, topK int) (*pipeline.Pipeline, error) {
	chatModel, err := provider.NewFromEnv(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise model provider: %w", err)
	}
	log.Info("provider initialised", slog.String("provider", getEnvOrDefault("MODEL_PROVIDER", "ollama")))

	generator, err := llm.NewModelInvoker(chatModel, getEnvInt("DOCQA_MAX_INPUT_TOKENS", 0))
	if err != nil {
		return nil, err
	}

	emb, err := embedder.NewFromEnv(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise embedder: %w", err)
	}

	if topK <= 0 {
		topK = getEnvInt("DOCQA_TOP_K", 1)
	}

	retriever, err := rag.NewRetriever(emb, store, topK)
	if err != nil {
		return nil, err
	}

	assembler, err := prompt.New(prompt.Style(os.Getenv("DOCQA_PROMPT_STYLE")), os.Getenv("DOCQA_PROMPT_TEMPLATE"))
	if err != nil {
		return nil, err
	}

	return pipeline.New(ctx, &pipeline.Config{
		Retriever: retriever,
		Assembler: assembler,
		Generator: generator,
		TopK:      topK,
		Params: llm.Params{
			MaxOutputTokens: getEnvInt("DOCQA_MAX_OUTPUT_TOKENS", 0),
			Truncate:        os.Getenv("DOCQA_TRUNCATE") == "true",
		},
	})
}

// corpusName is the label under which answers and documents are grouped.
// It doubles as the Qdrant collection name when Qdrant is in use.
func corpusName() string {
	return getEnvOrDefault("QDRANT_COLLECTION", "docqa-docs")
}

// recordingAsker wraps an Asker and appends every successful answer to the
// history store. Recording failures are logged, never surfaced: history is
// an audit trail, not part of the answer path.
type recordingAsker struct {
	inner  server.Asker
	store  history.Store
	corpus string
	log    *slog.Logger
}

func (a *recordingAsker) Answer(ctx context.Context, query string) (string, error) {
	answer, err := a.inner.Answer(ctx, query)
	if err != nil {
		return "", err
	}
	if appendErr := a.store.Append(ctx, history.Entry{
		Question: query,
		Answer:   answer,
		Corpus:   a.corpus,
	}); appendErr != nil {
		a.log.Warn("history: failed to record answer", slog.Any("error", appendErr))
	}
	return answer, nil
}

// openHistory opens the answer history store. DOCQA_HISTORY_DB overrides the
// default path (~/.docqa/history.db). Set to "disabled" to turn history off.
// Returns nil (with no error) when history is disabled or unavailable.
func openHistory(log *slog.Logger) history.Store {
	dbPath := os.Getenv("DOCQA_HISTORY_DB")
	if dbPath == "disabled" {
		log.Info("history: disabled via DOCQA_HISTORY_DB=disabled")
		return nil
	}
	if dbPath == "" {
		p, err := history.DefaultDBPath()
		if err != nil {
			log.Warn("history: could not resolve default DB path, disabling", slog.Any("error", err))
			return nil
		}
		dbPath = p
	}
	hs, err := history.Open(dbPath)
	if err != nil {
		log.Warn("history: failed to open store, disabling", slog.Any("error", err))
		return nil
	}
	log.Info("history: store opened", slog.String("path", dbPath))
	return hs
}

// getEnvOrDefault returns the value of the named environment variable, or
// fallback when unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the named environment variable parsed as an int, or
// fallback when unset or unparsable.
func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
