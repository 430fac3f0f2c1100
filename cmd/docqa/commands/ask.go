package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/docqa-ai/docqa-go/internal/embedder"
	"github.com/docqa-ai/docqa-go/internal/history"
	"github.com/docqa-ai/docqa-go/internal/ingestion"
	"github.com/docqa-ai/docqa-go/internal/logging"
	"github.com/docqa-ai/docqa-go/internal/rag"
)

// NewAskCmd constructs the `docqa ask` command, which answers a single
// natural language question against the ingested corpus and prints the
// answer to stdout.
func NewAskCmd() *cobra.Command {
	var sources []string
	var topK int

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question about your documents",
		Long: `Answer a natural language question using the ingested document corpus.

With QDRANT_HOST set, the question is answered against the persistent Qdrant
collection populated by 'docqa ingest'. Without it, pass one or more --source
flags: the documents are indexed in-memory for this invocation only.

Examples:
  docqa ask --source ./docs "how do I rotate the signing key?"
  docqa ask --source ./bio.txt --source ./cv.txt "where did Robert study?"
  QDRANT_HOST=localhost docqa ask "what does the retry policy guarantee?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			if err := embedder.Validate(log); err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			store, err := buildStore(ctx, log)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer func() { _ = store.Close() }()

			if _, inMemory := store.(*rag.MemoryIndex); inMemory && len(sources) == 0 {
				return fmt.Errorf("ask: no corpus available — pass --source, or set QDRANT_HOST to use an ingested collection")
			}

			if len(sources) > 0 {
				if err := ingestSources(ctx, log, store, sources, ""); err != nil {
					return fmt.Errorf("ask: %w", err)
				}
			}

			pipe, err := buildAnswerPipeline(ctx, log, store, topK)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			question := args[0]
			answer, err := pipe.Answer(ctx, question)
			if err != nil {
				return err //nolint:wrapcheck // CLI entry point — error goes directly to cobra
			}

			fmt.Fprintln(os.Stdout, answer)

			if hs := openHistory(log); hs != nil {
				defer func() { _ = hs.Close() }()
				if err := hs.Append(ctx, history.Entry{
					Question: question,
					Answer:   answer,
					Sources:  sources,
					Corpus:   corpusName(),
				}); err != nil {
					log.Warn("history: failed to record answer", slog.Any("error", err))
				}
			}

			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&sources, "source", "s", nil, "Document file, directory, or URL to index before answering (repeatable)")
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "Number of documents to retrieve as context (default: DOCQA_TOP_K or 1)")

	return cmd
}

// ingestSources runs the ingestion pipeline for the given locations against
// the store, using the chunking policy from the environment.
func ingestSources(ctx context.Context, log *slog.Logger, store rag.VectorStore, locations []string, tag string) error {
	emb, err := embedder.NewFromEnv(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialise embedder: %w", err)
	}

	pipe, err := ingestion.NewPipeline(emb, store, &ingestion.Config{
		ChunkSize:    getEnvInt("DOCQA_CHUNK_SIZE", 0),
		ChunkOverlap: getEnvInt("DOCQA_CHUNK_OVERLAP", 0),
	})
	if err != nil {
		return fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}

	srcs := make([]ingestion.Source, 0, len(locations))
	for _, loc := range locations {
		srcs = append(srcs, ingestion.Source{Location: loc, Tag: tag})
	}

	return pipe.Ingest(ctx, srcs, func(msg string) {
		log.Info(msg)
	})
}
