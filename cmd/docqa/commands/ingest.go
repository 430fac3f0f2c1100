package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/docqa-ai/docqa-go/internal/embedder"
	"github.com/docqa-ai/docqa-go/internal/logging"
	"github.com/docqa-ai/docqa-go/internal/rag"
)

// NewIngestCmd constructs the `docqa ingest` command, which chunks, embeds,
// and indexes documents into the Qdrant vector store.
func NewIngestCmd() *cobra.Command {
	var sources []string
	var tag string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest documents into the vector store",
		Long: `Chunk, embed, and index documents into the Qdrant vector store.

Ingested documents are retrieved as context when answering questions with
'docqa ask' or through the HTTP API. Sources can be local text files,
directories (recursed, non-text files skipped), or HTTP(S) URLs.

Ingest requires a running Qdrant instance: the in-memory index does not
outlive the process, so there is nothing for a later 'ask' to find.

Required environment variables:
  QDRANT_HOST          Qdrant server hostname
  QDRANT_PORT          Qdrant gRPC port (default: 6334)
  QDRANT_COLLECTION    Collection name (default: docqa-docs)
  QDRANT_API_KEY       Optional API key for authenticated clusters
  MODEL_PROVIDER       Embedding backend: ollama, openai, azure, gemini (default: ollama)
  EMBEDDING_*          Provider-specific overrides (see README)

Chunking is controlled by DOCQA_CHUNK_SIZE (default 1000 characters) and
DOCQA_CHUNK_OVERLAP (default 100). The source tag stored with each chunk is
inferred from the file name; --tag overrides it for every source.

Examples:
  docqa ingest --source ./docs
  docqa ingest --source ./handbook.md --source https://example.com/faq.html
  docqa ingest --tag onboarding --source ./onboarding`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			if len(sources) == 0 {
				return fmt.Errorf("ingest: at least one --source is required")
			}

			if err := embedder.Validate(log); err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			store, err := buildStore(ctx, log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer func() { _ = store.Close() }()

			if _, inMemory := store.(*rag.MemoryIndex); inMemory {
				return fmt.Errorf("ingest: QDRANT_HOST is not set — the in-memory index does not persist, so ingestion would be lost on exit")
			}

			log.Info("starting ingestion", slog.Int("sources", len(sources)))

			if err := ingestSources(ctx, log, store, sources, tag); err != nil {
				return fmt.Errorf("ingest: pipeline failed: %w", err)
			}

			log.Info("ingestion complete", slog.Int("sources", len(sources)))
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&sources, "source", "s", nil, "Document file, directory, or URL to ingest (repeatable)")
	cmd.Flags().StringVarP(&tag, "tag", "t", "", "Source tag stored with every ingested chunk (default: inferred from file name)")

	return cmd
}
