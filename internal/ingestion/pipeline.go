// Package ingestion implements the document ingestion pipeline.
// It reads documents from local files, directories, or HTTP(S) URLs, chunks
// the content, embeds each chunk, and upserts the results into the vector
// store. This pipeline is invoked by the `docqa ingest` CLI command.
package ingestion

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docqa-ai/docqa-go/internal/rag"
)

// Source describes a document source to be ingested.
type Source struct {
	// Location is a local file path, a directory, or an HTTP(S) URL.
	Location string

	// Tag overrides the inferred source tag for documents from this source.
	// Empty means infer from the location (base filename without extension).
	Tag string
}

// Config holds the configuration for the ingestion pipeline.
type Config struct {
	// ChunkSize is the maximum number of characters per document chunk.
	// Defaults to 1000 if zero.
	ChunkSize int

	// ChunkOverlap is the number of characters to overlap between consecutive chunks.
	// Defaults to 100 if zero.
	ChunkOverlap int

	// HTTPTimeout is the timeout for each URL fetch request.
	// Defaults to 30s if zero.
	HTTPTimeout time.Duration

	// UserAgent is the HTTP User-Agent header sent with fetch requests.
	UserAgent string
}

// Pipeline orchestrates the read → chunk → embed → upsert flow for a set of
// document sources.
type Pipeline struct {
	// embedder converts text chunks into dense vector embeddings.
	embedder rag.Embedder

	// store persists the embedded chunks.
	store rag.VectorStore

	// cfg holds the resolved pipeline configuration.
	cfg *Config

	// httpClient is the HTTP client used for fetching URL sources.
	httpClient *http.Client
}

// NewPipeline constructs a Pipeline from the provided dependencies and config.
func NewPipeline(embedder rag.Embedder, store rag.VectorStore, cfg *Config) (*Pipeline, error) {
	if embedder == nil {
		return nil, fmt.Errorf("ingestion: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("ingestion: store must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1000
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = 0
	}
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = cfg.ChunkSize / 10
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "docqa-go/1.0 (document ingestion)"
	}

	return &Pipeline{
		embedder: embedder,
		store:    store,
		cfg:      cfg,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
	}, nil
}

// Ingest reads, chunks, embeds, and stores all provided sources. Directory
// sources are expanded into one sub-source per readable text file. Sources
// are processed sequentially and the first error encountered is returned.
// Progress is reported via the optional progress callback.
func (p *Pipeline) Ingest(ctx context.Context, sources []Source, progress func(msg string)) error {
	if progress == nil {
		progress = func(string) {}
	}

	expanded, err := p.expand(sources)
	if err != nil {
		return err
	}

	for _, src := range expanded {
		progress(fmt.Sprintf("reading %s", src.Location))

		content, err := p.read(ctx, src.Location)
		if err != nil {
			return fmt.Errorf("ingestion: read failed for %s: %w", src.Location, err)
		}

		chunks := p.chunk(content)
		if len(chunks) == 0 {
			progress(fmt.Sprintf("skipping empty source %s", src.Location))
			continue
		}
		progress(fmt.Sprintf("chunked %s into %d chunks", src.Location, len(chunks)))

		embeddings, err := p.embedder.Embed(ctx, chunks)
		if err != nil {
			return fmt.Errorf("ingestion: embedding failed for %s: %w", src.Location, err)
		}

		tag := src.Tag
		if tag == "" {
			tag = SourceTag(src.Location)
		}
		meta := InferMetadata(src.Location)

		docs := make([]rag.Document, 0, len(chunks))
		for i, chunk := range chunks {
			docs = append(docs, rag.Document{
				ID:      chunkID(src.Location, i),
				Content: chunk,
				Source:  tag,
				Metadata: map[string]string{
					"location":    src.Location,
					"doc_type":    meta.DocType,
					"chunk_index": fmt.Sprintf("%d", i),
				},
			})
		}

		if err := p.store.Upsert(ctx, docs, embeddings); err != nil {
			return fmt.Errorf("ingestion: upsert failed for %s: %w", src.Location, err)
		}

		progress(fmt.Sprintf("ingested %d chunks from %s", len(chunks), src.Location))
	}

	return nil
}

// expand replaces directory sources with one source per contained text file.
// Non-directory sources pass through unchanged.
func (p *Pipeline) expand(sources []Source) ([]Source, error) {
	var out []Source
	for _, src := range sources {
		if isURL(src.Location) {
			out = append(out, src)
			continue
		}
		info, err := os.Stat(src.Location)
		if err != nil {
			return nil, fmt.Errorf("ingestion: stat %s: %w", src.Location, err)
		}
		if !info.IsDir() {
			out = append(out, src)
			continue
		}
		entries, err := os.ReadDir(src.Location)
		if err != nil {
			return nil, fmt.Errorf("ingestion: read dir %s: %w", src.Location, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !isTextFile(entry.Name()) {
				continue
			}
			out = append(out, Source{Location: filepath.Join(src.Location, entry.Name())})
		}
	}
	return out, nil
}

// read returns the raw text content of a file path or URL.
func (p *Pipeline) read(ctx context.Context, location string) (string, error) {
	if isURL(location) {
		return p.fetch(ctx, location)
	}
	data, err := os.ReadFile(location)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return string(data), nil
}

// fetch retrieves the raw text content of a URL.
func (p *Pipeline) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)
	req.Header.Set("Accept", "text/plain, text/html")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading body: %w", err)
	}

	return string(body), nil
}

// chunk splits text into overlapping chunks of cfg.ChunkSize characters.
func (p *Pipeline) chunk(text string) []string {
	text = strings.TrimSpace(text)
	if len(text) == 0 {
		return nil
	}

	var chunks []string
	size := p.cfg.ChunkSize
	overlap := p.cfg.ChunkOverlap

	for start := 0; start < len(text); start += size - overlap {
		end := start + size
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
		if end == len(text) {
			break
		}
	}

	return chunks
}

// chunkID generates a deterministic ID for a document chunk based on its
// source location and chunk index.
func chunkID(location string, index int) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s#%d", location, index)))
	return fmt.Sprintf("%x", h[:16])
}
