// Package rag defines the interfaces and core types for retrieval-augmented
// generation: vector storage, document retrieval, and embedding. Concrete
// implementations (the in-memory index, Qdrant) satisfy these interfaces so
// the pipeline layer never depends on a specific backend.
package rag

import (
	"context"
	"fmt"
)

// Document is an immutable unit of retrievable content. Documents are created
// at ingestion time and never mutated afterwards.
type Document struct {
	// ID is the unique identifier for this document chunk.
	ID string

	// Content is the raw text content of the chunk.
	Content string

	// Source is the provenance tag of the document (file name, URL, label).
	Source string

	// Metadata holds arbitrary key-value pairs (corpus name, chunk index, etc.).
	Metadata map[string]string

	// Score is the retrieval score assigned during search. For distance-based
	// stores lower is better; each store documents its own convention.
	// Zero value means the score was not computed.
	Score float32
}

// Metric selects the vector comparison function used by a store.
type Metric string

const (
	// MetricEuclidean ranks by Euclidean (L2) distance.
	MetricEuclidean Metric = "euclidean"
	// MetricCosine ranks by cosine distance (1 - cosine similarity).
	MetricCosine Metric = "cosine"
)

// ParseMetric converts a configuration string into a Metric.
// The empty string defaults to euclidean.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case "", MetricEuclidean:
		return MetricEuclidean, nil
	case MetricCosine:
		return MetricCosine, nil
	default:
		return "", fmt.Errorf("rag: unknown distance metric %q — valid values: euclidean, cosine", s)
	}
}

// VectorStore is the interface for storing and searching document embeddings.
// The read path (Search) must be safe to call from multiple goroutines once
// ingestion has completed.
type VectorStore interface {
	// Upsert stores a batch of documents with their pre-computed embeddings.
	// The embeddings slice must be parallel to docs — embeddings[i] is the
	// vector for docs[i].
	Upsert(ctx context.Context, docs []Document, embeddings [][]float32) error

	// Search returns the top-k documents nearest to the query embedding,
	// ordered best-first. Searching an empty store fails with ErrEmptyIndex.
	Search(ctx context.Context, queryEmbedding []float32, topK int) ([]Document, error)

	// Close releases any resources held by the store.
	Close() error
}

// Embedder is the interface for converting text into dense vector embeddings.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Retriever is the high-level interface used by the pipeline to fetch
// relevant context for a query. It combines embedding and vector search.
type Retriever interface {
	// Retrieve returns the top-k most relevant documents for the given query.
	Retrieve(ctx context.Context, query string, topK int) ([]Document, error)
}
