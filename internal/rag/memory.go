package rag

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryIndex is a VectorStore backed by a brute-force in-memory linear scan.
// It is the default store for small private corpora, where scanning every
// vector is both the simplest and the fastest option — there is no index
// build cost and no recall loss. Corpora beyond a few hundred thousand
// vectors should use the Qdrant store instead, which maintains an ANN index.
//
// Usage follows a build-then-serve ordering: all inserts happen during the
// ingestion phase, after which the index is read-only. Search is safe for
// concurrent callers; Upsert takes the write lock and must not overlap with
// in-flight searches the caller depends on.
//
// The dimensionality of the index is established by the first inserted
// vector and enforced on every subsequent insert.
type MemoryIndex struct {
	mu sync.RWMutex

	// metric is the fixed comparison function for this index instance.
	metric Metric

	// dim is the established dimensionality; 0 until the first insert.
	dim int

	// vectors[i] is the embedding for docs[i]. Append order is preserved
	// and serves as the tie-break for equal distances.
	vectors [][]float32
	docs    []Document
}

// NewMemoryIndex constructs an empty MemoryIndex using the given metric.
func NewMemoryIndex(metric Metric) *MemoryIndex {
	if metric == "" {
		metric = MetricEuclidean
	}
	return &MemoryIndex{metric: metric}
}

// Insert embeds a single document via the provided embedder and appends it
// to the index. The document's vector must match the established
// dimensionality; on ErrDimensionMismatch the index is left unchanged.
func (m *MemoryIndex) Insert(ctx context.Context, doc Document, embedder Embedder) error {
	embeddings, err := embedder.Embed(ctx, []string{doc.Content})
	if err != nil {
		return fmt.Errorf("rag: embedding document %q failed: %w", doc.Source, err)
	}
	if len(embeddings) != 1 {
		return fmt.Errorf("rag: embedder returned %d vectors for one document", len(embeddings))
	}
	return m.Upsert(ctx, []Document{doc}, embeddings)
}

// Upsert appends a batch of documents with their pre-computed embeddings.
// The whole batch is validated before anything is appended, so a failed
// call leaves the index exactly as it was.
func (m *MemoryIndex) Upsert(_ context.Context, docs []Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("rag: %d documents but %d embeddings", len(docs), len(embeddings))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	dim := m.dim
	for i, vec := range embeddings {
		if len(vec) == 0 {
			return fmt.Errorf("rag: empty embedding for document %q", docs[i].Source)
		}
		if dim == 0 {
			dim = len(vec)
			continue
		}
		if len(vec) != dim {
			return fmt.Errorf("rag: document %q has dimension %d, index has %d: %w",
				docs[i].Source, len(vec), dim, ErrDimensionMismatch)
		}
	}

	m.dim = dim
	m.docs = append(m.docs, docs...)
	m.vectors = append(m.vectors, embeddings...)
	return nil
}

// Search scans every stored vector and returns the topK documents with the
// smallest distance to the query, ordered by non-decreasing distance.
// Equal distances preserve insertion order. If topK exceeds the number of
// stored documents, all documents are returned. Each returned Document
// carries the distance in its Score field (lower is better).
func (m *MemoryIndex) Search(_ context.Context, queryEmbedding []float32, topK int) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.docs) == 0 {
		return nil, ErrEmptyIndex
	}
	if len(queryEmbedding) != m.dim {
		return nil, fmt.Errorf("rag: query has dimension %d, index has %d: %w",
			len(queryEmbedding), m.dim, ErrDimensionMismatch)
	}
	if topK <= 0 {
		topK = 1
	}
	if topK > len(m.docs) {
		topK = len(m.docs)
	}

	order := make([]int, len(m.docs))
	dists := make([]float64, len(m.docs))
	for i, vec := range m.vectors {
		order[i] = i
		dists[i] = distance(m.metric, queryEmbedding, vec)
	}

	// SliceStable keeps insertion order for exactly equal distances, which
	// makes duplicate documents rank deterministically.
	sort.SliceStable(order, func(a, b int) bool {
		return dists[order[a]] < dists[order[b]]
	})

	results := make([]Document, 0, topK)
	for _, idx := range order[:topK] {
		doc := m.docs[idx]
		doc.Score = float32(dists[idx])
		results = append(results, doc)
	}
	return results, nil
}

// Len returns the number of documents currently stored.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// Dimension returns the established vector dimensionality, or 0 if the
// index is still empty.
func (m *MemoryIndex) Dimension() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dim
}

// Close releases nothing — the index lives and dies with the process.
func (m *MemoryIndex) Close() error { return nil }

// distance computes the configured distance between two vectors of equal
// length. Cosine distance is 1 - cosine similarity, so both metrics agree
// that smaller means closer.
func distance(metric Metric, a, b []float32) float64 {
	switch metric {
	case MetricCosine:
		var dot, na, nb float64
		for i := range a {
			dot += float64(a[i]) * float64(b[i])
			na += float64(a[i]) * float64(a[i])
			nb += float64(b[i]) * float64(b[i])
		}
		if na == 0 || nb == 0 {
			return 1
		}
		return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
	default:
		var sum float64
		for i := range a {
			d := float64(a[i]) - float64(b[i])
			sum += d * d
		}
		return math.Sqrt(sum)
	}
}
