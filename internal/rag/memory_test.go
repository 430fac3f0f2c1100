package rag

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

// upsertAll is a test helper that inserts docs one at a time so insertion
// order is explicit.
func upsertAll(t *testing.T, idx *MemoryIndex, docs []Document, vecs [][]float32) {
	t.Helper()
	ctx := context.Background()
	for i := range docs {
		if err := idx.Upsert(ctx, docs[i:i+1], vecs[i:i+1]); err != nil {
			t.Fatalf("upsert doc %d: %v", i, err)
		}
	}
}

func Test_MemoryIndex_SearchOrdersByDistance(t *testing.T) {
	t.Parallel()
	idx := NewMemoryIndex(MetricEuclidean)
	docs := []Document{
		{ID: "a", Content: "far", Source: "a"},
		{ID: "b", Content: "near", Source: "b"},
		{ID: "c", Content: "mid", Source: "c"},
	}
	vecs := [][]float32{
		{10, 0},
		{1, 0},
		{5, 0},
	}
	upsertAll(t, idx, docs, vecs)

	for k := 1; k <= len(docs); k++ {
		results, err := idx.Search(context.Background(), []float32{0, 0}, k)
		if err != nil {
			t.Fatalf("search k=%d: %v", k, err)
		}
		if len(results) != k {
			t.Fatalf("k=%d: want %d results, got %d", k, k, len(results))
		}
		for i := 1; i < len(results); i++ {
			if results[i].Score < results[i-1].Score {
				t.Errorf("k=%d: results not ordered by non-decreasing distance: %v then %v",
					k, results[i-1].Score, results[i].Score)
			}
		}
	}

	results, err := idx.Search(context.Background(), []float32{0, 0}, 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	wantOrder := []string{"b", "c", "a"}
	for i, want := range wantOrder {
		if results[i].ID != want {
			t.Errorf("result[%d]: want %s, got %s", i, want, results[i].ID)
		}
	}
}

func Test_MemoryIndex_KLargerThanCountReturnsAll(t *testing.T) {
	t.Parallel()
	idx := NewMemoryIndex(MetricEuclidean)
	docs := []Document{{ID: "1"}, {ID: "2"}}
	vecs := [][]float32{{1, 0}, {0, 1}}
	upsertAll(t, idx, docs, vecs)

	results, err := idx.Search(context.Background(), []float32{1, 0}, 50)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("want all 2 documents when k > count, got %d", len(results))
	}
}

func Test_MemoryIndex_EmptySearchFails(t *testing.T) {
	t.Parallel()
	idx := NewMemoryIndex(MetricEuclidean)

	_, err := idx.Search(context.Background(), []float32{1, 0}, 1)
	if !errors.Is(err, ErrEmptyIndex) {
		t.Errorf("want ErrEmptyIndex, got %v", err)
	}
}

func Test_MemoryIndex_DimensionMismatchIsAtomic(t *testing.T) {
	t.Parallel()
	idx := NewMemoryIndex(MetricEuclidean)
	ctx := context.Background()

	if err := idx.Upsert(ctx, []Document{{ID: "1"}}, [][]float32{{1, 2, 3}}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if idx.Dimension() != 3 {
		t.Fatalf("want dimension 3, got %d", idx.Dimension())
	}

	err := idx.Upsert(ctx, []Document{{ID: "2"}}, [][]float32{{1, 2}})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("want ErrDimensionMismatch, got %v", err)
	}
	if idx.Len() != 1 {
		t.Errorf("failed insert must not change document count: want 1, got %d", idx.Len())
	}
}

func Test_MemoryIndex_BatchMismatchRejectsWholeBatch(t *testing.T) {
	t.Parallel()
	idx := NewMemoryIndex(MetricEuclidean)
	ctx := context.Background()

	docs := []Document{{ID: "ok"}, {ID: "bad"}}
	vecs := [][]float32{{1, 0}, {1, 0, 0}}
	err := idx.Upsert(ctx, docs, vecs)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("want ErrDimensionMismatch, got %v", err)
	}
	if idx.Len() != 0 {
		t.Errorf("partial batch must not be applied: want 0 documents, got %d", idx.Len())
	}
}

func Test_MemoryIndex_TieBreakByInsertionOrder(t *testing.T) {
	t.Parallel()
	idx := NewMemoryIndex(MetricEuclidean)

	// Identical vectors — identical distances — must come back in
	// insertion order every time.
	docs := []Document{
		{ID: "first", Content: "same text"},
		{ID: "second", Content: "same text"},
	}
	vecs := [][]float32{{1, 1}, {1, 1}}
	upsertAll(t, idx, docs, vecs)

	for range 5 {
		results, err := idx.Search(context.Background(), []float32{0, 0}, 2)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if results[0].ID != "first" || results[1].ID != "second" {
			t.Fatalf("tie-break not deterministic: got %s then %s", results[0].ID, results[1].ID)
		}
	}
}

func Test_MemoryIndex_CosineMetric(t *testing.T) {
	t.Parallel()
	idx := NewMemoryIndex(MetricCosine)
	docs := []Document{
		{ID: "aligned"},
		{ID: "orthogonal"},
	}
	// Cosine ignores magnitude: {5,0} is perfectly aligned with {1,0}.
	vecs := [][]float32{{5, 0}, {0, 1}}
	upsertAll(t, idx, docs, vecs)

	results, err := idx.Search(context.Background(), []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if results[0].ID != "aligned" {
		t.Errorf("want aligned first under cosine, got %s", results[0].ID)
	}
	if results[0].Score > 1e-6 {
		t.Errorf("aligned vector should have ~0 cosine distance, got %v", results[0].Score)
	}
}

func Test_MemoryIndex_QueryDimensionChecked(t *testing.T) {
	t.Parallel()
	idx := NewMemoryIndex(MetricEuclidean)
	upsertAll(t, idx, []Document{{ID: "1"}}, [][]float32{{1, 2, 3}})

	_, err := idx.Search(context.Background(), []float32{1, 2}, 1)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("want ErrDimensionMismatch for query of wrong dimension, got %v", err)
	}
}

func Test_MemoryIndex_ConcurrentSearch(t *testing.T) {
	t.Parallel()
	idx := NewMemoryIndex(MetricEuclidean)
	docs := make([]Document, 20)
	vecs := make([][]float32, 20)
	for i := range docs {
		docs[i] = Document{ID: fmt.Sprintf("d%d", i)}
		vecs[i] = []float32{float32(i), 0}
	}
	upsertAll(t, idx, docs, vecs)

	// Read-only phase: searches from many goroutines must agree.
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				results, err := idx.Search(context.Background(), []float32{0, 0}, 3)
				if err != nil {
					t.Errorf("concurrent search: %v", err)
					return
				}
				if results[0].ID != "d0" {
					t.Errorf("concurrent search: want d0 first, got %s", results[0].ID)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func Test_ParseMetric(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in      string
		want    Metric
		wantErr bool
	}{
		{"", MetricEuclidean, false},
		{"euclidean", MetricEuclidean, false},
		{"cosine", MetricCosine, false},
		{"manhattan", "", true},
	}
	for _, tc := range cases {
		got, err := ParseMetric(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseMetric(%q): want error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMetric(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseMetric(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
