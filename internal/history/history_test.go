package history

import (
	"context"
	"fmt"
	"testing"
	"time"
)

// openTestStore opens an in-memory SQLiteStore for use in tests.
func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func Test_History_AppendAndRecent(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	err := s.Append(ctx, Entry{
		Question: "Where does Robert live?",
		Answer:   "Robert lives in London.",
		Sources:  []string{"Robert-bio"},
		Corpus:   "bios",
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	entries, err := s.Recent(ctx, "bios", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("want 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Question != "Where does Robert live?" {
		t.Errorf("question = %q", e.Question)
	}
	if e.Answer != "Robert lives in London." {
		t.Errorf("answer = %q", e.Answer)
	}
	if len(e.Sources) != 1 || e.Sources[0] != "Robert-bio" {
		t.Errorf("sources = %v, want [Robert-bio]", e.Sources)
	}
	if e.Corpus != "bios" {
		t.Errorf("corpus = %q", e.Corpus)
	}
}

func Test_History_RecentLimitRespected(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	for i := range 6 {
		e := Entry{Question: fmt.Sprintf("q%d", i), Answer: "a", Corpus: "docs"}
		if err := s.Append(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	entries, err := s.Recent(ctx, "docs", 4)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 4 {
		t.Errorf("want 4 entries, got %d", len(entries))
	}
}

func Test_History_NewestFirstOrdering(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, q := range []string{"first", "second", "third"} {
		e := Entry{Question: q, Answer: "a", Corpus: "order", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := s.Append(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	entries, err := s.Recent(ctx, "order", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	want := []string{"third", "second", "first"}
	for i, q := range want {
		if entries[i].Question != q {
			t.Errorf("entry[%d].Question = %q, want %q", i, entries[i].Question, q)
		}
	}
}

func Test_History_CorpusIsolation(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Append(ctx, Entry{Question: "from bios", Answer: "a", Corpus: "bios"}); err != nil {
		t.Fatalf("append bios: %v", err)
	}
	if err := s.Append(ctx, Entry{Question: "from manuals", Answer: "a", Corpus: "manuals"}); err != nil {
		t.Fatalf("append manuals: %v", err)
	}

	bios, err := s.Recent(ctx, "bios", 10)
	if err != nil {
		t.Fatalf("recent bios: %v", err)
	}
	if len(bios) != 1 || bios[0].Question != "from bios" {
		t.Errorf("corpus isolation failed: got %v", bios)
	}
}

func Test_History_EmptyCorpusReturnsNil(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	entries, err := s.Recent(context.Background(), "nothing-here", 10)
	if err != nil {
		t.Fatalf("recent empty: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("want 0 entries, got %d", len(entries))
	}
}

func Test_History_EmptySourcesRoundTrip(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Append(ctx, Entry{Question: "q", Answer: "a", Corpus: "docs"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	entries, err := s.Recent(ctx, "docs", 1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries[0].Sources) != 0 {
		t.Errorf("sources = %v, want empty", entries[0].Sources)
	}
}
