package docindex

import (
	"context"
	"strings"
	"testing"
)

func newSeededIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := New("")
	if err != nil {
		t.Fatalf("new index: %v", err)
	}
	t.Cleanup(func() { idx.Close() })

	err = idx.Seed([]Document{
		{ID: "fees", Title: "Card Fees", Content: "Debit card maintenance costs 200 KZT per month. International withdrawals carry a 1% fee.", Source: "fees.md"},
		{ID: "limits", Title: "Transfer Limits", Content: "Daily transfer limit is 1,000,000 KZT for verified customers.", Source: "limits.md"},
		{ID: "hours", Title: "Branch Hours", Content: "Branches are open Monday through Friday from 9:00 to 18:00.", Source: "hours.md"},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return idx
}

func TestSearchFindsRelevantDocument(t *testing.T) {
	t.Parallel()
	idx := newSeededIndex(t)

	hits, err := idx.Search(context.Background(), "transfer limit", 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("expected at least one hit")
	}
	if hits[0].Title != "Transfer Limits" {
		t.Fatalf("top hit = %q, want Transfer Limits", hits[0].Title)
	}
	if hits[0].Source != "limits.md" {
		t.Fatalf("source = %q, want limits.md", hits[0].Source)
	}
	if hits[0].Score <= 0 {
		t.Fatalf("score = %f, want > 0", hits[0].Score)
	}
}

func TestSearchHonorsLimit(t *testing.T) {
	t.Parallel()
	idx := newSeededIndex(t)

	hits, err := idx.Search(context.Background(), "KZT", 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) > 1 {
		t.Fatalf("hits = %d, want at most 1", len(hits))
	}
}

func TestSearchNoMatches(t *testing.T) {
	t.Parallel()
	idx := newSeededIndex(t)

	hits, err := idx.Search(context.Background(), "cryptocurrency staking", 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("hits = %d, want 0", len(hits))
	}
}

func TestAddRejectsEmptyContent(t *testing.T) {
	t.Parallel()
	idx, err := New("")
	if err != nil {
		t.Fatalf("new index: %v", err)
	}
	defer idx.Close()

	if err := idx.Add(Document{Title: "empty"}); err == nil {
		t.Fatal("empty content must be rejected")
	}
}

func TestSnippetTruncation(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("word ", 100)
	got := snippet(long, 40)
	if len(got) > 44 {
		t.Fatalf("snippet too long: %d chars", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("snippet %q should end with ellipsis", got)
	}
}
