package memory_test

import (
	"testing"

	"github.com/recallhq/recall-go-sdk/memory"
)

func TestTrimWithinBudgetPassesThrough(t *testing.T) {
	in := results(
		entry("a", "alpha", memory.KindFragment, 10, nil), 0.9,
		entry("b", "beta", memory.KindFragment, 10, nil), 0.5,
	)
	got := memory.Trim(in, 100)
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2 untouched", len(got))
	}
}

func TestTrimDropsDerivedWhenParentSelected(t *testing.T) {
	doc := entry("doc", "the full document text", memory.KindDocument, 30, nil)
	summary := entry("sum", "short summary", memory.KindDocumentSummary, 20, nil)
	summary.DocID = "doc"

	got := memory.Trim(results(doc, 0.9, summary, 0.8), 40)
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
	if got[0].Entry.ID != "doc" {
		t.Errorf("kept %s, want the parent document", got[0].Entry.ID)
	}
}

func TestTrimKeepsDerivedWhenParentAbsent(t *testing.T) {
	summary := entry("sum", "short summary", memory.KindDocumentSummary, 20, nil)
	summary.DocID = "doc" // parent not in the set
	other := entry("other", "unrelated", memory.KindFragment, 20, nil)

	got := memory.Trim(results(summary, 0.9, other, 0.8), 20)
	if len(got) != 1 || got[0].Entry.ID != "sum" {
		t.Fatalf("got %+v, want the orphaned summary kept", got)
	}
}

func TestTrimStrictPrefixCut(t *testing.T) {
	// Descending by score: a (10), b (15), c (5). Budget 20 fits a,
	// then b overflows; the cut happens there even though c alone
	// would still fit.
	in := results(
		entry("a", "alpha", memory.KindFragment, 10, nil), 0.9,
		entry("b", "beta", memory.KindFragment, 15, nil), 0.8,
		entry("c", "gamma", memory.KindFragment, 5, nil), 0.7,
	)

	got := memory.Trim(in, 20)
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1 (strict prefix, not bin-pack)", len(got))
	}
	if got[0].Entry.ID != "a" {
		t.Errorf("kept %s, want a", got[0].Entry.ID)
	}
}

func TestTrimSingleOversizeEntryReturnedAlone(t *testing.T) {
	in := results(
		entry("big", "very long content", memory.KindFragment, 500, nil), 0.9,
		entry("small", "short", memory.KindFragment, 10, nil), 0.5,
	)

	got := memory.Trim(in, 100)
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
	if got[0].Entry.ID != "big" {
		t.Errorf("kept %s, want the top-scored entry even though it exceeds the budget", got[0].Entry.ID)
	}
}
