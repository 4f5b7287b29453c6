package memory_test

import (
	"testing"

	"github.com/recallhq/recall-go-sdk/memory"
)

func results(pairs ...interface{}) []memory.SearchResult {
	out := make([]memory.SearchResult, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, memory.SearchResult{
			Entry: pairs[i].(*memory.Entry),
			Score: pairs[i+1].(float64),
		})
	}
	return out
}

func TestCombineEmptySideShortCircuits(t *testing.T) {
	a := entry("a", "alpha", memory.KindFragment, 5, nil)
	left := results(a, 0.7)

	got := memory.Combine(left, nil, 0.5)
	if len(got) != 1 || got[0].Entry.ID != "a" || got[0].Score != 0.7 {
		t.Fatalf("empty right must return left unchanged, got %+v", got)
	}

	got = memory.Combine(nil, left, 0.5)
	if len(got) != 1 || got[0].Entry.ID != "a" || got[0].Score != 0.7 {
		t.Fatalf("empty left must return right unchanged, got %+v", got)
	}
}

func TestCombineBlendsAndRenormalizes(t *testing.T) {
	a := entry("a", "alpha", memory.KindFragment, 5, nil)
	b := entry("b", "beta", memory.KindFragment, 5, nil)
	c := entry("c", "gamma", memory.KindFragment, 5, nil)

	// a appears on both sides, b only left, c only right. With weight
	// 0.5 the raw blends are a=0.75, b=0.15, c=0.2; min-max then maps
	// a to 1 and b to 0.
	left := results(a, 0.9, b, 0.3)
	right := results(a, 0.6, c, 0.4)

	got := memory.Combine(left, right, 0.5)
	if len(got) != 3 {
		t.Fatalf("got %d results, want 3", len(got))
	}
	if got[0].Entry.ID != "a" || got[0].Score != 1.0 {
		t.Errorf("top: got %s score %v, want a with 1.0", got[0].Entry.ID, got[0].Score)
	}
	if got[1].Entry.ID != "c" {
		t.Errorf("second: got %s, want c", got[1].Entry.ID)
	}
	if got[2].Entry.ID != "b" || got[2].Score != 0.0 {
		t.Errorf("bottom: got %s score %v, want b with 0.0", got[2].Entry.ID, got[2].Score)
	}
}

func TestCombineMissingSideCountsAsZero(t *testing.T) {
	a := entry("a", "alpha", memory.KindFragment, 5, nil)
	b := entry("b", "beta", memory.KindFragment, 5, nil)

	// b is absent from the right list; with weight 0.9 it keeps most
	// of its left score and still outranks a weak shared entry.
	left := results(a, 0.1, b, 1.0)
	right := results(a, 0.2)

	got := memory.Combine(left, right, 0.9)
	if got[0].Entry.ID != "b" {
		t.Fatalf("top: got %s, want b", got[0].Entry.ID)
	}
}
