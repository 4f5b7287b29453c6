package sqlite_test

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/recallhq/recall-go-sdk/memory"
	"github.com/recallhq/recall-go-sdk/memory/store/sqlite"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), log.New(io.Discard))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func insert(t *testing.T, store *sqlite.Store, kind memory.Kind, content string) *memory.Entry {
	t.Helper()
	e, err := store.Insert(context.Background(), &memory.Entry{
		Kind:      kind,
		Content:   content,
		Embedding: []float32{0.1, 0.2, 0.3},
	})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	return e
}

func TestInsertAndGetRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	stored := insert(t, store, memory.KindFragment, "the onboarding call is on monday")

	got, err := store.GetByID(ctx, stored.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Content != stored.Content || got.Kind != stored.Kind {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, stored)
	}
	if got.MemID != memory.DeriveMemID(stored.Content) {
		t.Errorf("mem id %s is not derived from content", got.MemID)
	}
	if len(got.Embedding) != 3 {
		t.Errorf("embedding came back with %d dimensions, want 3", len(got.Embedding))
	}

	byMem, err := store.GetByMemID(ctx, stored.MemID)
	if err != nil {
		t.Fatalf("GetByMemID failed: %v", err)
	}
	if byMem.ID != stored.ID {
		t.Errorf("GetByMemID resolved %s, want %s", byMem.ID, stored.ID)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	store := openStore(t)
	_, err := store.GetByID(context.Background(), "missing")
	if !errors.Is(err, sqlite.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestInsertIdempotentOnContent(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	first := insert(t, store, memory.KindConversationTurn, "shared content")
	second, err := store.Insert(ctx, &memory.Entry{
		Kind:      memory.KindFragment,
		Content:   "shared content",
		Tokens:    999, // the stored content row wins
		Embedding: []float32{9, 9, 9},
	})
	if err != nil {
		t.Fatalf("second insert failed: %v", err)
	}

	if first.ID == second.ID {
		t.Error("entries sharing content must keep distinct metadata identities")
	}
	if first.MemID != second.MemID {
		t.Error("entries sharing content must share a mem id")
	}
	if second.Tokens != first.Tokens {
		t.Errorf("second insert tokens %d, want canonical %d", second.Tokens, first.Tokens)
	}
	if second.Embedding[0] != first.Embedding[0] {
		t.Error("second insert must reuse the stored embedding")
	}

	// Corpus stats count content rows, not entries.
	stats, err := store.CorpusStats(ctx, []string{"shared"})
	if err != nil {
		t.Fatalf("CorpusStats failed: %v", err)
	}
	if stats.TotalDocs != 1 {
		t.Errorf("total docs %d, want 1 content row", stats.TotalDocs)
	}
	if stats.DocFreq["shared"] != 1 {
		t.Errorf("doc freq %d, want 1", stats.DocFreq["shared"])
	}
}

func TestRankByKeyword(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	insert(t, store, memory.KindFragment, "billing invoice for the march invoice run")
	insert(t, store, memory.KindFragment, "invoice archive")
	insert(t, store, memory.KindFragment, "completely unrelated")

	ranked, err := store.RankByKeyword(ctx, []string{"invoice", "billing"}, 0)
	if err != nil {
		t.Fatalf("RankByKeyword failed: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("got %d matches, want 2", len(ranked))
	}
	// First entry matches "invoice" twice plus "billing".
	if ranked[0].Rank <= ranked[1].Rank {
		t.Errorf("ranks not descending: %v then %v", ranked[0].Rank, ranked[1].Rank)
	}
	if ranked[0].Rank != 3 {
		t.Errorf("top rank %v, want summed term frequency 3", ranked[0].Rank)
	}
}

func TestListByKindNewestFirst(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	insert(t, store, memory.KindConversationSummary, "older summary")
	newer := insert(t, store, memory.KindConversationSummary, "newer summary")
	insert(t, store, memory.KindFragment, "not a summary")

	summaries, err := store.ListByKind(ctx, memory.KindConversationSummary, 0)
	if err != nil {
		t.Fatalf("ListByKind failed: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("got %d summaries, want 2", len(summaries))
	}
	if summaries[0].ID != newer.ID {
		t.Errorf("first summary %s, want the newest", summaries[0].ID)
	}
}

func TestDeleteGarbageCollectsContent(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	a := insert(t, store, memory.KindFragment, "shared content")
	b := insert(t, store, memory.KindFragment, "shared content")

	if err := store.Delete(ctx, a.ID); err != nil {
		t.Fatalf("first delete failed: %v", err)
	}
	// Content row survives while b references it.
	if _, err := store.GetByMemID(ctx, b.MemID); err != nil {
		t.Fatalf("content row was collected while still referenced: %v", err)
	}

	if err := store.Delete(ctx, b.ID); err != nil {
		t.Fatalf("second delete failed: %v", err)
	}
	if _, err := store.GetByMemID(ctx, b.MemID); !errors.Is(err, sqlite.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound after the last reference is removed", err)
	}

	stats, err := store.CorpusStats(ctx, []string{"shared"})
	if err != nil {
		t.Fatalf("CorpusStats failed: %v", err)
	}
	if stats.DocFreq["shared"] != 0 {
		t.Errorf("postings survived garbage collection: %v", stats.DocFreq)
	}
}

func TestDeleteMissingEntry(t *testing.T) {
	store := openStore(t)
	if err := store.Delete(context.Background(), "missing"); !errors.Is(err, sqlite.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}
