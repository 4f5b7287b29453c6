package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/recallhq/recall-go-sdk/memory"
)

func semanticCorpus() *fakeStore {
	return &fakeStore{entries: []*memory.Entry{
		entry("near", "close match", memory.KindFragment, 10, []float32{1, 0}),
		entry("mid", "middling match", memory.KindFragment, 10, []float32{1, 1}),
		entry("far", "distant match", memory.KindFragment, 10, []float32{0, 1}),
	}}
}

func TestSemanticRankerNormalizesBestToOne(t *testing.T) {
	store := semanticCorpus()
	embedder := &stubEmbedder{fall: []float32{1, 0}}
	ranker := memory.NewSemanticRanker(store, embedder, 0)

	results, err := ranker.Rank(context.Background(), "query", 1000)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	if results[0].Entry.ID != "near" || results[0].Score != 1.0 {
		t.Errorf("best match: got %s score %v, want near with exactly 1.0", results[0].Entry.ID, results[0].Score)
	}
	if results[2].Entry.ID != "far" || results[2].Score != 0.0 {
		t.Errorf("worst match: got %s score %v, want far with exactly 0.0", results[2].Entry.ID, results[2].Score)
	}
	if results[1].Score <= results[2].Score || results[1].Score >= results[0].Score {
		t.Errorf("middle score %v out of order", results[1].Score)
	}
}

func TestSemanticRankerBudgetWalksAscendingDistance(t *testing.T) {
	store := semanticCorpus()
	embedder := &stubEmbedder{fall: []float32{1, 0}}
	ranker := memory.NewSemanticRanker(store, embedder, 0)

	results, err := ranker.Rank(context.Background(), "query", 20)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Entry.ID != "near" || results[1].Entry.ID != "mid" {
		t.Errorf("budget kept %s, %s; want the two closest", results[0].Entry.ID, results[1].Entry.ID)
	}
}

func TestSemanticRankerEmbedErrorPropagates(t *testing.T) {
	store := semanticCorpus()
	embedder := &stubEmbedder{err: errors.New("model unavailable")}
	ranker := memory.NewSemanticRanker(store, embedder, 0)

	if _, err := ranker.Rank(context.Background(), "query", 100); err == nil {
		t.Fatal("expected embed failure to propagate")
	}
}

func TestSemanticRankerStoreErrorPropagates(t *testing.T) {
	store := semanticCorpus()
	store.simErr = errors.New("vector index offline")
	embedder := &stubEmbedder{fall: []float32{1, 0}}
	ranker := memory.NewSemanticRanker(store, embedder, 0)

	if _, err := ranker.Rank(context.Background(), "query", 100); err == nil {
		t.Fatal("expected store failure to propagate")
	}
}

func TestSemanticRankerEmptyCorpus(t *testing.T) {
	store := &fakeStore{}
	embedder := &stubEmbedder{fall: []float32{1, 0}}
	ranker := memory.NewSemanticRanker(store, embedder, 0)

	results, err := ranker.Rank(context.Background(), "query", 100)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("got %d results, want 0", len(results))
	}
}
