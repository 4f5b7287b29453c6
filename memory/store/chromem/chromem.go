// Package chromem indexes entry embeddings in chromem-go, a pure Go
// embedded vector database, and answers nearest-neighbor queries by
// cosine distance.
package chromem

import (
	"context"
	"fmt"
	"sync"

	chromem "github.com/philippgille/chromem-go"
)

// Match is one nearest-neighbor hit: the indexed entry's metadata
// identity plus its cosine distance to the query vector.
type Match struct {
	EntryID  string
	Distance float64
}

// Index wraps a single chromem collection keyed by entry ID. Vectors
// are supplied by the caller; chromem never embeds on its own here.
type Index struct {
	db  *chromem.DB
	col *chromem.Collection
	mu  sync.Mutex
}

// New creates an in-memory index.
func New() (*Index, error) {
	db := chromem.NewDB()
	col, err := db.CreateCollection(
		"entries",
		nil, // no collection metadata
		nil, // no embedding func; vectors are precomputed
	)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &Index{db: db, col: col}, nil
}

// Add indexes one entry vector. Re-adding the same entry ID replaces
// its vector.
func (x *Index) Add(ctx context.Context, entryID string, vector []float32) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	doc := chromem.Document{
		ID:        entryID,
		Content:   entryID,
		Embedding: vector,
	}
	if err := x.col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add document: %w", err)
	}
	return nil
}

// Query returns up to limit nearest entries to the vector, ascending by
// distance. limit <= 0 or beyond the collection size is clamped; an
// empty index yields an empty result.
func (x *Index) Query(ctx context.Context, vector []float32, limit int) ([]Match, error) {
	x.mu.Lock()
	count := x.col.Count()
	x.mu.Unlock()

	if count == 0 {
		return nil, nil
	}
	// chromem rejects nResults beyond the collection size.
	if limit <= 0 || limit > count {
		limit = count
	}

	results, err := x.col.QueryEmbedding(ctx, vector, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query embedding: %w", err)
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		matches = append(matches, Match{
			EntryID:  r.ID,
			Distance: 1 - float64(r.Similarity),
		})
	}
	return matches, nil
}

// Count reports how many vectors are indexed.
func (x *Index) Count() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.col.Count()
}
