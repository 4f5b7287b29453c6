// Package hybrid composes the SQLite lexical/metadata store with the
// chromem vector index behind the single memory.Store interface the
// retrieval engine consumes.
package hybrid

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/recallhq/recall-go-sdk/memory"
	"github.com/recallhq/recall-go-sdk/memory/store/chromem"
	"github.com/recallhq/recall-go-sdk/memory/store/sqlite"
)

// Store pairs a lexical backend with a vector backend. SQLite owns
// content, metadata and term postings; chromem owns nearest-neighbor
// lookups over the same entries.
type Store struct {
	lexical *sqlite.Store
	vectors *chromem.Index
	logger  *log.Logger
}

var _ memory.Store = (*Store)(nil)

// Open builds a hybrid store over a SQLite database at path and a fresh
// in-memory vector index. Use ":memory:" for a fully ephemeral store.
func Open(path string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Default()
	}
	lexical, err := sqlite.Open(path, logger)
	if err != nil {
		return nil, err
	}
	vectors, err := chromem.New()
	if err != nil {
		lexical.Close()
		return nil, err
	}
	s := &Store{lexical: lexical, vectors: vectors, logger: logger}
	if err := s.reindex(context.Background()); err != nil {
		lexical.Close()
		return nil, err
	}
	return s, nil
}

// reindex rebuilds the vector index from persisted entries. The chromem
// side is memory-only, so a reopened store warms it from SQLite.
func (s *Store) reindex(ctx context.Context) error {
	entries, err := s.lexical.RankAll(ctx, 0)
	if err != nil {
		return fmt.Errorf("warm vector index: %w", err)
	}
	for _, e := range entries {
		if err := s.vectors.Add(ctx, e.ID, e.Embedding); err != nil {
			return fmt.Errorf("index entry %s: %w", e.ID, err)
		}
	}
	if len(entries) > 0 {
		s.logger.Debug("vector index warmed", "entries", len(entries))
	}
	return nil
}

// Insert persists the entry in both backends.
func (s *Store) Insert(ctx context.Context, e *memory.Entry) (*memory.Entry, error) {
	stored, err := s.lexical.Insert(ctx, e)
	if err != nil {
		return nil, err
	}
	if err := s.vectors.Add(ctx, stored.ID, stored.Embedding); err != nil {
		return nil, fmt.Errorf("index embedding: %w", err)
	}
	return stored, nil
}

// GetByID retrieves an entry by metadata identity.
func (s *Store) GetByID(ctx context.Context, id string) (*memory.Entry, error) {
	return s.lexical.GetByID(ctx, id)
}

// GetByMemID retrieves one entry by content identity.
func (s *Store) GetByMemID(ctx context.Context, memID string) (*memory.Entry, error) {
	return s.lexical.GetByMemID(ctx, memID)
}

// RankByKeyword delegates lexical ranking to SQLite.
func (s *Store) RankByKeyword(ctx context.Context, terms []string, limit int) ([]memory.RankedEntry, error) {
	return s.lexical.RankByKeyword(ctx, terms, limit)
}

// RankBySimilarity queries the vector index and resolves matches back
// to full entries. Matches whose entry has since been deleted are
// dropped: chromem keeps no tombstones, so SQLite is the authority on
// which identities still exist.
func (s *Store) RankBySimilarity(ctx context.Context, vector []float32, limit int) ([]memory.DistanceEntry, error) {
	matches, err := s.vectors.Query(ctx, vector, limit)
	if err != nil {
		return nil, err
	}

	results := make([]memory.DistanceEntry, 0, len(matches))
	for _, m := range matches {
		entry, err := s.lexical.GetByID(ctx, m.EntryID)
		if errors.Is(err, sqlite.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolve match %s: %w", m.EntryID, err)
		}
		results = append(results, memory.DistanceEntry{Entry: entry, Distance: m.Distance})
	}
	return results, nil
}

// CorpusStats delegates to SQLite.
func (s *Store) CorpusStats(ctx context.Context, terms []string) (memory.CorpusStats, error) {
	return s.lexical.CorpusStats(ctx, terms)
}

// ListByKind delegates to SQLite.
func (s *Store) ListByKind(ctx context.Context, kind memory.Kind, limit int) ([]*memory.Entry, error) {
	return s.lexical.ListByKind(ctx, kind, limit)
}

// Delete removes the entry from SQLite. The stale vector stays in
// chromem and is filtered out of similarity results on read.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.lexical.Delete(ctx, id)
}

// Close releases the SQLite handle; the vector index is memory-only.
func (s *Store) Close() error {
	return s.lexical.Close()
}
