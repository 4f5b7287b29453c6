package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strings"
	"time"
	"unicode"
)

// Kind tags a memory entry variant. The kind determines which optional
// metadata fields are materialized.
type Kind string

const (
	KindConversationTurn    Kind = "conversation-turn"
	KindDocument            Kind = "document"
	KindDocumentSummary     Kind = "document-summary"
	KindFragment            Kind = "fragment"
	KindSynopsis            Kind = "synopsis"
	KindExchange            Kind = "exchange"
	KindConversationSummary Kind = "conversation-summary"
	KindResolution          Kind = "resolution"
)

// Derived reports whether entries of this kind are superseded by their
// parent document when both land in the same result set.
func (k Kind) Derived() bool {
	switch k {
	case KindDocumentSummary, KindSynopsis, KindConversationTurn:
		return true
	}
	return false
}

// Entry is one memory record: an immutable content row plus a mutable
// metadata identity. Identical content always derives the same MemID,
// so content is effectively content-addressed; two entries may share a
// content row while keeping distinct metadata identities.
type Entry struct {
	// ID is the metadata identity, unique per entry.
	ID string

	// MemID is derived from Content and shared by all entries carrying
	// identical content.
	MemID string

	Kind    Kind
	Content string

	// Tokens is the precomputed token count of Content.
	Tokens int

	// Embedding is the fixed-dimension vector derived from Content.
	Embedding []float32

	CreatedAt time.Time

	// Kind-specific fields.
	Role      string // conversation turns: user or assistant
	Source    string // documents: origin of the content
	DocID     string // derived entries: parent document entry id
	SummaryID string // documents: entry id of their summary
	Pinned    bool   // conversation summaries
	Priority  int    // conversation summaries
}

// DeriveMemID returns the content-addressed identity for a piece of
// content.
func DeriveMemID(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// SearchResult is a transient view over an Entry plus a score in [0,1].
// The score's meaning depends on the producing ranker.
type SearchResult struct {
	Entry *Entry
	Score float64
}

// RankedEntry pairs an entry with the raw lexical rank the store
// assigned it.
type RankedEntry struct {
	Entry *Entry
	Rank  float64
}

// DistanceEntry pairs an entry with its embedding distance to a query
// vector. Lower is closer.
type DistanceEntry struct {
	Entry    *Entry
	Distance float64
}

// CorpusStats carries corpus-wide term statistics used for TF-IDF term
// selection.
type CorpusStats struct {
	// DocFreq maps each requested term to the number of distinct
	// content rows containing it.
	DocFreq map[string]int

	// TotalDocs is the number of distinct content rows in the corpus.
	TotalDocs int
}

// Store is the corpus query interface the retrieval engine runs
// against. The wire format of the backing store is a backend concern.
type Store interface {
	// Insert persists an entry. The embedding must be set. Content rows
	// are deduplicated by MemID; re-inserting identical content reuses
	// the stored tokens and embedding. The returned entry has ID and
	// MemID populated.
	Insert(ctx context.Context, e *Entry) (*Entry, error)

	// GetByID retrieves an entry by metadata identity.
	GetByID(ctx context.Context, id string) (*Entry, error)

	// GetByMemID retrieves one entry carrying the given content
	// identity.
	GetByMemID(ctx context.Context, memID string) (*Entry, error)

	// RankByKeyword ranks entries matching any of the terms, by a rank
	// monotonic in term overlap and frequency, descending. limit <= 0
	// means all matches.
	RankByKeyword(ctx context.Context, terms []string, limit int) ([]RankedEntry, error)

	// RankBySimilarity returns the nearest entries to the vector by
	// cosine distance, ascending. limit <= 0 means the whole corpus.
	RankBySimilarity(ctx context.Context, vector []float32, limit int) ([]DistanceEntry, error)

	// CorpusStats returns document frequencies for the given terms.
	CorpusStats(ctx context.Context, terms []string) (CorpusStats, error)

	// ListByKind returns entries of one kind, newest first. limit <= 0
	// means all.
	ListByKind(ctx context.Context, kind Kind, limit int) ([]*Entry, error)

	// Delete removes an entry's metadata identity. Content rows shared
	// with other entries survive.
	Delete(ctx context.Context, id string) error

	Close() error
}

// Embedder converts text to vector embeddings. Implementations must be
// deterministic for identical input.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// EstimateTokens is a rough tokenizer approximation used for context
// budgeting when no precomputed count is available.
func EstimateTokens(s string) int {
	runes := len([]rune(s))
	t := int(math.Ceil(float64(runes) / 4.0))
	if t < 1 {
		return 1
	}
	return t
}

// Tokenize splits content into lowercase index terms. Terms under two
// runes are dropped.
func Tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < 2 {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}

// TermFrequencies counts term occurrences in content.
func TermFrequencies(s string) map[string]int {
	freqs := make(map[string]int)
	for _, t := range Tokenize(s) {
		freqs[t]++
	}
	return freqs
}

// CosineDistance returns 1 minus the cosine similarity of two vectors.
// Mismatched or zero-norm vectors are treated as maximally distant.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1.0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1.0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim > 1 {
		sim = 1
	}
	if sim < -1 {
		sim = -1
	}
	return 1 - sim
}
