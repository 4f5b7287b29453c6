package memory

import (
	"context"
	"sort"

	"github.com/charmbracelet/log"
)

// Duplicate describes an existing conversation-summary entry that is
// close enough to a candidate text to count as a near-duplicate.
type Duplicate struct {
	Entry *Entry

	// Distance is the embedding cosine distance to the candidate.
	Distance float64

	// Similarity is the longest-common-substring ratio
	// len(lcs)/min(len(a), len(b)).
	Similarity float64
}

// DuplicateGuard protects stored conversation summaries from accidental
// duplication. Before a new summary is written the guard compares it
// against every existing pinned or unpinned summary by embedding
// distance and common-substring similarity.
type DuplicateGuard struct {
	store    Store
	embedder Embedder
	logger   *log.Logger

	// DistanceThreshold is the maximum cosine distance for a candidate
	// pair to be considered at all. Defaults to 0.2.
	DistanceThreshold float64

	// SimilarityThreshold is the minimum substring ratio a pair must
	// reach on top of the distance check. Defaults to 0.4.
	SimilarityThreshold float64
}

// NewDuplicateGuard builds a guard over the store's conversation
// summaries. A nil logger falls back to the package default.
func NewDuplicateGuard(store Store, embedder Embedder, logger *log.Logger) *DuplicateGuard {
	if logger == nil {
		logger = log.Default()
	}
	return &DuplicateGuard{
		store:               store,
		embedder:            embedder,
		logger:              logger,
		DistanceThreshold:   0.2,
		SimilarityThreshold: 0.4,
	}
}

// Check returns the existing summaries that the candidate text would
// duplicate, sorted ascending by similarity (weakest match first). An
// empty return means safe to insert as new; any non-empty return means
// the caller should update a match instead of inserting, or reject the
// write.
//
// Infrastructure failures inside the guard never propagate: the guard
// fails open and reports no duplicates, favoring availability over
// strict duplicate prevention. Failures are logged.
func (g *DuplicateGuard) Check(ctx context.Context, candidate string) []Duplicate {
	vector, err := g.embedder.Embed(ctx, candidate)
	if err != nil {
		g.logger.Warn("duplicate guard embed failed; treating as no duplicates", "error", err)
		return nil
	}

	summaries, err := g.store.ListByKind(ctx, KindConversationSummary, 0)
	if err != nil {
		g.logger.Warn("duplicate guard query failed; treating as no duplicates", "error", err)
		return nil
	}

	var dups []Duplicate
	for _, e := range summaries {
		dist := CosineDistance(vector, e.Embedding)
		if dist > g.DistanceThreshold {
			continue
		}
		sim := substringSimilarity(candidate, e.Content)
		if sim < g.SimilarityThreshold {
			continue
		}
		dups = append(dups, Duplicate{Entry: e, Distance: dist, Similarity: sim})
	}

	sort.SliceStable(dups, func(i, j int) bool {
		return dups[i].Similarity < dups[j].Similarity
	})
	return dups
}

// substringSimilarity is the length of the longest common substring of
// a and b divided by the length of the shorter string.
func substringSimilarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	shorter := len(ra)
	if len(rb) < shorter {
		shorter = len(rb)
	}
	return float64(longestCommonSubstring(ra, rb)) / float64(shorter)
}

// longestCommonSubstring computes the length of the longest contiguous
// run shared by a and b, using a rolling single-row table.
func longestCommonSubstring(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	best := 0
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > best {
					best = curr[j]
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
	}
	return best
}
