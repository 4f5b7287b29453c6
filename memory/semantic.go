package memory

import (
	"context"
	"fmt"
	"sort"
)

// SemanticRanker runs the vector side of hybrid retrieval: it embeds
// the query, ranks candidates by cosine distance, linearly normalizes
// the similarities, and enforces a token budget.
type SemanticRanker struct {
	store    Store
	embedder Embedder

	// CandidateLimit caps how many candidates the store returns.
	// 0 means the whole corpus.
	CandidateLimit int
}

// NewSemanticRanker builds a semantic ranker over the store.
func NewSemanticRanker(store Store, embedder Embedder, candidateLimit int) *SemanticRanker {
	return &SemanticRanker{store: store, embedder: embedder, CandidateLimit: candidateLimit}
}

// Rank retrieves the semantically closest entries for the query within
// the token budget. Similarities are min-max normalized over the full
// candidate set, so the best match scores exactly 1.0 and the worst
// 0.0. The budget cut walks candidates in ascending distance order,
// matching the ranking order exactly.
//
// Embedding and store failures propagate; retrieval has no fail-open
// policy.
func (r *SemanticRanker) Rank(ctx context.Context, query string, budget int) ([]SearchResult, error) {
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	candidates, err := r.store.RankBySimilarity(ctx, vector, r.CandidateLimit)
	if err != nil {
		return nil, fmt.Errorf("similarity rank: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	// Ascending distance, stable so store order breaks ties.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Distance < candidates[j].Distance
	})

	sims := make([]float64, len(candidates))
	for i, c := range candidates {
		sims[i] = 1 - c.Distance
	}
	scores := LinearMinMax(sims)

	results := make([]SearchResult, 0, len(candidates))
	tokens := 0
	for i, c := range candidates {
		if budget > 0 && tokens+c.Entry.Tokens > budget {
			break
		}
		tokens += c.Entry.Tokens
		results = append(results, SearchResult{Entry: c.Entry, Score: scores[i]})
	}
	return results, nil
}
