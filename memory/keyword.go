package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// KeywordRanker runs the lexical side of hybrid retrieval: it extracts
// the most informative query terms by TF-IDF, ranks the corpus against
// their disjunction, softmax-normalizes the ranks, and enforces a token
// budget.
type KeywordRanker struct {
	store Store

	// Keywords is the number of query terms extracted. Defaults to 5.
	Keywords int
}

// NewKeywordRanker builds a keyword ranker over the store.
func NewKeywordRanker(store Store, keywords int) *KeywordRanker {
	if keywords <= 0 {
		keywords = 5
	}
	return &KeywordRanker{store: store, Keywords: keywords}
}

// Rank retrieves the lexically best-matching entries for the query
// within the token budget. Scores are softmax weights computed over the
// full matched set before the budget cut, so post-cut scores no longer
// sum to one; that keeps them comparable with the semantic side.
//
// A query with no extractable terms yields an empty result, not an
// error. Store failures propagate: silently returning empty context
// would mislead the model without a trace.
func (r *KeywordRanker) Rank(ctx context.Context, query string, budget int) ([]SearchResult, error) {
	terms, err := r.extractTerms(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(terms) == 0 {
		return nil, nil
	}

	ranked, err := r.store.RankByKeyword(ctx, terms, 0)
	if err != nil {
		return nil, fmt.Errorf("keyword rank: %w", err)
	}
	if len(ranked) == 0 {
		return nil, nil
	}

	// Descending raw rank, stable so store order breaks ties.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Rank > ranked[j].Rank
	})

	raw := make([]float64, len(ranked))
	for i, re := range ranked {
		raw[i] = re.Rank
	}
	scores := Softmax(raw)

	results := make([]SearchResult, 0, len(ranked))
	tokens := 0
	for i, re := range ranked {
		if budget > 0 && tokens+re.Entry.Tokens > budget {
			break
		}
		tokens += re.Entry.Tokens
		results = append(results, SearchResult{Entry: re.Entry, Score: scores[i]})
	}
	return results, nil
}

// extractTerms selects the top-k query terms by TF-IDF: term frequency
// from the query text, document frequency from corpus-wide statistics.
func (r *KeywordRanker) extractTerms(ctx context.Context, query string) ([]string, error) {
	freqs := TermFrequencies(query)
	if len(freqs) == 0 {
		return nil, nil
	}

	terms := make([]string, 0, len(freqs))
	for t := range freqs {
		terms = append(terms, t)
	}

	stats, err := r.store.CorpusStats(ctx, terms)
	if err != nil {
		return nil, fmt.Errorf("corpus stats: %w", err)
	}

	type weighted struct {
		term   string
		weight float64
	}
	ws := make([]weighted, 0, len(terms))
	for _, t := range terms {
		idf := math.Log(1 + float64(stats.TotalDocs)/float64(1+stats.DocFreq[t]))
		ws = append(ws, weighted{term: t, weight: float64(freqs[t]) * idf})
	}

	sort.Slice(ws, func(i, j int) bool {
		if ws[i].weight != ws[j].weight {
			return ws[i].weight > ws[j].weight
		}
		return ws[i].term < ws[j].term
	})

	k := r.Keywords
	if k > len(ws) {
		k = len(ws)
	}
	top := make([]string, k)
	for i := 0; i < k; i++ {
		top[i] = ws[i].term
	}
	return top, nil
}
