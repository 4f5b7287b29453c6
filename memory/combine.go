package memory

import "sort"

// Combine merges two independently normalized ranked lists into one
// blended list. Each entry's score is weight*left + (1-weight)*right,
// with absence in either list counting as zero, and the blended scores
// are min-max normalized again.
//
// If either input is empty the other is returned unchanged: no
// blending, no renormalization. The short-circuit is deliberate; a
// one-sided result keeps its producing ranker's score semantics.
func Combine(left, right []SearchResult, weight float64) []SearchResult {
	if len(left) == 0 {
		return right
	}
	if len(right) == 0 {
		return left
	}
	if weight < 0 {
		weight = 0
	}
	if weight > 1 {
		weight = 1
	}

	type blended struct {
		entry *Entry
		score float64
		order int
	}
	merged := make(map[string]*blended, len(left)+len(right))
	order := 0

	for _, r := range left {
		merged[r.Entry.ID] = &blended{entry: r.Entry, score: weight * r.Score, order: order}
		order++
	}
	for _, r := range right {
		if b, ok := merged[r.Entry.ID]; ok {
			b.score += (1 - weight) * r.Score
			continue
		}
		merged[r.Entry.ID] = &blended{entry: r.Entry, score: (1 - weight) * r.Score, order: order}
		order++
	}

	all := make([]*blended, 0, len(merged))
	for _, b := range merged {
		all = append(all, b)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].order < all[j].order
	})

	raw := make([]float64, len(all))
	for i, b := range all {
		raw[i] = b.score
	}
	normalized := LinearMinMax(raw)

	results := make([]SearchResult, len(all))
	for i, b := range all {
		results[i] = SearchResult{Entry: b.entry, Score: normalized[i]}
	}
	return results
}
