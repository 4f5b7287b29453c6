package memory

import "sort"

// Trim enforces the final token budget on a combined result set.
//
// A set already within budget passes through untouched. Otherwise
// entries of a derived kind (document summaries, synopses, conversation
// turns) are dropped when their parent document is also selected, since
// the parent supersedes them. If the set is still over budget it is
// sorted by descending score and cut to the longest budget-respecting
// prefix: once one entry would exceed the remaining budget the cut
// happens there, even if a smaller later entry would still fit. A
// single entry that alone exceeds the budget is returned alone.
func Trim(results []SearchResult, budget int) []SearchResult {
	if len(results) == 0 || budget <= 0 {
		return results
	}
	if totalTokens(results) <= budget {
		return results
	}

	selected := make(map[string]bool, len(results))
	for _, r := range results {
		selected[r.Entry.ID] = true
	}

	kept := make([]SearchResult, 0, len(results))
	for _, r := range results {
		if r.Entry.Kind.Derived() && r.Entry.DocID != "" && selected[r.Entry.DocID] {
			continue
		}
		kept = append(kept, r)
	}

	if totalTokens(kept) <= budget {
		return kept
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score > kept[j].Score
	})

	trimmed := make([]SearchResult, 0, len(kept))
	tokens := 0
	for _, r := range kept {
		if tokens+r.Entry.Tokens > budget {
			if len(trimmed) == 0 {
				// Nothing fits; surface the top-scored entry anyway.
				trimmed = append(trimmed, r)
			}
			break
		}
		tokens += r.Entry.Tokens
		trimmed = append(trimmed, r)
	}
	return trimmed
}

func totalTokens(results []SearchResult) int {
	total := 0
	for _, r := range results {
		total += r.Entry.Tokens
	}
	return total
}
