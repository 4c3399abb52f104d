package scoring

import "sort"

// Rank orders scored listings by score descending. The sort is stable:
// ties keep the relative order produced by the scorer.
func Rank(scored []ScoredListing) []ScoredListing {
	ranked := make([]ScoredListing, len(scored))
	copy(ranked, scored)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	return ranked
}
