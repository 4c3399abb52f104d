package listings

import "context"

// Record is a normalized job posting produced fresh per ranking request.
// IDs are content-derived from the canonical link, so logically identical
// listings across repeated calls carry the same identity.
type Record struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Company  string `json:"company"`
	Location string `json:"location"`
	Summary  string `json:"summary"`
	Link     string `json:"link"`
}

// Searcher turns a (query, location) pair into a bounded list of
// listing records. Implementations make no ordering or dedup guarantees.
type Searcher interface {
	Search(ctx context.Context, query, location string) ([]Record, error)
}
