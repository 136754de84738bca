package db

import "github.com/aryan083/pokedex/internal/domain/search/filter"

// KNNQuery is the input for vector similarity search over one vector field.
type KNNQuery struct {
	IndexName    string
	VectorField  string
	Filters      filter.Filters
	Vector       []float32
	K            int
	ReturnFields []string
}

// Sort orders a filtered search by one sortable field.
type Sort struct {
	Field string
	Desc  bool
}

// FilteredQuery is the input for a paginated, filtered, sorted search.
type FilteredQuery struct {
	IndexName    string
	Filters      filter.Filters
	Sort         Sort
	Offset       int
	Limit        int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
