// Package result defines search outcomes and the response envelope.
package result

import "github.com/aryan083/pokedex/internal/domain"

// Search type labels reported in response metadata.
const (
	TypeHybrid         = "hybrid"
	TypeSemanticTiered = "semantic_tiered"
	TypeTraditional    = "traditional"
	TypeFilterOnly     = "filter_only"
	TypeTextFallback   = "text_fallback"
)

// Candidate is one vector-search hit before and after hybrid re-ranking.
type Candidate struct {
	Pokemon    domain.Pokemon
	Similarity float64
	Channel    domain.Channel

	// Hybrid is the blended vector/text score, set by the ranker.
	Hybrid    float64
	HasHybrid bool
}

// Score returns the ranking score: the hybrid score when computed,
// otherwise the raw similarity.
func (c Candidate) Score() float64 {
	if c.HasHybrid {
		return c.Hybrid
	}
	return c.Similarity
}

// Meta reports which strategy produced a response. Field names are part of
// the client contract.
type Meta struct {
	UsedVectorSearch     bool    `json:"usedVectorSearch"`
	UsedSemanticFallback bool    `json:"usedSemanticFallback"`
	AverageSimilarity    float64 `json:"averageSimilarity"`
	SearchType           string  `json:"searchType"`
}

// Page describes the pagination of a response.
type Page struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Response is the full search response envelope.
type Response struct {
	Pokemons   []domain.Pokemon `json:"data"`
	Pagination Page             `json:"pagination"`
	Meta       Meta             `json:"meta"`
}

// NewPage computes pagination for a total row count.
func NewPage(page, limit, total int) Page {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Page{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}
