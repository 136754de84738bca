// Package request holds validated, normalized search parameters.
package request

import (
	"strings"

	"github.com/aryan083/pokedex/internal/domain/search/filter"
)

// SortField names a sortable catalog attribute.
type SortField string

const (
	SortID      SortField = "pokemonId"
	SortName    SortField = "name"
	SortHP      SortField = "hp"
	SortAttack  SortField = "attack"
	SortDefense SortField = "defense"
	SortSpeed   SortField = "speed"
)

// SortOrder is a sort direction.
type SortOrder string

const (
	OrderAsc  SortOrder = "ASC"
	OrderDesc SortOrder = "DESC"
)

const (
	// DefaultLimit is the page size applied when none is given.
	DefaultLimit = 20
	// MaxLimit caps the page size.
	MaxLimit = 100
)

// Params are raw search parameters as received from a caller. Zero values
// mean "unset"; run Normalize before use.
type Params struct {
	Page  int
	Limit int

	// Search is the raw free-text query.
	Search string

	// Structured filters supplied alongside the query.
	Types       []string
	Generations []int
	MinHP       *int
	MinAttack   *int
	MinDefense  *int
	MinSpeed    *int
	MaxDefense  *int

	SortBy    SortField
	SortOrder SortOrder
}

// Normalize clamps paging, trims the query and falls back to defaults for
// out-of-range or unknown values. Invalid input never fails, it degrades to
// the default.
func Normalize(p Params) Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	p.Search = strings.TrimSpace(p.Search)
	switch p.SortBy {
	case SortID, SortName, SortHP, SortAttack, SortDefense, SortSpeed:
	default:
		p.SortBy = SortID
	}
	switch SortOrder(strings.ToUpper(string(p.SortOrder))) {
	case OrderDesc:
		p.SortOrder = OrderDesc
	default:
		p.SortOrder = OrderAsc
	}
	return p
}

// Offset converts page/limit into a row offset.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Filters converts the structured parameters into a filter set. The
// free-text query is not included, the orchestrator decides per search
// stage whether text applies.
func (p Params) Filters() filter.Filters {
	f := filter.Filters{}
	if len(p.Types) > 0 {
		f = f.WithTypes(p.Types...)
	}
	if len(p.Generations) > 0 {
		f = f.WithGenerations(p.Generations...)
	}
	if p.MinHP != nil {
		f = f.WithMin(filter.StatHP, *p.MinHP)
	}
	if p.MinAttack != nil {
		f = f.WithMin(filter.StatAttack, *p.MinAttack)
	}
	if p.MinDefense != nil {
		f = f.WithMin(filter.StatDefense, *p.MinDefense)
	}
	if p.MinSpeed != nil {
		f = f.WithMin(filter.StatSpeed, *p.MinSpeed)
	}
	if p.MaxDefense != nil {
		f = f.WithMax(filter.StatDefense, *p.MaxDefense)
	}
	return f
}

// HasStatFilter reports whether the caller supplied an explicit bound for
// the stat. External bounds take precedence over inferred ones.
func (p Params) HasStatFilter(s filter.Stat) bool {
	switch s {
	case filter.StatHP:
		return p.MinHP != nil
	case filter.StatAttack:
		return p.MinAttack != nil
	case filter.StatDefense:
		return p.MinDefense != nil || p.MaxDefense != nil
	case filter.StatSpeed:
		return p.MinSpeed != nil
	}
	return false
}
