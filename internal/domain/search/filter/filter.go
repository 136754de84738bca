// Package filter defines the immutable filter set applied to catalog queries.
package filter

import (
	"strings"

	"github.com/aryan083/pokedex/internal/domain"
)

// Stat names a numeric attribute that can be bounded.
type Stat string

const (
	StatHP             Stat = "hp"
	StatAttack         Stat = "attack"
	StatDefense        Stat = "defense"
	StatSpecialAttack  Stat = "special_attack"
	StatSpecialDefense Stat = "special_defense"
	StatSpeed          Stat = "speed"
)

// Range bounds a stat inclusively. A nil side is unbounded.
type Range struct {
	Min *int
	Max *int
}

// Filters is an immutable conjunction of search constraints. The zero value
// matches everything. With* methods return a modified copy, the receiver is
// never changed.
type Filters struct {
	text        string
	names       []string
	typeGroups  [][]string
	generations []int
	bounds      map[Stat]Range
}

// Text returns the free-text constraint, empty when unset.
func (f Filters) Text() string { return f.text }

// Names returns the exact-name constraint (match-any), nil when unset.
func (f Filters) Names() []string {
	return append([]string(nil), f.names...)
}

// TypeGroups returns the type constraints. Each group matches an entity
// having any of its types; groups are ANDed together, so an external type
// filter can be stacked on top of an inferred one.
func (f Filters) TypeGroups() [][]string {
	out := make([][]string, len(f.typeGroups))
	for i, g := range f.typeGroups {
		out[i] = append([]string(nil), g...)
	}
	return out
}

// Generations returns the generation constraint (match-any), nil when unset.
func (f Filters) Generations() []int {
	return append([]int(nil), f.generations...)
}

// Bounds returns a copy of the per-stat ranges.
func (f Filters) Bounds() map[Stat]Range {
	out := make(map[Stat]Range, len(f.bounds))
	for k, v := range f.bounds {
		out[k] = v
	}
	return out
}

// Bound returns the range for one stat.
func (f Filters) Bound(s Stat) (Range, bool) {
	r, ok := f.bounds[s]
	return r, ok
}

// IsEmpty reports whether no constraint is set.
func (f Filters) IsEmpty() bool {
	return f.text == "" && len(f.names) == 0 && len(f.typeGroups) == 0 &&
		len(f.generations) == 0 && len(f.bounds) == 0
}

// WithText returns a copy with the free-text constraint set.
func (f Filters) WithText(text string) Filters {
	c := f.clone()
	c.text = strings.TrimSpace(text)
	return c
}

// WithoutText returns a copy with the free-text constraint cleared.
func (f Filters) WithoutText() Filters {
	c := f.clone()
	c.text = ""
	return c
}

// WithNames returns a copy constrained to entities with one of the given
// names (case-insensitive exact match).
func (f Filters) WithNames(names ...string) Filters {
	cleaned := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			cleaned = append(cleaned, n)
		}
	}
	if len(cleaned) == 0 {
		return f
	}
	c := f.clone()
	c.names = cleaned
	return c
}

// WithTypes returns a copy with an additional type group (match-any within
// the group). Empty input returns the receiver unchanged.
func (f Filters) WithTypes(types ...string) Filters {
	cleaned := make([]string, 0, len(types))
	for _, t := range types {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			cleaned = append(cleaned, t)
		}
	}
	if len(cleaned) == 0 {
		return f
	}
	c := f.clone()
	c.typeGroups = append(c.typeGroups, cleaned)
	return c
}

// WithGenerations returns a copy constrained to the given generations.
func (f Filters) WithGenerations(gens ...int) Filters {
	if len(gens) == 0 {
		return f
	}
	c := f.clone()
	c.generations = append([]int(nil), gens...)
	return c
}

// WithMin returns a copy with a lower bound on a stat.
func (f Filters) WithMin(s Stat, v int) Filters {
	c := f.clone()
	r := c.bounds[s]
	r.Min = &v
	c.bounds[s] = r
	return c
}

// WithMax returns a copy with an upper bound on a stat.
func (f Filters) WithMax(s Stat, v int) Filters {
	c := f.clone()
	r := c.bounds[s]
	r.Max = &v
	c.bounds[s] = r
	return c
}

func (f Filters) clone() Filters {
	c := Filters{
		text:        f.text,
		names:       append([]string(nil), f.names...),
		typeGroups:  make([][]string, len(f.typeGroups)),
		generations: append([]int(nil), f.generations...),
		bounds:      make(map[Stat]Range, len(f.bounds)),
	}
	for i, g := range f.typeGroups {
		c.typeGroups[i] = append([]string(nil), g...)
	}
	for k, v := range f.bounds {
		c.bounds[k] = v
	}
	return c
}

// Matches evaluates every structured constraint (type groups, generations,
// stat bounds) against an entity. The free-text constraint is ignored here:
// text matching belongs to the index, Matches is used to post-filter vector
// candidates fetched without structured constraints.
func (f Filters) Matches(p domain.Pokemon) bool {
	if len(f.names) > 0 {
		found := false
		for _, n := range f.names {
			if strings.EqualFold(p.Name, n) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, group := range f.typeGroups {
		if !hasAnyType(p.Types, group) {
			return false
		}
	}
	if len(f.generations) > 0 {
		found := false
		for _, g := range f.generations {
			if p.Generation == g {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for stat, r := range f.bounds {
		v, ok := p.Stat(string(stat))
		if !ok {
			return false
		}
		if r.Min != nil && v < *r.Min {
			return false
		}
		if r.Max != nil && v > *r.Max {
			return false
		}
	}
	return true
}

func hasAnyType(have []string, want []string) bool {
	for _, h := range have {
		h = strings.ToLower(h)
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}
