package semantic

import "github.com/aryan083/pokedex/internal/domain/search/filter"

// Compiled is the two-tier filter pair produced from one analysis.
type Compiled struct {
	// Primary keeps the literal query as a text constraint alongside the
	// inferred filters, so exact substring hits rank first when both apply.
	Primary filter.Filters
	// Fallback drops the text constraint entirely: a descriptive phrase
	// like "strong fire pokemon" matches no name, but its inferred filters
	// still select the right entities.
	Fallback filter.Filters
	// HasSemanticIntent is true iff the analysis resolved at least one term.
	HasSemanticIntent bool
}

// Compile turns an analysis into primary and fallback filter sets. Pure
// function, no error conditions.
func Compile(a Analysis) Compiled {
	base := filter.Filters{}
	if len(a.InferredTypes) > 0 {
		base = base.WithTypes(a.InferredTypes...)
	}
	base = ApplyThresholds(base, a.Thresholds)
	return Compiled{
		Primary:           base.WithText(a.Query),
		Fallback:          base,
		HasSemanticIntent: a.HasIntent(),
	}
}

// ApplyThresholds folds a threshold bundle into a filter set.
func ApplyThresholds(f filter.Filters, t Thresholds) filter.Filters {
	if t.MinHP != nil {
		f = f.WithMin(filter.StatHP, *t.MinHP)
	}
	if t.MinAttack != nil {
		f = f.WithMin(filter.StatAttack, *t.MinAttack)
	}
	if t.MinDefense != nil {
		f = f.WithMin(filter.StatDefense, *t.MinDefense)
	}
	if t.MinSpeed != nil {
		f = f.WithMin(filter.StatSpeed, *t.MinSpeed)
	}
	if t.MaxDefense != nil {
		f = f.WithMax(filter.StatDefense, *t.MaxDefense)
	}
	return f
}
