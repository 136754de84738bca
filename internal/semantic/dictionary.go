// Package semantic maps free-text query terms onto catalog types and stat
// thresholds, so that "fast fire pokemon" can be answered with structured
// filters even when no vector index is available.
package semantic

// Thresholds is a bundle of stat bounds implied by a term. Nil means the
// bound is not implied.
type Thresholds struct {
	MinHP      *int
	MinAttack  *int
	MinDefense *int
	MinSpeed   *int
	MaxDefense *int
}

// IsZero reports whether no bound is set.
func (t Thresholds) IsZero() bool {
	return t.MinHP == nil && t.MinAttack == nil && t.MinDefense == nil &&
		t.MinSpeed == nil && t.MaxDefense == nil
}

// Merge overlays other on top of t. For every bound other sets, other wins;
// bounds other leaves nil keep t's value. Merge order therefore decides
// conflicts: the last mapping to claim a bound owns it.
func (t Thresholds) Merge(other Thresholds) Thresholds {
	if other.MinHP != nil {
		t.MinHP = other.MinHP
	}
	if other.MinAttack != nil {
		t.MinAttack = other.MinAttack
	}
	if other.MinDefense != nil {
		t.MinDefense = other.MinDefense
	}
	if other.MinSpeed != nil {
		t.MinSpeed = other.MinSpeed
	}
	if other.MaxDefense != nil {
		t.MaxDefense = other.MaxDefense
	}
	return t
}

// Mapping is one semantic concept. All of its surface forms resolve to the
// same *Mapping, which is what prevents "flame fire" from contributing the
// fire type twice: claiming is tracked per mapping, not per term.
type Mapping struct {
	// Key is the canonical term.
	Key string
	// Terms are additional surface forms matched exactly, same confidence
	// as the key.
	Terms []string
	// Synonyms are looser alternates reachable only through fuzzy matching,
	// at reduced confidence.
	Synonyms []string

	Types      []string
	Thresholds Thresholds
}

// Dictionary resolves query tokens to mappings.
type Dictionary struct {
	mappings []*Mapping
	byTerm   map[string]*Mapping
}

// NewDictionary indexes the given mappings by key and terms. Scan order for
// fuzzy matching follows the input order.
func NewDictionary(mappings []*Mapping) *Dictionary {
	d := &Dictionary{
		mappings: mappings,
		byTerm:   make(map[string]*Mapping),
	}
	for _, m := range mappings {
		d.byTerm[m.Key] = m
		for _, t := range m.Terms {
			d.byTerm[t] = m
		}
	}
	return d
}

// Lookup returns the mapping a term resolves to exactly.
func (d *Dictionary) Lookup(term string) (*Mapping, bool) {
	m, ok := d.byTerm[term]
	return m, ok
}

// Mappings returns the scan-ordered mapping list.
func (d *Dictionary) Mappings() []*Mapping { return d.mappings }

func ptr(v int) *int { return &v }

// DefaultDictionary returns the built-in term table: one cluster per
// Pokemon type plus stat-characteristic terms. Characteristic terms keep
// individual mappings because each carries its own threshold profile.
func DefaultDictionary() *Dictionary {
	return NewDictionary([]*Mapping{
		{Key: "fire", Terms: []string{"flame", "blaze", "inferno", "ember", "scorch"}, Synonyms: []string{"burn", "heat"}, Types: []string{"fire"}},
		{Key: "water", Terms: []string{"aqua", "hydro", "marine", "splash", "wave"}, Synonyms: []string{"ocean", "sea"}, Types: []string{"water"}},
		{Key: "electric", Terms: []string{"bolt", "shock", "thunder", "lightning", "spark", "zap"}, Types: []string{"electric"}},
		{Key: "grass", Terms: []string{"leaf", "plant", "nature", "forest", "bloom"}, Types: []string{"grass"}},
		{Key: "ice", Terms: []string{"frost", "freeze", "cold", "snow", "blizzard"}, Types: []string{"ice"}},
		{Key: "ground", Terms: []string{"earth", "soil", "dirt", "sand", "mud"}, Types: []string{"ground"}},
		{Key: "flying", Terms: []string{"wind", "air", "sky", "wing", "feather"}, Types: []string{"flying"}},
		{Key: "psychic", Terms: []string{"mind", "mental", "brain", "telekinesis"}, Types: []string{"psychic"}},
		{Key: "bug", Terms: []string{"insect", "beetle", "spider", "ant"}, Types: []string{"bug"}},
		{Key: "rock", Terms: []string{"stone", "mineral", "crystal", "gem"}, Types: []string{"rock"}},
		{Key: "ghost", Terms: []string{"spirit", "phantom", "spook", "haunt"}, Types: []string{"ghost"}},
		{Key: "dragon", Terms: []string{"wyrm", "drake", "serpent"}, Types: []string{"dragon"}},
		{Key: "dark", Terms: []string{"shadow", "evil", "night"}, Types: []string{"dark"}},
		{Key: "steel", Terms: []string{"metal", "iron", "chrome"}, Types: []string{"steel"}},
		{Key: "fairy", Terms: []string{"magic", "mystical", "enchanted"}, Types: []string{"fairy"}},
		{Key: "poison", Terms: []string{"toxic", "venom", "acid"}, Types: []string{"poison"}},
		{Key: "fighting", Terms: []string{"martial", "combat", "warrior", "brawl"}, Types: []string{"fighting"}},
		{Key: "normal", Types: []string{"normal"}},

		{Key: "fast", Synonyms: []string{"quick", "speedy", "swift"}, Thresholds: Thresholds{MinSpeed: ptr(100)}},
		{Key: "quick", Synonyms: []string{"fast", "speedy"}, Thresholds: Thresholds{MinSpeed: ptr(90)}},
		{Key: "speedy", Synonyms: []string{"fast", "quick"}, Thresholds: Thresholds{MinSpeed: ptr(95)}},
		{Key: "swift", Synonyms: []string{"fast", "quick"}, Thresholds: Thresholds{MinSpeed: ptr(85)}},

		{Key: "tank", Synonyms: []string{"tanky", "bulky", "defensive"}, Thresholds: Thresholds{MinHP: ptr(80), MinDefense: ptr(80)}},
		{Key: "tanky", Synonyms: []string{"tank", "bulky"}, Thresholds: Thresholds{MinHP: ptr(75), MinDefense: ptr(75)}},
		{Key: "bulky", Synonyms: []string{"tank", "tanky"}, Thresholds: Thresholds{MinHP: ptr(85), MinDefense: ptr(70)}},
		{Key: "defensive", Synonyms: []string{"tank", "bulky"}, Thresholds: Thresholds{MinDefense: ptr(90)}},

		{Key: "glass", Synonyms: []string{"fragile", "frail"}, Thresholds: Thresholds{MinAttack: ptr(100), MaxDefense: ptr(70)}},
		{Key: "fragile", Synonyms: []string{"glass", "frail"}, Thresholds: Thresholds{MaxDefense: ptr(65)}},
		{Key: "frail", Synonyms: []string{"glass", "fragile"}, Thresholds: Thresholds{MaxDefense: ptr(60)}},

		{Key: "strong", Synonyms: []string{"powerful", "mighty"}, Thresholds: Thresholds{MinAttack: ptr(100)}},
		{Key: "powerful", Synonyms: []string{"strong", "mighty"}, Thresholds: Thresholds{MinAttack: ptr(110)}},
		{Key: "mighty", Synonyms: []string{"strong", "powerful"}, Thresholds: Thresholds{MinAttack: ptr(120)}},

		{Key: "tough", Synonyms: []string{"hardy", "resilient"}, Thresholds: Thresholds{MinHP: ptr(90)}},
		{Key: "hardy", Synonyms: []string{"tough", "resilient"}, Thresholds: Thresholds{MinHP: ptr(85), MinDefense: ptr(70)}},
		{Key: "resilient", Synonyms: []string{"tough", "hardy"}, Thresholds: Thresholds{MinHP: ptr(80), MinDefense: ptr(75)}},
	})
}
