package domain

// Pokemon is a single catalog entry. The search core treats records as
// read-only: rows are written in bulk by the seed job, embeddings are
// backfilled asynchronously, so any channel vector may be absent.
type Pokemon struct {
	PokemonID      int      `json:"pokemonId"`
	Name           string   `json:"name"`
	Generation     int      `json:"generation"`
	HP             int      `json:"hp"`
	Attack         int      `json:"attack"`
	Defense        int      `json:"defense"`
	SpecialAttack  int      `json:"specialAttack"`
	SpecialDefense int      `json:"specialDefense"`
	Speed          int      `json:"speed"`
	Height         int      `json:"height"`
	Weight         int      `json:"weight"`
	Types          []string `json:"types"`
	Abilities      []string `json:"abilities"`
	SearchText     string   `json:"searchText,omitempty"`

	// Embeddings holds per-channel vectors; a missing key means the channel
	// has not been embedded yet.
	Embeddings map[Channel][]float32 `json:"-"`
}

// Embedding returns the stored vector for a channel, if present.
func (p Pokemon) Embedding(c Channel) ([]float32, bool) {
	v, ok := p.Embeddings[c]
	return v, ok && len(v) > 0
}

// HasEmbedding reports whether the combined channel has been populated.
// The backfill job writes all four channels in one update, so the combined
// vector doubles as the coverage marker.
func (p Pokemon) HasEmbedding() bool {
	_, ok := p.Embedding(ChannelCombined)
	return ok
}

// Stat returns a stat value by its canonical field name. Unknown names
// return 0 and false.
func (p Pokemon) Stat(name string) (int, bool) {
	switch name {
	case "hp":
		return p.HP, true
	case "attack":
		return p.Attack, true
	case "defense":
		return p.Defense, true
	case "special_attack":
		return p.SpecialAttack, true
	case "special_defense":
		return p.SpecialDefense, true
	case "speed":
		return p.Speed, true
	}
	return 0, false
}
