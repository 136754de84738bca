package catalog

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	"github.com/aryan083/pokedex/internal/domain"
)

// Hash field names. Numeric and tag fields double as index attributes, so
// the names here must match the schema built in EnsureIndex.
const (
	fieldID             = "pokemon_id"
	fieldName           = "name"
	fieldGeneration     = "generation"
	fieldHP             = "hp"
	fieldAttack         = "attack"
	fieldDefense        = "defense"
	fieldSpecialAttack  = "special_attack"
	fieldSpecialDefense = "special_defense"
	fieldSpeed          = "speed"
	fieldHeight         = "height"
	fieldWeight         = "weight"
	fieldTypes          = "types"
	fieldAbilities      = "abilities"
	fieldSearchText     = "search_text"
)

// scalarFields lists every non-vector field, used as RETURN set for FT
// queries so result entries never drag vector blobs over the wire.
var scalarFields = []string{
	fieldID, fieldName, fieldGeneration,
	fieldHP, fieldAttack, fieldDefense,
	fieldSpecialAttack, fieldSpecialDefense, fieldSpeed,
	fieldHeight, fieldWeight,
	fieldTypes, fieldAbilities, fieldSearchText,
}

// ScalarFields returns the RETURN set shared with the vector repository.
func ScalarFields() []string {
	return append([]string(nil), scalarFields...)
}

// ParsePokemon converts flat hash fields into a Pokemon. Exposed for the
// vector repository, which reads the same hashes through FT.SEARCH.
func ParsePokemon(m map[string]string) domain.Pokemon {
	return parseHashFields(m)
}

// buildHashFields converts a Pokemon into a flat map[string]string for HSET.
// Vector channels are written only when present.
func buildHashFields(p domain.Pokemon) map[string]string {
	m := map[string]string{
		fieldID:             strconv.Itoa(p.PokemonID),
		fieldName:           p.Name,
		fieldGeneration:     strconv.Itoa(p.Generation),
		fieldHP:             strconv.Itoa(p.HP),
		fieldAttack:         strconv.Itoa(p.Attack),
		fieldDefense:        strconv.Itoa(p.Defense),
		fieldSpecialAttack:  strconv.Itoa(p.SpecialAttack),
		fieldSpecialDefense: strconv.Itoa(p.SpecialDefense),
		fieldSpeed:          strconv.Itoa(p.Speed),
		fieldHeight:         strconv.Itoa(p.Height),
		fieldWeight:         strconv.Itoa(p.Weight),
		fieldTypes:          strings.Join(p.Types, ","),
		fieldAbilities:      strings.Join(p.Abilities, ","),
		fieldSearchText:     p.SearchText,
	}
	for ch, vec := range p.Embeddings {
		if len(vec) > 0 {
			m[ch.Field()] = vectorToBytes(vec)
		}
	}
	return m
}

// parseHashFields converts a flat hash map back into a Pokemon.
func parseHashFields(m map[string]string) domain.Pokemon {
	p := domain.Pokemon{
		PokemonID:      atoi(m[fieldID]),
		Name:           m[fieldName],
		Generation:     atoi(m[fieldGeneration]),
		HP:             atoi(m[fieldHP]),
		Attack:         atoi(m[fieldAttack]),
		Defense:        atoi(m[fieldDefense]),
		SpecialAttack:  atoi(m[fieldSpecialAttack]),
		SpecialDefense: atoi(m[fieldSpecialDefense]),
		Speed:          atoi(m[fieldSpeed]),
		Height:         atoi(m[fieldHeight]),
		Weight:         atoi(m[fieldWeight]),
		Types:          splitList(m[fieldTypes]),
		Abilities:      splitList(m[fieldAbilities]),
		SearchText:     m[fieldSearchText],
	}
	for _, ch := range domain.Channels() {
		if raw, ok := m[ch.Field()]; ok && raw != "" {
			if vec := bytesToVector(raw); vec != nil {
				if p.Embeddings == nil {
					p.Embeddings = make(map[domain.Channel][]float32, 4)
				}
				p.Embeddings[ch] = vec
			}
		}
	}
	return p
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// bytesToVector deserializes a binary string back to []float32.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
