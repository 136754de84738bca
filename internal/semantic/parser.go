package semantic

import (
	"sort"
	"strings"
)

// fuzzyThreshold is the minimum similarity for a fuzzy term match. Strictly
// greater-than: a similarity of exactly 0.6 is rejected.
const fuzzyThreshold = 0.6

// synonymPenalty discounts matches found through a synonym rather than a
// canonical term.
const synonymPenalty = 0.9

// maxFuzzyMatches caps fuzzy matches per query, keeping the strongest.
const maxFuzzyMatches = 3

// Match records one resolved query term.
type Match struct {
	// Term is the dictionary term that matched, not the query token.
	Term       string
	Mapping    *Mapping
	Confidence float64
}

// Analysis is the structured reading of a free-text query.
type Analysis struct {
	// Query is the lowercased, trimmed input.
	Query  string
	Tokens []string
	// Matches lists exact matches first, then fuzzy matches by descending
	// confidence.
	Matches []Match
	// InferredTypes is deduplicated, in discovery order.
	InferredTypes []string
	// Thresholds is the merge of all matched bundles, later matches
	// overwriting earlier ones per bound.
	Thresholds Thresholds
}

// HasIntent reports whether any term resolved.
func (a Analysis) HasIntent() bool { return len(a.Matches) > 0 }

// Parser resolves query tokens against a dictionary.
type Parser struct {
	dict *Dictionary
}

// NewParser returns a parser over the given dictionary.
func NewParser(dict *Dictionary) *Parser {
	return &Parser{dict: dict}
}

// Parse analyzes a query. It never fails: unknown or empty input yields an
// analysis with no matches.
//
// Exact matches are resolved first, one per mapping: a token whose mapping
// was already claimed by an earlier token contributes nothing. Tokens
// without an exact match are then fuzzy-matched against every unclaimed
// mapping; the top maxFuzzyMatches by confidence survive.
func (p *Parser) Parse(query string) Analysis {
	q := strings.ToLower(strings.TrimSpace(query))
	tokens := strings.Fields(q)

	claimed := make(map[*Mapping]bool)
	var exact []Match
	for _, tok := range tokens {
		m, ok := p.dict.Lookup(tok)
		if !ok || claimed[m] {
			continue
		}
		claimed[m] = true
		exact = append(exact, Match{Term: tok, Mapping: m, Confidence: 1.0})
	}

	var fuzzy []Match
	for _, tok := range tokens {
		if _, ok := p.dict.Lookup(tok); ok {
			continue
		}
		fuzzy = append(fuzzy, p.fuzzyMatch(tok, claimed)...)
	}
	sort.SliceStable(fuzzy, func(i, j int) bool {
		return fuzzy[i].Confidence > fuzzy[j].Confidence
	})
	if len(fuzzy) > maxFuzzyMatches {
		fuzzy = fuzzy[:maxFuzzyMatches]
	}

	matches := append(exact, fuzzy...)

	a := Analysis{Query: q, Tokens: tokens, Matches: matches}
	seen := make(map[string]bool)
	for _, m := range matches {
		for _, t := range m.Mapping.Types {
			if !seen[t] {
				seen[t] = true
				a.InferredTypes = append(a.InferredTypes, t)
			}
		}
		a.Thresholds = a.Thresholds.Merge(m.Mapping.Thresholds)
	}
	return a
}

// fuzzyMatch scans unclaimed mappings for a token. Canonical terms are
// preferred: synonyms are consulted only when no canonical form of the
// mapping clears the threshold, and score lower. Matched mappings are
// claimed immediately so later tokens cannot re-contribute them.
func (p *Parser) fuzzyMatch(token string, claimed map[*Mapping]bool) []Match {
	var out []Match
	for _, m := range p.dict.Mappings() {
		if claimed[m] {
			continue
		}

		bestTerm, bestSim := "", 0.0
		for _, term := range append([]string{m.Key}, m.Terms...) {
			if sim := Similarity(token, term); sim > bestSim {
				bestTerm, bestSim = term, sim
			}
		}
		if bestSim > fuzzyThreshold {
			out = append(out, Match{Term: bestTerm, Mapping: m, Confidence: bestSim})
			claimed[m] = true
			continue
		}

		bestTerm, bestSim = "", 0.0
		for _, syn := range m.Synonyms {
			if sim := Similarity(token, syn); sim > bestSim && sim > fuzzyThreshold {
				bestTerm, bestSim = syn, sim
			}
		}
		if bestSim > 0 {
			out = append(out, Match{Term: bestTerm, Mapping: m, Confidence: bestSim * synonymPenalty})
			claimed[m] = true
		}
	}
	return out
}
