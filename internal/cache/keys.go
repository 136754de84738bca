// Package cache stores ready-to-serve response payloads in Redis with a TTL.
package cache

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aryan083/pokedex/internal/domain"
	"github.com/aryan083/pokedex/internal/domain/search/request"
)

// TTLs per response kind.
const (
	SearchTTL  = 300  // seconds
	CompareTTL = 3600 // seconds
)

// BuildSearchKey derives a deterministic cache key from normalized search
// parameters. Every parameter participates in a fixed position so two
// equivalent requests always collide; list parameters are sorted first.
func BuildSearchKey(p request.Params) string {
	types := append([]string(nil), p.Types...)
	for i := range types {
		types[i] = strings.ToLower(types[i])
	}
	sort.Strings(types)

	gens := append([]int(nil), p.Generations...)
	sort.Ints(gens)
	genParts := make([]string, 0, len(gens))
	for _, g := range gens {
		genParts = append(genParts, strconv.Itoa(g))
	}

	parts := []string{
		"search",
		strconv.Itoa(p.Page),
		strconv.Itoa(p.Limit),
		strings.Join(types, ","),
		strings.Join(genParts, ","),
		intOrEmpty(p.MinHP),
		intOrEmpty(p.MinAttack),
		intOrEmpty(p.MinDefense),
		intOrEmpty(p.MinSpeed),
		intOrEmpty(p.MaxDefense),
		strings.ToLower(p.Search),
		string(p.SortBy),
		string(p.SortOrder),
	}
	return domain.KeyPrefix + strings.Join(parts, ":")
}

// BuildCompareKey derives a cache key from the compared identifiers, order
// independent.
func BuildCompareKey(idsOrNames []string) string {
	keys := make([]string, 0, len(idsOrNames))
	for _, v := range idsOrNames {
		keys = append(keys, strings.ToLower(strings.TrimSpace(v)))
	}
	sort.Strings(keys)
	return fmt.Sprintf("%scompare:%s", domain.KeyPrefix, strings.Join(keys, ":"))
}

func intOrEmpty(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
