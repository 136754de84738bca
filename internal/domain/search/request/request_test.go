package request

import (
	"reflect"
	"testing"

	"github.com/aryan083/pokedex/internal/domain/search/filter"
)

func intp(v int) *int { return &v }

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Params
		want Params
	}{
		{
			"zero value gets defaults",
			Params{},
			Params{Page: 1, Limit: DefaultLimit, SortBy: SortID, SortOrder: OrderAsc},
		},
		{
			"negative paging clamped",
			Params{Page: -3, Limit: -1},
			Params{Page: 1, Limit: DefaultLimit, SortBy: SortID, SortOrder: OrderAsc},
		},
		{
			"limit capped",
			Params{Page: 2, Limit: 500},
			Params{Page: 2, Limit: MaxLimit, SortBy: SortID, SortOrder: OrderAsc},
		},
		{
			"query trimmed",
			Params{Search: "  fire  "},
			Params{Page: 1, Limit: DefaultLimit, Search: "fire", SortBy: SortID, SortOrder: OrderAsc},
		},
		{
			"unknown sort degrades",
			Params{SortBy: "weight", SortOrder: "sideways"},
			Params{Page: 1, Limit: DefaultLimit, SortBy: SortID, SortOrder: OrderAsc},
		},
		{
			"valid sort kept, order case-folded",
			Params{SortBy: SortSpeed, SortOrder: "desc"},
			Params{Page: 1, Limit: DefaultLimit, SortBy: SortSpeed, SortOrder: OrderDesc},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestOffset(t *testing.T) {
	p := Normalize(Params{Page: 3, Limit: 25})
	if got := p.Offset(); got != 50 {
		t.Fatalf("Offset = %d, want 50", got)
	}
}

func TestFiltersConversion(t *testing.T) {
	p := Params{
		Search:      "strong",
		Types:       []string{"fire"},
		Generations: []int{1, 2},
		MinHP:       intp(80),
		MaxDefense:  intp(70),
	}

	f := p.Filters()

	if f.Text() != "" {
		t.Fatal("free text must not leak into the structured filters")
	}
	if !reflect.DeepEqual(f.TypeGroups(), [][]string{{"fire"}}) {
		t.Fatalf("type groups = %v", f.TypeGroups())
	}
	if !reflect.DeepEqual(f.Generations(), []int{1, 2}) {
		t.Fatalf("generations = %v", f.Generations())
	}
	if r, _ := f.Bound(filter.StatHP); r.Min == nil || *r.Min != 80 {
		t.Fatalf("hp bound = %+v", r)
	}
	if r, _ := f.Bound(filter.StatDefense); r.Max == nil || *r.Max != 70 {
		t.Fatalf("defense bound = %+v", r)
	}
}

func TestHasStatFilter(t *testing.T) {
	p := Params{MinSpeed: intp(100), MaxDefense: intp(70)}

	if !p.HasStatFilter(filter.StatSpeed) {
		t.Fatal("explicit speed bound not reported")
	}
	if !p.HasStatFilter(filter.StatDefense) {
		t.Fatal("max defense counts as a defense filter")
	}
	if p.HasStatFilter(filter.StatHP) {
		t.Fatal("hp was never bounded")
	}
	if p.HasStatFilter(filter.StatSpecialAttack) {
		t.Fatal("special attack is not externally boundable")
	}
}
