package semantic

import (
	"math"
	"testing"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "fire", "fire", 1},
		{"both empty", "", "", 1},
		{"left empty", "", "fire", 0},
		{"right empty", "fire", "", 0},
		{"one edit", "firey", "fire", 0.8},
		{"disjoint", "fire", "aqua", 0},
		{"transposed letters count as two edits", "quik", "quick", 0.8},
		{"unicode runes not bytes", "héllo", "hello", 0.8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	if Similarity("speedy", "speed") != Similarity("speed", "speedy") {
		t.Fatal("similarity must be symmetric")
	}
}
