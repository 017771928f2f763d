package app

import (
	"strings"
	"testing"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"ascii uses rune bound", "go", 1},
		{"longer ascii stays on rune bound", strings.Repeat("a", 300), 150},
		{"multibyte uses byte bound", strings.Repeat("海", 100), 100},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := EstimateTokens(tc.text); got != tc.want {
				t.Fatalf("EstimateTokens(%q) = %d, want %d", tc.text, got, tc.want)
			}
		})
	}
}

func TestEstimateTokensMonotonic(t *testing.T) {
	prev := 0
	text := ""
	for i := 0; i < 50; i++ {
		text += "some more prose "
		got := EstimateTokens(text)
		if got < prev {
			t.Fatalf("estimate shrank from %d to %d at length %d", prev, got, len(text))
		}
		prev = got
	}
}
