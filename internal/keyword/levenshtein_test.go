package keyword

import "testing"

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected int
	}{
		{"identical empty", "", "", 0},
		{"identical word", "hello", "hello", 0},
		{"empty a", "", "hello", 5},
		{"empty b multibyte", "héllo", "", 5},
		{"one substitution", "cat", "bat", 1},
		{"one insertion", "cat", "cart", 1},
		{"one deletion", "cart", "cat", 1},
		{"kitten to sitting", "kitten", "sitting", 3},
		{"saturday to sunday", "saturday", "sunday", 3},
		{"typo", "learning", "lerning", 1},
		{"unicode substitution", "naïve", "naive", 1},
		{"transposition counts two", "form", "from", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LevenshteinDistance(tt.a, tt.b); got != tt.expected {
				t.Errorf("LevenshteinDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.expected)
			}
			if got := LevenshteinDistance(tt.b, tt.a); got != tt.expected {
				t.Errorf("LevenshteinDistance(%q, %q) = %d, want %d (symmetry)", tt.b, tt.a, got, tt.expected)
			}
		})
	}
}
