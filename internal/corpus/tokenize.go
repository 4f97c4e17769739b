package corpus

import (
	"strings"
	"unicode"
)

// Tokenize lowercases text and splits it on every rune that is neither a letter nor a digit.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Lines splits text into non-empty lines. Co-occurrence windows never cross a line.
func Lines(text string) []string {
	raw := strings.Split(text, "\n")
	out := raw[:0]
	for _, l := range raw {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}
