package sanitizer

import (
	"strings"
	"unicode"
)

const maxNameRunes = 100

// TrimAndNormalize trims s and collapses every run of whitespace, newlines
// included, into one space.
func TrimAndNormalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeName cleans a name typed in chat for storage. On top of CleanText
// it drops invisible format characters and caps the result at 100 runes.
// Case and accents are kept as written.
func NormalizeName(name string) string {
	cleaned := CleanText(strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Cf, r) {
			return -1
		}
		return r
	}, name))

	if runes := []rune(cleaned); len(runes) > maxNameRunes {
		cleaned = strings.TrimSpace(string(runes[:maxNameRunes]))
	}
	return cleaned
}
