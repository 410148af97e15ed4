package sanitizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func stripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return ' '
		}
		return r
	}, s)
}

// MatchKey reduces free text to a comparison key: lowercase, accents folded,
// punctuation dropped, whitespace collapsed.
func MatchKey(input string) string {
	p := Pipeline{
		strings.ToLower,
		foldAccents,
		stripPunctuation,
		TrimAndNormalize,
	}
	return p.Apply(input)
}

// CleanText prepares inbound message text: trims, collapses whitespace and drops control characters.
func CleanText(input string) string {
	p := Pipeline{
		func(s string) string {
			return strings.Map(func(r rune) rune {
				if unicode.IsControl(r) && !unicode.IsSpace(r) {
					return -1
				}
				return r
			}, s)
		},
		TrimAndNormalize,
	}
	return p.Apply(input)
}
