package webhook

import (
	"strings"
	"unicode"
)

const maxCodeLength = 32

// ParseCode splits a "code: text" message. The part before the first colon
// counts as a code only when it is a single token holding at least one
// letter, so a typed time such as "10:30" is left whole.
func ParseCode(raw string) (code, text string) {
	raw = strings.TrimSpace(raw)
	head, rest, ok := strings.Cut(raw, ":")
	if !ok {
		return "", raw
	}
	head = strings.TrimSpace(head)
	if !isCode(head) {
		return "", raw
	}
	return head, strings.TrimSpace(rest)
}

func isCode(s string) bool {
	if s == "" || len(s) > maxCodeLength {
		return false
	}
	letter := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r), r == '-', r == '_':
		default:
			return false
		}
	}
	return letter
}
