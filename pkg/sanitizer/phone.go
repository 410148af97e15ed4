package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used for numbers written without a country code.
const DefaultRegion = "MX"

// NormalizePhone returns phone in E.164 form ("+525512345678"), or "" if it is not a number.
// Bare digit strings as delivered by the Cloud API are read as already carrying a country code.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}

	if isDigits(phone) && len(phone) > 10 {
		phone = "+" + phone
	}

	parsed, err := phonenumbers.Parse(phone, DefaultRegion)
	if err != nil || !phonenumbers.IsPossibleNumber(parsed) {
		return ""
	}
	return phonenumbers.Format(parsed, phonenumbers.E164)
}

// CustomerID returns the digits-only channel id for a sender ("525512345678").
// The digits are kept as the channel sent them, so replies reach the same wa_id.
func CustomerID(raw string) string {
	digits := onlyDigits(raw)
	if digits == "" {
		return ""
	}
	parsed, err := phonenumbers.Parse("+"+digits, "")
	if err != nil || !phonenumbers.IsPossibleNumber(parsed) {
		return ""
	}
	return digits
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
