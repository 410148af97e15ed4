package locale

import (
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
)

// InferCountryFromPhone resolves the country of an international number,
// with or without the leading '+'. Numbers outside the supported markets
// yield nil.
func InferCountryFromPhone(phone string) *Country {
	normalized := strings.TrimSpace(phone)
	if normalized == "" {
		return nil
	}
	if !strings.HasPrefix(normalized, "+") {
		normalized = "+" + normalized
	}

	parsed, err := phonenumbers.Parse(normalized, "")
	if err != nil {
		return nil
	}
	country, ok := Countries[phonenumbers.GetRegionCodeForNumber(parsed)]
	if !ok {
		return nil
	}
	return &country
}

func InferTimezoneFromPhone(phone string) string {
	if country := InferCountryFromPhone(phone); country != nil {
		return country.DefaultTimezone
	}
	return DefaultTimezone
}

// Location loads tz and falls back to UTC when the zone is empty or unknown
// to the tz database.
func Location(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}
