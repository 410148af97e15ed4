package locale

import (
	"strings"
)

const (
	DefaultTimezone = "UTC"
)

type Country struct {
	Code            string // ISO 3166-1 alpha-2 country code (e.g., "MX", "US")
	Name            string
	DefaultTimezone string // IANA timezone identifier (e.g., "America/Mexico_City")
}

var (
	Countries = map[string]Country{
		"MX": {Code: "MX", Name: "México", DefaultTimezone: "America/Mexico_City"},
		"CO": {Code: "CO", Name: "Colombia", DefaultTimezone: "America/Bogota"},
		"PE": {Code: "PE", Name: "Perú", DefaultTimezone: "America/Lima"},
		"CL": {Code: "CL", Name: "Chile", DefaultTimezone: "America/Santiago"},
		"AR": {Code: "AR", Name: "Argentina", DefaultTimezone: "America/Argentina/Buenos_Aires"},
		"ES": {Code: "ES", Name: "España", DefaultTimezone: "Europe/Madrid"},
		"US": {Code: "US", Name: "United States", DefaultTimezone: "America/New_York"},
	}

	TimeZoneTags = map[string][]string{
		"MX": {"America/Mexico_City", "America/Monterrey", "America/Cancun", "America/Tijuana", "Mexico/General"},
		"CO": {"America/Bogota"},
		"PE": {"America/Lima"},
		"CL": {"America/Santiago"},
		"AR": {"America/Argentina/Buenos_Aires", "America/Buenos_Aires"},
		"ES": {"Europe/Madrid", "Atlantic/Canary"},
		"US": {"America/New_York", "America/Chicago", "America/Los_Angeles", "US/Eastern", "US/Pacific"},
	}
)

// DetectRegion maps an IANA zone back to its country code, or "" when the
// zone belongs to no supported market.
func DetectRegion(tz string) string {
	for region, zones := range TimeZoneTags {
		for _, z := range zones {
			if strings.EqualFold(tz, z) {
				return region
			}
		}
	}
	return ""
}
