package locale

import (
	"testing"
	"time"
	_ "time/tzdata"
)

func TestInferCountryFromPhone(t *testing.T) {
	tests := []struct {
		name     string
		phone    string
		wantCode string
		wantNil  bool
	}{
		{
			name:     "Mexico City number",
			phone:    "+525512345678",
			wantCode: "MX",
		},
		{
			name:     "Mexico number without plus",
			phone:    "525512345678",
			wantCode: "MX",
		},
		{
			name:     "Spain landline",
			phone:    "+34912345678",
			wantCode: "ES",
		},
		{
			name:     "US number",
			phone:    "+12024561111",
			wantCode: "US",
		},
		{
			name:    "unsupported country",
			phone:   "+442071234567",
			wantNil: true,
		},
		{
			name:    "empty phone",
			phone:   "",
			wantNil: true,
		},
		{
			name:    "invalid phone",
			phone:   "not-a-phone",
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferCountryFromPhone(tt.phone)
			if tt.wantNil {
				if got != nil {
					t.Errorf("InferCountryFromPhone(%q) = %v, want nil", tt.phone, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("InferCountryFromPhone(%q) = nil, want country with code %q", tt.phone, tt.wantCode)
			}
			if got.Code != tt.wantCode {
				t.Errorf("InferCountryFromPhone(%q).Code = %q, want %q", tt.phone, got.Code, tt.wantCode)
			}
		})
	}
}

func TestInferTimezoneFromPhone(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		want  string
	}{
		{
			name:  "Mexico number returns Mexico City timezone",
			phone: "+525512345678",
			want:  "America/Mexico_City",
		},
		{
			name:  "Spain number returns Madrid timezone",
			phone: "+34912345678",
			want:  "Europe/Madrid",
		},
		{
			name:  "unsupported country returns UTC",
			phone: "+442071234567",
			want:  "UTC",
		},
		{
			name:  "empty phone returns UTC",
			phone: "",
			want:  "UTC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferTimezoneFromPhone(tt.phone)
			if got != tt.want {
				t.Errorf("InferTimezoneFromPhone(%q) = %q, want %q", tt.phone, got, tt.want)
			}
		})
	}
}

func TestDetectRegion(t *testing.T) {
	tests := []struct {
		timezone string
		want     string
	}{
		{"America/Mexico_City", "MX"},
		{"america/cancun", "MX"},
		{"Europe/Madrid", "ES"},
		{"America/Los_Angeles", "US"},
		{"Europe/London", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.timezone, func(t *testing.T) {
			got := DetectRegion(tt.timezone)
			if got != tt.want {
				t.Errorf("DetectRegion(%q) = %q, want %q", tt.timezone, got, tt.want)
			}
		})
	}
}

func TestLocation(t *testing.T) {
	if got := Location("America/Mexico_City"); got.String() != "America/Mexico_City" {
		t.Errorf("Location() = %q, want America/Mexico_City", got)
	}
	if got := Location("Not/AZone"); got != time.UTC {
		t.Errorf("Location(unknown) = %q, want UTC", got)
	}
	if got := Location(""); got != time.UTC {
		t.Errorf("Location(\"\") = %q, want UTC", got)
	}
}
