package sanitizer

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "valid E.164 format",
			input: "+525512345678",
			want:  "+525512345678",
		},
		{
			name:  "with spaces",
			input: "+52 55 1234 5678",
			want:  "+525512345678",
		},
		{
			name:  "with dashes and parentheses",
			input: "+1 (212) 555-1234",
			want:  "+12125551234",
		},
		{
			name:  "national number uses default region",
			input: "55 1234 5678",
			want:  "+525512345678",
		},
		{
			name:  "bare digits with country code",
			input: "12125551234",
			want:  "+12125551234",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "garbage",
			input: "not a phone",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePhone(tt.input); got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCustomerID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"wa id", "525512345678", "525512345678"},
		{"plus and punctuation", "+1 (212) 555-1234", "12125551234"},
		{"too short", "123", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CustomerID(tt.input); got != tt.want {
				t.Errorf("CustomerID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
