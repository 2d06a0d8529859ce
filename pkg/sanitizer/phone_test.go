package sanitizer

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		regions []string
		want    string
	}{
		{"already e164", "+16502530000", nil, "+16502530000"},
		{"us national format", "(650) 253-0000", nil, "+16502530000"},
		{"surrounding spaces", "  650 253 0000 ", nil, "+16502530000"},
		{"uk with explicit region", "020 7183 8750", []string{"GB"}, "+442071838750"},
		{"empty", "", nil, ""},
		{"letters", "call me", nil, ""},
		{"too short", "12345", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePhone(tt.input, tt.regions...); got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
