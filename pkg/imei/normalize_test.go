package imei

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want string
	}{
		{"nil", nil, ""},
		{"plain string", "354653661425023", "354653661425023"},
		{"whitespace", "  354653661425023 ", "354653661425023"},
		{"float artifact suffix", "354653661425023.0", "354653661425023"},
		{"integer-valued float", float64(354653661425023.0), "354653661425023"},
		{"leading zeros preserved", "0012345678901234", "0012345678901234"},
		{"interior suffix untouched", "abc.0.0", "abc.0"},
		{"suffix stripped once", "12.0.0", "12.0"},
		{"empty string", "", ""},
		{"int", 42, "42"},
		{"int64", int64(354653661425023), "354653661425023"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw)
			if got != tt.want {
				t.Errorf("Normalize(%v) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{" 123 ", "123"},
		{"123.0", "123"},
		{"123.0.0", "123.0"},
		{".0", ""},
		{"", ""},
	}
	for _, tt := range tests {
		got := Clean(tt.input)
		if got != tt.want {
			t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestValidLuhn(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"354653661425023", true},
		{"354653661425024", false},
		{"49015420323751", true},
		{"", false},
		{"35465366142502a", false},
	}
	for _, tt := range tests {
		got := ValidLuhn(tt.input)
		if got != tt.want {
			t.Errorf("ValidLuhn(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
