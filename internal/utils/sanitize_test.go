package utils

import (
	"strings"
	"testing"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "Kovács Anna", "Kovács Anna"},
		{"separators", "AC/DC: Live", "AC_DC_ Live"},
		{"windows chars", `a*b?c"d<e>f|g\h`, "a_b_c_d_e_f_g_h"},
		{"whitespace collapse", "  Nagy \t\n  Péter  ", "Nagy Péter"},
		{"control chars", "Szabó\x00\x07 Éva", "Szabó Éva"},
		{"trailing dots", "Dr. Kiss...", "Dr. Kiss"},
		{"decomposed accents", "Kova\u0301cs", "Kov\u00e1cs"},
		{"empty", "", "unnamed"},
		{"only dots", "...", "unnamed"},
		{"only spaces", "   ", "unnamed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeName(tt.input, "unnamed")
			if got != tt.expected {
				t.Errorf("SanitizeName(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSanitizeName_TruncatesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("é", 150) // 300 bytes
	got := SanitizeName(long, "x")

	if len(got) > maxNameBytes {
		t.Errorf("len = %d, expected at most %d", len(got), maxNameBytes)
	}
	if got != strings.Repeat("é", 100) {
		t.Errorf("unexpected truncation result %q", got)
	}
}
