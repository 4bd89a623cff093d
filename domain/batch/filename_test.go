package batch

import (
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"John Smith", "John_Smith"},
		{"1001", "1001"},
		{"Invoice #42", "Invoice_42"},
		{"a/b\\c", "abc"},
		{"9.5", "9.5"},
		{"../secret", "..secret"},
		{"<>:\"|?*", ""},
		{"Łukasz Górski", "Łukasz_Górski"},
		{"", ""},
	}

	for _, test := range tests {
		if got := Sanitize(test.input); got != test.expected {
			t.Errorf("Sanitize(%q) = %q, expected %q", test.input, got, test.expected)
		}
	}
}

func TestClaimDisambiguatesCollisions(t *testing.T) {
	alloc := NewNameAllocator()

	if got := alloc.Claim("report"); got != "report" {
		t.Errorf("First claim = %q, expected report", got)
	}
	if got := alloc.Claim("report"); got != "report_2" {
		t.Errorf("Second claim = %q, expected report_2", got)
	}
	if got := alloc.Claim("report"); got != "report_3" {
		t.Errorf("Third claim = %q, expected report_3", got)
	}
}

func TestClaimSkipsNamesTakenBySuffixes(t *testing.T) {
	alloc := NewNameAllocator()

	alloc.Claim("report")
	alloc.Claim("report_2")

	// The suffix chain must not hand out report_2 twice
	if got := alloc.Claim("report"); got != "report_3" {
		t.Errorf("Claim after explicit report_2 = %q, expected report_3", got)
	}
}

func TestClaimEmptyFallsBack(t *testing.T) {
	alloc := NewNameAllocator()

	if got := alloc.Claim(""); got != "document" {
		t.Errorf("Claim(\"\") = %q, expected document", got)
	}
	if got := alloc.Claim(""); got != "document_2" {
		t.Errorf("Second empty claim = %q, expected document_2", got)
	}
}
