package mapping

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Customer Name", "customer_name"},
		{"customer_name", "customer_name"},
		{"  Invoice   Number  ", "invoice_number"},
		{"ORDER__ID", "order_id"},
		{"Tab\tAnd Space", "tab_and_space"},
		{"_leading", "leading"},
		{"trailing_", "trailing"},
		{"", ""},
		{"   ", ""},
	}

	for _, test := range tests {
		if got := Normalize(test.input); got != test.expected {
			t.Errorf("Normalize(%q) = %q, expected %q", test.input, got, test.expected)
		}
	}
}

func TestProposeMatchesNormalizedNames(t *testing.T) {
	placeholders := []string{"customer_name", "invoice_number", "order_id"}
	columns := []string{"Customer Name", "Invoice Number", "Amount"}

	got := Propose(placeholders, columns)

	want := Proposal{
		Bindings: Mapping{
			"customer_name":  "Customer Name",
			"invoice_number": "Invoice Number",
		},
		Unbound: []string{"order_id"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Propose mismatch (-want +got):\n%s", diff)
	}
}

func TestProposeAmbiguityBindsFirstColumn(t *testing.T) {
	got := Propose([]string{"order_id"}, []string{"Order ID", "order_id", "Total"})

	if column := got.Bindings["order_id"]; column != "Order ID" {
		t.Errorf("Expected first column in table order, got %q", column)
	}
	if len(got.Warnings) != 1 {
		t.Fatalf("Expected 1 ambiguity warning, got %d", len(got.Warnings))
	}
}

func TestProposeExactMatchIsStillCaseInsensitive(t *testing.T) {
	got := Propose([]string{"Name"}, []string{"name"})

	want := Proposal{Bindings: Mapping{"Name": "name"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Propose mismatch (-want +got):\n%s", diff)
	}
}

func TestMappingClone(t *testing.T) {
	original := Mapping{"a": "Col A"}
	clone := original.Clone()
	clone.Bind("b", "Col B")

	if _, ok := original.Bound("b"); ok {
		t.Error("Expected clone mutation to leave the original untouched")
	}
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.yaml")

	saved := &File{
		Template:   "invoice.docx",
		NameColumn: "Invoice Number",
		Bindings:   map[string]string{"customer_name": "Customer Name"},
		Unbound:    []string{"order_id"},
	}
	if err := saved.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if diff := cmp.Diff(saved, loaded); diff != "" {
		t.Errorf("Round trip mismatch (-saved +loaded):\n%s", diff)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing mapping file")
	}
}
