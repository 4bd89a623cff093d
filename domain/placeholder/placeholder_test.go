package placeholder

import (
	"reflect"
	"testing"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{"single placeholder", "Hello {name}!", []string{"name"}},
		{"multiple placeholders", "Dear {first} {last},", []string{"first", "last"}},
		{"unterminated opening ignored", "Hi {name}, { unterminated", []string{"name"}},
		{"restart on second opening", "{a{b}", []string{"b"}},
		{"empty body ignored", "before {} after", nil},
		{"whitespace body ignored", "before {   } after", nil},
		{"surrounding whitespace trimmed", "x { customer name } y", []string{"customer name"}},
		{"duplicates collapsed", "{x} and {x} and {x}", []string{"x"}},
		{"names are case sensitive", "{Name} vs {name}", []string{"Name", "name"}},
		{"closing without opening ignored", "a} b} {real}", []string{"real"}},
		{"no placeholders", "plain text only", nil},
		{"empty text", "", nil},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := Extract(test.text)
			if !reflect.DeepEqual(got, test.expected) {
				t.Errorf("Extract(%q) = %v, expected %v", test.text, got, test.expected)
			}
		})
	}
}

func TestExtractAll(t *testing.T) {
	t.Run("deduplicates across regions", func(t *testing.T) {
		regions := []string{"Hello {name}", "Goodbye {name}, see you on {date}"}
		got := ExtractAll(regions)
		expected := []string{"name", "date"}
		if !reflect.DeepEqual(got, expected) {
			t.Errorf("ExtractAll(%v) = %v, expected %v", regions, got, expected)
		}
	})

	t.Run("braces never pair across regions", func(t *testing.T) {
		regions := []string{"start {na", "me} end"}
		if got := ExtractAll(regions); got != nil {
			t.Errorf("ExtractAll(%v) = %v, expected none", regions, got)
		}
	})
}

func TestSubstitute(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		values   map[string]string
		expected string
	}{
		{
			"bound placeholder replaced",
			"Hello {name}!",
			map[string]string{"name": "Alice"},
			"Hello Alice!",
		},
		{
			"unbound placeholder passes through",
			"Hello {name}, order {order_id}",
			map[string]string{"name": "Alice"},
			"Hello Alice, order {order_id}",
		},
		{
			"empty value still substitutes",
			"[{note}]",
			map[string]string{"note": ""},
			"[]",
		},
		{
			"every occurrence replaced",
			"{name} and {name}",
			map[string]string{"name": "Bob"},
			"Bob and Bob",
		},
		{
			"trimmed name matches",
			"Hi { name }",
			map[string]string{"name": "Eve"},
			"Hi Eve",
		},
		{
			"restarted opening keeps outer literal",
			"{a{b}",
			map[string]string{"b": "X"},
			"{aX",
		},
		{
			"stray braces untouched",
			"set { x } to }{",
			map[string]string{},
			"set { x } to }{",
		},
		{
			"substituted values are not rescanned",
			"{a} {b}",
			map[string]string{"a": "{b}", "b": "deep"},
			"{b} deep",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := Substitute(test.text, test.values)
			if got != test.expected {
				t.Errorf("Substitute(%q) = %q, expected %q", test.text, got, test.expected)
			}
		})
	}
}
