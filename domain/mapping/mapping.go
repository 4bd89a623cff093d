// Package mapping binds template placeholder names to data source columns.
package mapping

import (
	"fmt"
	"strings"
	"unicode"
)

// Mapping binds placeholder names to column names. Placeholders missing from
// the map are unbound and pass through rendering untouched.
type Mapping map[string]string

// Bound returns the column a placeholder is bound to.
func (m Mapping) Bound(name string) (string, bool) {
	column, ok := m[name]
	return column, ok
}

// Bind binds a placeholder to a column, replacing any previous binding.
func (m Mapping) Bind(name, column string) {
	m[name] = column
}

// Unbind removes a placeholder's binding.
func (m Mapping) Unbind(name string) {
	delete(m, name)
}

// Clone returns an independent copy of the mapping.
func (m Mapping) Clone() Mapping {
	clone := make(Mapping, len(m))
	for name, column := range m {
		clone[name] = column
	}
	return clone
}

// Normalize returns the canonical comparison form of a name: trimmed,
// lowercased, with every run of whitespace and underscores collapsed to a
// single underscore. Two names match when their normalized forms are equal,
// so the placeholder {customer_name} matches the column "Customer Name".
func Normalize(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.TrimSpace(name) {
		if unicode.IsSpace(r) || r == '_' {
			pendingSep = b.Len() > 0
			continue
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Proposal is a default mapping plus whatever could not be bound.
type Proposal struct {
	Bindings Mapping  `json:"bindings"`
	Unbound  []string `json:"unbound,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Propose matches each placeholder to the column whose normalized name equals
// its own. When several columns normalize to the same form, the first one in
// table order wins and a warning is recorded.
func Propose(placeholders, columns []string) Proposal {
	index := make(map[string][]string, len(columns))
	for _, column := range columns {
		key := Normalize(column)
		if key == "" {
			continue
		}
		index[key] = append(index[key], column)
	}

	proposal := Proposal{Bindings: Mapping{}}
	for _, name := range placeholders {
		candidates := index[Normalize(name)]
		switch {
		case len(candidates) == 0:
			proposal.Unbound = append(proposal.Unbound, name)
		case len(candidates) == 1:
			proposal.Bindings[name] = candidates[0]
		default:
			proposal.Bindings[name] = candidates[0]
			proposal.Warnings = append(proposal.Warnings, fmt.Sprintf(
				"placeholder %q matches %d columns after normalization, binding %q",
				name, len(candidates), candidates[0]))
		}
	}
	return proposal
}
