package batch

import (
	"fmt"
	"strings"
	"unicode"
)

const fallbackBaseName = "document"

// Sanitize converts a raw cell value into a safe file base name. Spaces become
// underscores, then every character outside letters, digits, underscore,
// hyphen, and dot is dropped. Path separators never survive. The result may
// be empty.
func Sanitize(value string) string {
	value = strings.ReplaceAll(value, " ", "_")

	var b strings.Builder
	for _, r := range value {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '_' || r == '-' || r == '.':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NameAllocator hands out unique base names within one run. A collision gets
// the lowest free numeric suffix: report, report_2, report_3.
type NameAllocator struct {
	used map[string]bool
}

func NewNameAllocator() *NameAllocator {
	return &NameAllocator{used: make(map[string]bool)}
}

// Claim reserves and returns a unique base name derived from base. An empty
// base falls back to "document".
func (a *NameAllocator) Claim(base string) string {
	if base == "" {
		base = fallbackBaseName
	}
	if !a.used[base] {
		a.used[base] = true
		return base
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s_%d", base, n)
		if !a.used[candidate] {
			a.used[candidate] = true
			return candidate
		}
	}
}
