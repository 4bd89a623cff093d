// Package placeholder implements extraction and substitution of brace-delimited
// placeholders in template text.
package placeholder

import (
	"strings"
)

// Extract returns the distinct placeholder names in text, in order of first
// appearance. A name is the trimmed content between an opening and a closing
// brace. A second opening brace restarts the scan, so "{a{b}" yields only "b".
// Empty or whitespace-only bodies and unterminated openings yield nothing.
func Extract(text string) []string {
	var names []string
	seen := make(map[string]bool)

	open := -1
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '{':
			open = i
		case '}':
			if open < 0 {
				continue
			}
			name := strings.TrimSpace(text[open+1 : i])
			open = -1
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// ExtractAll collects placeholder names across independently scanned regions.
// Braces never pair across region boundaries. The result is deduplicated over
// the whole set, keeping first-appearance order.
func ExtractAll(regions []string) []string {
	var names []string
	seen := make(map[string]bool)

	for _, region := range regions {
		for _, name := range Extract(region) {
			if seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// Substitute replaces every placeholder whose name is bound in values with the
// bound value. Unbound placeholders and stray braces pass through unchanged.
// The scan is a single pass, so substituted values are never rescanned.
func Substitute(text string, values map[string]string) string {
	if len(values) == 0 || !strings.ContainsRune(text, '{') {
		return text
	}

	var b strings.Builder
	start := 0
	open := -1
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '{':
			open = i
		case '}':
			if open < 0 {
				continue
			}
			name := strings.TrimSpace(text[open+1 : i])
			if value, ok := values[name]; ok && name != "" {
				b.WriteString(text[start:open])
				b.WriteString(value)
				start = i + 1
			}
			open = -1
		}
	}
	if start == 0 {
		return text
	}
	b.WriteString(text[start:])
	return b.String()
}
