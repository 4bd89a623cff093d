package tabular

import (
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"
)

// ColumnProfile summarizes one column's contents for preview and inspection.
type ColumnProfile struct {
	Column   string  `json:"column"`
	Rows     int     `json:"rows"`
	NonEmpty int     `json:"non_empty"`
	Distinct int     `json:"distinct"`
	Numeric  bool    `json:"numeric"`
	Min      float64 `json:"min,omitempty"`
	Max      float64 `json:"max,omitempty"`
	Mean     float64 `json:"mean,omitempty"`
	Median   float64 `json:"median,omitempty"`
}

// Profile computes per-column summaries for the whole table.
func Profile(t *Table) []ColumnProfile {
	profiles := make([]ColumnProfile, 0, len(t.Columns))
	for _, column := range t.Columns {
		profiles = append(profiles, profileColumn(t, column))
	}
	return profiles
}

func profileColumn(t *Table, column string) ColumnProfile {
	profile := ColumnProfile{Column: column, Rows: len(t.Rows)}

	distinct := make(map[string]bool)
	var numbers []float64
	numeric := true

	for _, row := range t.Rows {
		value, ok := row.Value(column)
		if !ok || value == "" {
			continue
		}
		profile.NonEmpty++
		distinct[value] = true
		if numeric {
			if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
				numbers = append(numbers, f)
			} else {
				numeric = false
			}
		}
	}
	profile.Distinct = len(distinct)

	// A column counts as numeric only when every non-empty value parses
	if profile.NonEmpty == 0 || !numeric {
		return profile
	}
	profile.Numeric = true
	if min, err := stats.Min(numbers); err == nil {
		profile.Min = min
	}
	if max, err := stats.Max(numbers); err == nil {
		profile.Max = max
	}
	if mean, err := stats.Mean(numbers); err == nil {
		profile.Mean = mean
	}
	if median, err := stats.Median(numbers); err == nil {
		profile.Median = median
	}
	return profile
}
