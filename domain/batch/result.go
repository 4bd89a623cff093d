// Package batch models the outcome of one generation run.
package batch

import (
	"time"

	"docmerge/domain/core"
)

// Failure records one failed row for the summary.
type Failure struct {
	RowIndex int    `json:"row_index"`
	Reason   string `json:"reason"`
}

// Summary reports one generation run. Every processed row is counted exactly
// once, as either a success or a failure.
type Summary struct {
	RunID     core.RunID     `json:"run_id"`
	OutputDir string         `json:"output_dir"`
	Total     int            `json:"total"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Files     []string       `json:"files,omitempty"`
	Failures  []Failure      `json:"failures,omitempty"`
	StartedAt core.Timestamp `json:"started_at"`
	Elapsed   time.Duration  `json:"elapsed_ns"`
}

// RecordSuccess counts one written file.
func (s *Summary) RecordSuccess(filename string) {
	s.Succeeded++
	s.Files = append(s.Files, filename)
}

// RecordFailure counts one failed row.
func (s *Summary) RecordFailure(rowIndex int, err error) {
	s.Failed++
	s.Failures = append(s.Failures, Failure{RowIndex: rowIndex, Reason: err.Error()})
}

// Complete reports whether every row has been accounted for.
func (s *Summary) Complete() bool {
	return s.Succeeded+s.Failed == s.Total
}
