package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Data shape errors
	ErrNoHeaderRow  = errors.New("data source has no header row")
	ErrValueMissing = errors.New("row has no value for column")

	// Template errors
	ErrNotDocx         = errors.New("file is not a docx archive")
	ErrMissingDocument = errors.New("archive has no main document part")

	// Render errors
	ErrRenderFailed = errors.New("row rendering failed")
)

// Error constructors with context. Row numbers are 1-based for reporting.
func NewValueMissingError(column string, rowNumber int) error {
	return fmt.Errorf("%w: %q in row %d", ErrValueMissing, column, rowNumber)
}

func NewRenderError(rowNumber int, err error) error {
	return fmt.Errorf("%w: row %d: %v", ErrRenderFailed, rowNumber, err)
}
