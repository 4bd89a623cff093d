package ports

import (
	"docmerge/domain/tabular"
)

// TableReaderPort provides read-only access to tabular data files for the
// UI, API, and CLI. Implementations select the parser from the file
// extension and never mutate the source.
type TableReaderPort interface {
	// Read parses an in-memory file. name carries the extension that picks
	// the format.
	Read(name string, data []byte) (*tabular.Table, error)

	// ReadFile parses a file on disk.
	ReadFile(path string) (*tabular.Table, error)
}
