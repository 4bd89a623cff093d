package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docmerge/domain/core"
	"docmerge/domain/tabular"
	"docmerge/internal/errors"

	"github.com/xuri/excelize/v2"
)

// Reader loads spreadsheet and delimited files into tabular form
type Reader struct{}

// NewReader creates a new tabular data reader
func NewReader() *Reader {
	return &Reader{}
}

var supportedExtensions = []string{".xlsx", ".xlsm", ".xltx", ".xltm", ".csv", ".tsv", ".txt"}

// SupportedExtensions lists the file extensions Read accepts
func SupportedExtensions() []string {
	out := make([]string, len(supportedExtensions))
	copy(out, supportedExtensions)
	return out
}

// ReadFile reads a data file from disk into a table
func (r *Reader) ReadFile(path string) (*tabular.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.DataInvalid(fmt.Sprintf("failed to read data file %s", path), err)
	}
	return r.Read(filepath.Base(path), data)
}

// Read parses file contents into a table, dispatching on the file extension
func (r *Reader) Read(name string, data []byte) (*tabular.Table, error) {
	ext := strings.ToLower(filepath.Ext(name))
	log.Printf("[TableReader] Reading %s file: %s (%d bytes)", strings.TrimPrefix(ext, "."), name, len(data))

	switch ext {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return r.readExcel(data)
	case ".csv":
		return r.readDelimited(data, ',')
	case ".tsv", ".txt":
		return r.readDelimited(data, '\t')
	default:
		return nil, errors.UnsupportedFormat(ext)
	}
}

// readExcel reads the first sheet of a workbook
func (r *Reader) readExcel(data []byte) (*tabular.Table, error) {
	startTime := time.Now()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.DataInvalid("failed to open workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.DataInvalid("workbook contains no sheets", nil)
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.DataInvalid(fmt.Sprintf("failed to read sheet %q", sheets[0]), err)
	}
	readTime := time.Since(startTime)
	log.Printf("[TableReader] Sheet %q read in %.2fms (%d rows)", sheets[0], float64(readTime.Nanoseconds())/1e6, len(records))

	return buildTable(records)
}

// readDelimited reads CSV or tab-separated contents
func (r *Reader) readDelimited(data []byte, delimiter rune) (*tabular.Table, error) {
	startTime := time.Now()
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.DataInvalid("failed to parse delimited data", err)
	}
	readTime := time.Since(startTime)
	log.Printf("[TableReader] Delimited data read in %.2fms (%d rows)", float64(readTime.Nanoseconds())/1e6, len(records))

	return buildTable(records)
}

// buildTable converts raw records into a table. The first record is the
// header row; blank and duplicate headers are skipped with a warning so
// the remaining columns keep their positions.
func buildTable(records [][]string) (*tabular.Table, error) {
	if len(records) == 0 {
		return nil, errors.DataInvalid("data has no header row", core.ErrNoHeaderRow)
	}

	table := &tabular.Table{}

	// Extract headers from the first record
	seen := make(map[string]bool)
	colIndex := make([]int, 0, len(records[0]))
	for i, header := range records[0] {
		name := strings.TrimSpace(header)
		if name == "" {
			table.Warnings = append(table.Warnings, fmt.Sprintf("column %d has a blank header and was skipped", i+1))
			continue
		}
		if seen[name] {
			table.Warnings = append(table.Warnings, fmt.Sprintf("duplicate column %q ignored; using the first occurrence", name))
			continue
		}
		seen[name] = true
		table.Columns = append(table.Columns, name)
		colIndex = append(colIndex, i)
	}

	if len(table.Columns) == 0 {
		return nil, errors.DataInvalid("data has no usable columns", nil)
	}

	// Extract data rows. A record shorter than the header is normal
	// (excelize trims trailing empty cells), so columns past its end
	// read as empty values, not as missing ones.
	for i := 1; i < len(records); i++ {
		record := records[i]
		row := make(tabular.Row, len(table.Columns))
		empty := true

		for c, name := range table.Columns {
			idx := colIndex[c]
			value := ""
			if idx < len(record) {
				value = strings.TrimSpace(record[idx])
			}
			row[name] = value
			if value != "" {
				empty = false
			}
		}

		if empty {
			continue
		}
		table.Rows = append(table.Rows, row)
	}

	log.Printf("[TableReader] Data processed (%d columns, %d rows)", len(table.Columns), len(table.Rows))
	return table, nil
}
