package spreadsheet

import (
	"bytes"
	"encoding/csv"

	"docmerge/domain/tabular"
	"docmerge/internal/errors"
)

// WriteCSV renders a table back out as CSV, columns in table order.
// Cells absent from a row are written as empty fields.
func WriteCSV(table *tabular.Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(table.Columns); err != nil {
		return nil, errors.InternalError("failed to write CSV header")
	}

	record := make([]string, len(table.Columns))
	for _, row := range table.Rows {
		for i, name := range table.Columns {
			record[i] = row[name]
		}
		if err := w.Write(record); err != nil {
			return nil, errors.InternalError("failed to write CSV row")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errors.InternalError("failed to flush CSV output")
	}
	return buf.Bytes(), nil
}
