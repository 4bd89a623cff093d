package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docmerge/domain/batch"
	"docmerge/domain/core"
	"docmerge/domain/mapping"
	"docmerge/domain/tabular"
	"docmerge/internal"
	"docmerge/internal/errors"
	"docmerge/ports"
)

// GenerateRequest defines the inputs for one batch generation run
type GenerateRequest struct {
	Template       ports.DocumentTemplate
	Table          *tabular.Table
	Bindings       mapping.Mapping
	FilenameColumn string
	OutputDir      string
}

// GenerationService renders one document per data row and writes the
// results to the output directory
type GenerationService struct {
	logger *internal.Logger
}

// NewGenerationService creates a generation service
func NewGenerationService(logger *internal.Logger) *GenerationService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &GenerationService{logger: logger}
}

// Generate runs the whole batch. A row that cannot be rendered or written
// is recorded as a failure and the run continues; only problems that make
// the entire run impossible return an error. The returned summary accounts
// for every processed row.
func (s *GenerationService) Generate(ctx context.Context, req GenerateRequest) (*batch.Summary, error) {
	startTime := time.Now()

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	outputDir, err := ensureOutputDir(req.OutputDir)
	if err != nil {
		return nil, err
	}

	summary := &batch.Summary{
		RunID:     core.NewRunID(),
		OutputDir: outputDir,
		Total:     req.Table.RowCount(),
		StartedAt: core.Now(),
	}

	s.logger.Info("Run %s: %d rows, %d bound placeholders, output %s",
		summary.RunID, summary.Total, len(req.Bindings), outputDir)

	names := batch.NewNameAllocator()
	extension := req.Template.Extension()

	for i, row := range req.Table.Rows {
		select {
		case <-ctx.Done():
			summary.Elapsed = time.Since(startTime)
			return summary, ctx.Err()
		default:
		}

		filename, err := s.renderRow(req, row, i, names, extension, outputDir)
		if err != nil {
			summary.RecordFailure(i, err)
			s.logger.Warn("Run %s: row %d failed: %v", summary.RunID, i+1, err)
			continue
		}
		summary.RecordSuccess(filename)
	}

	summary.Elapsed = time.Since(startTime)
	s.logger.Info("Run %s finished: %d succeeded, %d failed in %.2fs",
		summary.RunID, summary.Succeeded, summary.Failed, summary.Elapsed.Seconds())

	return summary, nil
}

// renderRow produces and writes the document for one row, returning the
// filename it was stored under. The name is claimed only after rendering
// succeeds, so a failed row does not shift later disambiguators.
func (s *GenerationService) renderRow(req GenerateRequest, row tabular.Row, rowIndex int, names *batch.NameAllocator, extension, outputDir string) (string, error) {
	rawName, ok := row.Value(req.FilenameColumn)
	if !ok {
		return "", core.NewValueMissingError(req.FilenameColumn, rowIndex+1)
	}

	// Placeholders are walked in template order so the first missing
	// column is reported consistently
	values := make(map[string]string, len(req.Bindings))
	for _, name := range req.Template.Placeholders() {
		column, bound := req.Bindings.Bound(name)
		if !bound {
			continue
		}
		value, present := row.Value(column)
		if !present {
			return "", core.NewValueMissingError(column, rowIndex+1)
		}
		values[name] = value
	}

	data, err := req.Template.Render(values)
	if err != nil {
		return "", core.NewRenderError(rowIndex+1, err)
	}

	base := names.Claim(batch.Sanitize(rawName))
	filename := base + "." + extension
	path := filepath.Join(outputDir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.WithCode(errors.CodeWriteFailed, fmt.Errorf("failed to write %s: %w", filename, err))
	}

	return filename, nil
}

// validateRequest rejects inputs that make the whole run impossible. A table
// with zero data rows is legal and yields an empty summary. Bindings are
// taken as supplied; a binding to a column no row carries fails row by row,
// not up front.
func validateRequest(req GenerateRequest) error {
	if req.Template == nil {
		return errors.TemplateInvalid("no template provided", nil)
	}
	if req.Table == nil {
		return errors.DataInvalid("no data table provided", nil)
	}
	if strings.TrimSpace(req.FilenameColumn) == "" {
		return errors.MappingInvalid("a filename column is required")
	}
	if !req.Table.HasColumn(req.FilenameColumn) {
		return errors.MappingInvalid(fmt.Sprintf("filename column %q does not exist in the data", req.FilenameColumn))
	}
	return nil
}

// ensureOutputDir creates the output directory if needed and verifies it
// is writable before any row work starts
func ensureOutputDir(dir string) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return "", errors.OutputDirUnavailable(dir, nil)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.OutputDirUnavailable(dir, err)
	}

	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return "", errors.OutputDirUnavailable(dir, err)
	}
	probe.Close()
	os.Remove(probe.Name())

	return dir, nil
}
