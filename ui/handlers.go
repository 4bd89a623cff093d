package ui

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"docmerge/adapters/spreadsheet"
	"docmerge/app"
	"docmerge/domain/core"
	"docmerge/domain/mapping"
	"docmerge/domain/tabular"
	"docmerge/internal/errors"
)

var docxMimeTypes = []string{
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/zip",
	"application/octet-stream",
}

var dataMimeTypes = []string{
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.ms-excel",
	"text/csv",
	"application/csv",
	"text/tab-separated-values",
	"text/plain",
	"application/octet-stream",
}

// placeholderBinding is one row of the mapping form
type placeholderBinding struct {
	Name   string
	Column string
}

// mappingPage is the view model for the mapping screen
type mappingPage struct {
	SessionID      string
	TemplateName   string
	TemplateHash   string
	DataName       string
	DataHash       string
	RowCount       int
	Columns        []string
	Placeholders   []placeholderBinding
	NoPlaceholders bool
	Unbound        []string
	Warnings       []string
	PreviewRows    []tabular.Row
	Profiles       []tabular.ColumnProfile
	NameColumn     string
	OutputDir      string
}

// summaryPage is the view model for the run summary screen
type summaryPage struct {
	SessionID    string
	RunID        string
	Total        int
	Succeeded    int
	Failed       int
	Elapsed      string
	OutputDir    string
	Files        []string
	Failures     []failureRow
	AllSucceeded bool
}

type failureRow struct {
	RowNumber int
	Reason    string
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	a.renderTemplate(w, "index.html", map[string]interface{}{
		"MaxUploadMB":    a.cfg.Upload.MaxBytes / (1 << 20),
		"DataExtensions": spreadsheet.SupportedExtensions(),
	})
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (a *App) handleGuide(w http.ResponseWriter, r *http.Request) {
	a.renderTemplate(w, "guide.html", map[string]interface{}{"Guide": a.guideHTML})
}

// handleUpload ingests the template and data files and opens a session
func (a *App) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.cfg.Upload.MaxBytes)
	if err := r.ParseMultipartForm(a.cfg.Upload.MaxBytes); err != nil {
		log.Printf("[Upload] FAILED - form rejected: %v", err)
		a.renderError(w, http.StatusRequestEntityTooLarge, errors.UploadTooLarge(a.cfg.Upload.MaxBytes).Error())
		return
	}

	templateName, templateData, templateMime, err := formFile(r, "template")
	if err != nil {
		a.renderError(w, http.StatusBadRequest, "No template file uploaded")
		return
	}
	if !strings.EqualFold(filepath.Ext(templateName), ".docx") {
		a.renderError(w, http.StatusUnsupportedMediaType, "Only .docx templates are supported")
		return
	}
	warnUnexpectedMime(templateName, templateMime, docxMimeTypes)

	dataName, dataData, dataMime, err := formFile(r, "data")
	if err != nil {
		a.renderError(w, http.StatusBadRequest, "No data file uploaded")
		return
	}
	if !extensionSupported(dataName) {
		a.renderError(w, http.StatusUnsupportedMediaType,
			fmt.Sprintf("Data files must be one of %s", strings.Join(spreadsheet.SupportedExtensions(), ", ")))
		return
	}
	warnUnexpectedMime(dataName, dataMime, dataMimeTypes)

	tmpl, err := a.codec.Parse(templateName, templateData)
	if err != nil {
		log.Printf("[Upload] FAILED - template rejected: %v", err)
		a.renderError(w, statusForError(err), err.Error())
		return
	}
	table, err := a.reader.Read(dataName, dataData)
	if err != nil {
		log.Printf("[Upload] FAILED - data rejected: %v", err)
		a.renderError(w, statusForError(err), err.Error())
		return
	}

	session := &Session{
		TemplateName: templateName,
		Template:     tmpl,
		TemplateHash: core.NewTemplateHash(templateData),
		DataName:     dataName,
		Table:        table,
		DataHash:     core.NewDataHash(dataData),
		Proposal:     mapping.Propose(tmpl.Placeholders(), table.Columns),
		Profiles:     tabular.Profile(table),
	}
	id := a.sessions.Put(session)

	log.Printf("[Upload] Session %s: template %s (%d placeholders), data %s (%d columns, %d rows)",
		shortID(id), templateName, len(tmpl.Placeholders()), dataName, len(table.Columns), table.RowCount())
	http.Redirect(w, r, "/session/"+id.String(), http.StatusSeeOther)
}

// handleMapping shows the proposed placeholder bindings and the data preview
func (a *App) handleMapping(w http.ResponseWriter, r *http.Request) {
	id, err := sessionIDFromRequest(r)
	if err != nil {
		a.renderError(w, http.StatusNotFound, "Unknown session")
		return
	}

	var page mappingPage
	if err := a.sessions.View(id, func(s *Session) {
		page = buildMappingPage(a, s)
	}); err != nil {
		a.renderError(w, http.StatusNotFound, err.Error())
		return
	}

	a.renderTemplate(w, "mapping.html", page)
}

// handleGenerate runs the batch with the bindings submitted from the form
func (a *App) handleGenerate(w http.ResponseWriter, r *http.Request) {
	id, err := sessionIDFromRequest(r)
	if err != nil {
		a.renderError(w, http.StatusNotFound, "Unknown session")
		return
	}
	if err := r.ParseForm(); err != nil {
		a.renderError(w, http.StatusBadRequest, "Malformed form submission")
		return
	}

	var req app.GenerateRequest
	var noPlaceholders bool
	if err := a.sessions.View(id, func(s *Session) {
		bindings := mapping.Mapping{}
		for _, name := range s.Template.Placeholders() {
			if column := r.PostFormValue("map_" + name); column != "" {
				bindings.Bind(name, column)
			}
		}
		noPlaceholders = len(s.Template.Placeholders()) == 0
		req = app.GenerateRequest{
			Template:       s.Template,
			Table:          s.Table,
			Bindings:       bindings,
			FilenameColumn: r.PostFormValue("name_column"),
			OutputDir:      a.resolveOutputDir(r.PostFormValue("output_dir"), id),
		}
	}); err != nil {
		a.renderError(w, http.StatusNotFound, err.Error())
		return
	}

	if noPlaceholders && r.PostFormValue("acknowledge_empty") == "" {
		a.renderError(w, http.StatusUnprocessableEntity,
			"The template has no placeholders, so every document would be identical. Tick the confirmation box to generate anyway.")
		return
	}

	if !a.runGate.TryAcquire(1) {
		a.renderError(w, http.StatusServiceUnavailable, "Another generation run is in progress, try again shortly")
		return
	}
	defer a.runGate.Release(1)

	summary, err := a.generator.Generate(r.Context(), req)
	if err != nil {
		a.renderError(w, statusForError(err), err.Error())
		return
	}

	if err := a.sessions.Update(id, func(s *Session) { s.Summary = summary }); err != nil {
		a.renderError(w, http.StatusNotFound, err.Error())
		return
	}
	http.Redirect(w, r, "/session/"+id.String()+"/summary", http.StatusSeeOther)
}

// handleSummary shows the outcome of the latest run
func (a *App) handleSummary(w http.ResponseWriter, r *http.Request) {
	id, err := sessionIDFromRequest(r)
	if err != nil {
		a.renderError(w, http.StatusNotFound, "Unknown session")
		return
	}

	var page summaryPage
	var hasSummary bool
	if err := a.sessions.View(id, func(s *Session) {
		if s.Summary == nil {
			return
		}
		hasSummary = true
		page = buildSummaryPage(s)
	}); err != nil {
		a.renderError(w, http.StatusNotFound, err.Error())
		return
	}
	if !hasSummary {
		http.Redirect(w, r, "/session/"+id.String(), http.StatusSeeOther)
		return
	}

	a.renderTemplate(w, "summary.html", page)
}

// handleArchive streams every generated document from the latest run as a zip
func (a *App) handleArchive(w http.ResponseWriter, r *http.Request) {
	id, err := sessionIDFromRequest(r)
	if err != nil {
		a.renderError(w, http.StatusNotFound, "Unknown session")
		return
	}

	var outputDir string
	var files []string
	if err := a.sessions.View(id, func(s *Session) {
		if s.Summary != nil {
			outputDir = s.Summary.OutputDir
			files = s.Summary.Files
		}
	}); err != nil {
		a.renderError(w, http.StatusNotFound, err.Error())
		return
	}
	if len(files) == 0 {
		a.renderError(w, http.StatusNotFound, "No generated documents to download")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="documents.zip"`)
	if err := app.WriteArchive(w, outputDir, files); err != nil {
		log.Printf("[Archive] Streaming failed: %v", err)
	}
}

// handleDataExport returns the parsed data back as CSV
func (a *App) handleDataExport(w http.ResponseWriter, r *http.Request) {
	id, err := sessionIDFromRequest(r)
	if err != nil {
		a.renderError(w, http.StatusNotFound, "Unknown session")
		return
	}

	var table *tabular.Table
	if err := a.sessions.View(id, func(s *Session) {
		table = s.Table
	}); err != nil {
		a.renderError(w, http.StatusNotFound, err.Error())
		return
	}

	out, err := spreadsheet.WriteCSV(table)
	if err != nil {
		a.renderError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="data.csv"`)
	w.Write(out)
}

func buildMappingPage(a *App, s *Session) mappingPage {
	placeholders := make([]placeholderBinding, 0, len(s.Template.Placeholders()))
	for _, name := range s.Template.Placeholders() {
		column, _ := s.Proposal.Bindings.Bound(name)
		placeholders = append(placeholders, placeholderBinding{Name: name, Column: column})
	}

	warnings := append([]string{}, s.Table.Warnings...)
	warnings = append(warnings, s.Proposal.Warnings...)

	nameColumn := ""
	if len(s.Table.Columns) > 0 {
		nameColumn = s.Table.Columns[0]
	}

	return mappingPage{
		SessionID:      s.ID.String(),
		TemplateName:   s.TemplateName,
		TemplateHash:   s.TemplateHash.Short(),
		DataName:       s.DataName,
		DataHash:       s.DataHash.Short(),
		RowCount:       s.Table.RowCount(),
		Columns:        s.Table.Columns,
		Placeholders:   placeholders,
		NoPlaceholders: len(placeholders) == 0,
		Unbound:        s.Proposal.Unbound,
		Warnings:       warnings,
		PreviewRows:    s.Table.Preview(a.cfg.Upload.PreviewRows),
		Profiles:       s.Profiles,
		NameColumn:     nameColumn,
		OutputDir:      filepath.Join(a.cfg.Generation.OutputRoot, shortID(s.ID)),
	}
}

func buildSummaryPage(s *Session) summaryPage {
	failures := make([]failureRow, 0, len(s.Summary.Failures))
	for _, f := range s.Summary.Failures {
		failures = append(failures, failureRow{RowNumber: f.RowIndex + 1, Reason: f.Reason})
	}
	return summaryPage{
		SessionID:    s.ID.String(),
		RunID:        s.Summary.RunID.String(),
		Total:        s.Summary.Total,
		Succeeded:    s.Summary.Succeeded,
		Failed:       s.Summary.Failed,
		Elapsed:      fmt.Sprintf("%.2fs", s.Summary.Elapsed.Seconds()),
		OutputDir:    s.Summary.OutputDir,
		Files:        s.Summary.Files,
		Failures:     failures,
		AllSucceeded: s.Summary.Failed == 0,
	}
}

func sessionIDFromRequest(r *http.Request) (core.SessionID, error) {
	return core.ParseSessionID(chi.URLParam(r, "sessionID"))
}

func formFile(r *http.Request, field string) (string, []byte, string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", nil, "", err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, "", err
	}
	return header.Filename, data, header.Header.Get("Content-Type"), nil
}

func extensionSupported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range spreadsheet.SupportedExtensions() {
		if ext == allowed {
			return true
		}
	}
	return false
}

// warnUnexpectedMime logs surprising MIME types without rejecting them, since
// browsers and proxies are unreliable about setting them
func warnUnexpectedMime(filename, contentType string, valid []string) {
	if contentType == "" {
		return
	}
	for _, mimeType := range valid {
		if contentType == mimeType {
			return
		}
	}
	log.Printf("[Upload] WARNING - Unexpected MIME type: %s for file: %s", contentType, filename)
}

// resolveOutputDir places relative directories under the configured output
// root; absolute paths are taken as-is
func (a *App) resolveOutputDir(dir string, id core.SessionID) string {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return filepath.Join(a.cfg.Generation.OutputRoot, shortID(id))
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(a.cfg.Generation.OutputRoot, dir)
}

func shortID(id core.SessionID) string {
	s := id.String()
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

func statusForError(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeSessionNotFound:
		return http.StatusNotFound
	case errors.CodeUnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case errors.CodeUploadTooLarge:
		return http.StatusRequestEntityTooLarge
	case errors.CodeTemplateInvalid, errors.CodeDataInvalid, errors.CodeMappingInvalid:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
