package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"

	"docmerge/app"
	"docmerge/domain/core"
	"docmerge/domain/mapping"
	"docmerge/domain/tabular"
	"docmerge/internal/config"
	"docmerge/internal/errors"
	"docmerge/ports"
)

// Server exposes the generation workflow as a JSON API for scripted use
type Server struct {
	router    *gin.Engine
	codec     ports.TemplateCodecPort
	reader    ports.TableReaderPort
	generator *app.GenerationService
	runGate   *semaphore.Weighted
	cfg       *config.Config
}

// NewServer creates the API server
func NewServer(cfg *config.Config, codec ports.TemplateCodecPort, reader ports.TableReaderPort, generator *app.GenerationService) *Server {
	gin.SetMode(cfg.Server.GinMode)

	s := &Server{
		router:    gin.Default(),
		codec:     codec,
		reader:    reader,
		generator: generator,
		runGate:   semaphore.NewWeighted(cfg.Generation.MaxConcurrentRuns),
		cfg:       cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	v1 := s.router.Group("/api/v1")
	v1.POST("/template/inspect", s.handleTemplateInspect)
	v1.POST("/dataset/inspect", s.handleDatasetInspect)
	v1.POST("/generate", s.handleGenerate)

	s.router.GET("/healthz", s.handleHealth)
}

// Start runs the API server
func (s *Server) Start(addr string) error {
	log.Printf("Starting docmerge API on http://%s", addr)
	return s.router.Run(addr)
}

// Handler exposes the routed engine, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleTemplateInspect parses an uploaded template and reports its placeholders
func (s *Server) handleTemplateInspect(c *gin.Context) {
	name, data, ok := s.readUpload(c, "template")
	if !ok {
		return
	}

	tmpl, err := s.codec.Parse(name, data)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	placeholders := tmpl.Placeholders()
	c.JSON(http.StatusOK, gin.H{
		"template":          name,
		"template_sha256":   core.NewTemplateHash(data).String(),
		"extension":         tmpl.Extension(),
		"placeholders":      placeholders,
		"placeholder_count": len(placeholders),
		"no_placeholders":   len(placeholders) == 0,
	})
}

// handleDatasetInspect parses an uploaded data file and reports its shape
func (s *Server) handleDatasetInspect(c *gin.Context) {
	name, data, ok := s.readUpload(c, "data")
	if !ok {
		return
	}

	table, err := s.reader.Read(name, data)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":        name,
		"data_sha256": core.NewDataHash(data).String(),
		"columns":     table.Columns,
		"row_count":   table.RowCount(),
		"warnings":    table.Warnings,
		"profiles":    tabular.Profile(table),
		"preview":     table.Preview(s.cfg.Upload.PreviewRows),
	})
}

// handleGenerate runs a whole batch in one request. Without an output_dir the
// documents are produced into a temporary directory and streamed back as a
// zip; with one they stay on disk and the summary comes back as JSON.
func (s *Server) handleGenerate(c *gin.Context) {
	templateName, templateData, ok := s.readUpload(c, "template")
	if !ok {
		return
	}
	dataName, dataData, ok := s.readUpload(c, "data")
	if !ok {
		return
	}

	tmpl, err := s.codec.Parse(templateName, templateData)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	table, err := s.reader.Read(dataName, dataData)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	bindings, err := resolveBindings(tmpl, table, c.PostForm("mapping"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	nameColumn := strings.TrimSpace(c.PostForm("name_column"))
	if nameColumn == "" && len(table.Columns) > 0 {
		nameColumn = table.Columns[0]
	}

	var warnings []string
	warnings = append(warnings, table.Warnings...)
	if len(tmpl.Placeholders()) == 0 {
		warnings = append(warnings, "template contains no placeholders, all documents will be identical")
	}

	if !s.runGate.TryAcquire(1) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": gin.H{
			"code":    "RUN_LIMIT_REACHED",
			"message": "too many generation runs in progress, retry later",
		}})
		return
	}
	defer s.runGate.Release(1)

	outputDir := strings.TrimSpace(c.PostForm("output_dir"))
	if outputDir == "" {
		s.generateToArchive(c, tmpl, table, bindings, nameColumn, warnings)
		return
	}
	if !filepath.IsAbs(outputDir) {
		outputDir = filepath.Join(s.cfg.Generation.OutputRoot, outputDir)
	}

	summary, err := s.generator.Generate(c.Request.Context(), app.GenerateRequest{
		Template:       tmpl,
		Table:          table,
		Bindings:       bindings,
		FilenameColumn: nameColumn,
		OutputDir:      outputDir,
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary, "warnings": warnings})
}

// generateToArchive renders into a temp dir and streams the batch back as zip
func (s *Server) generateToArchive(c *gin.Context, tmpl ports.DocumentTemplate, table *tabular.Table, bindings mapping.Mapping, nameColumn string, warnings []string) {
	tempDir, err := os.MkdirTemp("", "docmerge-*")
	if err != nil {
		s.abortWithError(c, errors.OutputDirUnavailable("temp", err))
		return
	}
	defer os.RemoveAll(tempDir)

	summary, err := s.generator.Generate(c.Request.Context(), app.GenerateRequest{
		Template:       tmpl,
		Table:          table,
		Bindings:       bindings,
		FilenameColumn: nameColumn,
		OutputDir:      tempDir,
	})
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", `attachment; filename="documents.zip"`)
	c.Header("X-Docmerge-Run-Id", summary.RunID.String())
	c.Header("X-Docmerge-Total", fmt.Sprintf("%d", summary.Total))
	c.Header("X-Docmerge-Succeeded", fmt.Sprintf("%d", summary.Succeeded))
	c.Header("X-Docmerge-Failed", fmt.Sprintf("%d", summary.Failed))
	for _, warning := range warnings {
		c.Writer.Header().Add("X-Docmerge-Warning", warning)
	}
	c.Status(http.StatusOK)

	if err := app.WriteArchive(c.Writer, tempDir, summary.Files); err != nil {
		log.Printf("[API] Archive streaming failed: %v", err)
	}
}

// resolveBindings starts from the name-matched proposal and applies the
// caller's overrides; an override to the empty string unbinds a placeholder
func resolveBindings(tmpl ports.DocumentTemplate, table *tabular.Table, overrideJSON string) (mapping.Mapping, error) {
	bindings := mapping.Propose(tmpl.Placeholders(), table.Columns).Bindings

	if strings.TrimSpace(overrideJSON) == "" {
		return bindings, nil
	}

	var overrides map[string]string
	if err := json.Unmarshal([]byte(overrideJSON), &overrides); err != nil {
		return nil, errors.MappingInvalid(fmt.Sprintf("mapping is not a JSON object of placeholder to column: %v", err))
	}
	for placeholder, column := range overrides {
		if column == "" {
			bindings.Unbind(placeholder)
			continue
		}
		bindings.Bind(placeholder, column)
	}
	return bindings, nil
}

// readUpload pulls one uploaded file into memory, enforcing the size limit
func (s *Server) readUpload(c *gin.Context, field string) (string, []byte, bool) {
	fh, err := c.FormFile(field)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"code":    "MISSING_FILE",
			"message": fmt.Sprintf("no %s file uploaded", field),
		}})
		return "", nil, false
	}
	if fh.Size > s.cfg.Upload.MaxBytes {
		s.abortWithError(c, errors.UploadTooLarge(s.cfg.Upload.MaxBytes))
		return "", nil, false
	}

	data, err := readAllFile(fh)
	if err != nil {
		s.abortWithError(c, errors.InternalError(fmt.Sprintf("failed to read %s upload", field)))
		return "", nil, false
	}
	return fh.Filename, data, true
}

func readAllFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (s *Server) abortWithError(c *gin.Context, err error) {
	c.JSON(statusForCode(errors.GetCode(err)), gin.H{"error": gin.H{
		"code":    errors.GetCode(err),
		"message": err.Error(),
	}})
}

func statusForCode(code string) int {
	switch code {
	case errors.CodeUnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case errors.CodeUploadTooLarge:
		return http.StatusRequestEntityTooLarge
	case errors.CodeTemplateInvalid, errors.CodeDataInvalid, errors.CodeMappingInvalid:
		return http.StatusUnprocessableEntity
	case errors.CodeSessionNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
