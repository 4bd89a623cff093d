package api

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"docmerge/adapters/docx"
	"docmerge/adapters/spreadsheet"
	appsvc "docmerge/app"
	"docmerge/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{Host: "", Port: "0", GinMode: "test"},
		Upload: config.UploadConfig{
			MaxBytes:    20 << 20,
			PreviewRows: 5,
			SessionTTL:  time.Minute,
		},
		Generation: config.GenerationConfig{
			OutputRoot:        t.TempDir(),
			MaxConcurrentRuns: 1,
		},
	}
}

func testServer(t *testing.T) *Server {
	t.Helper()
	return NewServer(testConfig(t), docx.NewCodec(), spreadsheet.NewReader(), appsvc.NewGenerationService(nil))
}

func fixtureDocx(t *testing.T, paragraphText string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	write := func(name, content string) {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	write("[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="xml" ContentType="application/xml"/></Types>`)
	write("word/document.xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>`+paragraphText+`</w:t></w:r></w:p></w:body></w:document>`)
	if err := zw.Close(); err != nil {
		t.Fatalf("close fixture: %v", err)
	}
	return buf.Bytes()
}

// multipartBody builds a request body with the given form fields plus optional
// template and data file parts
func multipartBody(t *testing.T, fields map[string]string, template, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for key, value := range fields {
		if err := mw.WriteField(key, value); err != nil {
			t.Fatalf("write field %s: %v", key, err)
		}
	}
	if template != nil {
		fw, err := mw.CreateFormFile("template", "letter.docx")
		if err != nil {
			t.Fatalf("template form file: %v", err)
		}
		fw.Write(template)
	}
	if data != nil {
		fw, err := mw.CreateFormFile("data", "orders.csv")
		if err != nil {
			t.Fatalf("data form file: %v", err)
		}
		fw.Write(data)
	}
	mw.Close()
	return &body, mw.FormDataContentType()
}

func postMultipart(t *testing.T, s *Server, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, rec.Body.String())
	}
	return payload
}

// documentPart digs the word/document.xml text out of a rendered docx
func documentPart(t *testing.T, docxBytes []byte) string {
	t.Helper()

	zr, err := zip.NewReader(bytes.NewReader(docxBytes), int64(len(docxBytes)))
	if err != nil {
		t.Fatalf("rendered file is not a zip: %v", err)
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open document part: %v", err)
		}
		defer rc.Close()
		content, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("read document part: %v", err)
		}
		return string(content)
	}
	t.Fatal("rendered file has no word/document.xml")
	return ""
}

func TestTemplateInspect(t *testing.T) {
	s := testServer(t)
	template := fixtureDocx(t, "Dear {customer_name}, order {order_id} is ready.")

	body, contentType := multipartBody(t, nil, template, nil)
	rec := postMultipart(t, s, "/api/v1/template/inspect", body, contentType)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	payload := decodeJSON(t, rec)
	if payload["placeholder_count"] != float64(2) {
		t.Errorf("expected 2 placeholders, got %v", payload["placeholder_count"])
	}
	placeholders, ok := payload["placeholders"].([]any)
	if !ok || len(placeholders) != 2 {
		t.Fatalf("unexpected placeholders payload: %v", payload["placeholders"])
	}
	if placeholders[0] != "customer_name" || placeholders[1] != "order_id" {
		t.Errorf("placeholders out of order: %v", placeholders)
	}
	if payload["extension"] != "docx" {
		t.Errorf("expected extension docx, got %v", payload["extension"])
	}
	if payload["template_sha256"] == "" {
		t.Error("expected a template hash")
	}
	if payload["no_placeholders"] != false {
		t.Errorf("expected no_placeholders false, got %v", payload["no_placeholders"])
	}
}

func TestTemplateInspectMissingFile(t *testing.T) {
	s := testServer(t)

	body, contentType := multipartBody(t, nil, nil, nil)
	rec := postMultipart(t, s, "/api/v1/template/inspect", body, contentType)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	payload := decodeJSON(t, rec)
	errPayload, ok := payload["error"].(map[string]any)
	if !ok {
		t.Fatalf("unexpected error payload: %v", payload)
	}
	if errPayload["code"] != "MISSING_FILE" {
		t.Errorf("expected MISSING_FILE, got %v", errPayload["code"])
	}
}

func TestDatasetInspect(t *testing.T) {
	s := testServer(t)
	data := []byte("order_id,Customer Name,total\n1001,Ada Lovelace,12.50\n1002,Grace Hopper,8.00\n")

	body, contentType := multipartBody(t, nil, nil, data)
	rec := postMultipart(t, s, "/api/v1/dataset/inspect", body, contentType)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	payload := decodeJSON(t, rec)
	if payload["row_count"] != float64(2) {
		t.Errorf("expected 2 rows, got %v", payload["row_count"])
	}
	columns, ok := payload["columns"].([]any)
	if !ok || len(columns) != 3 {
		t.Fatalf("unexpected columns payload: %v", payload["columns"])
	}
	if columns[1] != "Customer Name" {
		t.Errorf("expected original header casing, got %v", columns[1])
	}
	if _, ok := payload["profiles"].([]any); !ok {
		t.Errorf("expected column profiles, got %v", payload["profiles"])
	}
	preview, ok := payload["preview"].([]any)
	if !ok || len(preview) != 2 {
		t.Errorf("expected 2 preview rows, got %v", payload["preview"])
	}
}

func TestGenerateStreamsArchive(t *testing.T) {
	s := testServer(t)
	template := fixtureDocx(t, "Dear {customer_name}, order {order_id} is ready.")
	data := []byte("order_id,Customer Name\n1001,Ada Lovelace\n1002,Grace Hopper\n")

	body, contentType := multipartBody(t, map[string]string{"name_column": "order_id"}, template, data)
	rec := postMultipart(t, s, "/api/v1/generate", body, contentType)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "application/zip" {
		t.Fatalf("expected application/zip, got %s", got)
	}
	if got := rec.Header().Get("X-Docmerge-Total"); got != "2" {
		t.Errorf("expected total 2, got %s", got)
	}
	if got := rec.Header().Get("X-Docmerge-Succeeded"); got != "2" {
		t.Errorf("expected 2 succeeded, got %s", got)
	}
	if rec.Header().Get("X-Docmerge-Run-Id") == "" {
		t.Error("expected a run id header")
	}

	zipBytes := rec.Body.Bytes()
	zr, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
	if err != nil {
		t.Fatalf("response is not a zip: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("expected 2 archive entries, got %d", len(zr.File))
	}
	if zr.File[0].Name != "1001.docx" || zr.File[1].Name != "1002.docx" {
		t.Errorf("unexpected archive entries: %s, %s", zr.File[0].Name, zr.File[1].Name)
	}

	rc, err := zr.File[0].Open()
	if err != nil {
		t.Fatalf("open archive entry: %v", err)
	}
	rendered, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatalf("read archive entry: %v", err)
	}
	document := documentPart(t, rendered)
	if !strings.Contains(document, "Dear Ada Lovelace, order 1001 is ready.") {
		t.Errorf("substituted text missing from document:\n%s", document)
	}
}

func TestGenerateWithOutputDirReturnsSummary(t *testing.T) {
	s := testServer(t)
	template := fixtureDocx(t, "Order {order_id}.")
	data := []byte("order_id\n1001\n1002\n1003\n")
	outDir := filepath.Join(t.TempDir(), "batch")

	body, contentType := multipartBody(t, map[string]string{
		"name_column": "order_id",
		"output_dir":  outDir,
	}, template, data)
	rec := postMultipart(t, s, "/api/v1/generate", body, contentType)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	payload := decodeJSON(t, rec)
	summary, ok := payload["summary"].(map[string]any)
	if !ok {
		t.Fatalf("unexpected summary payload: %v", payload)
	}
	if summary["succeeded"] != float64(3) {
		t.Errorf("expected 3 succeeded, got %v", summary["succeeded"])
	}
	for _, name := range []string{"1001.docx", "1002.docx", "1003.docx"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("expected %s on disk: %v", name, err)
		}
	}
}

func TestGenerateRelativeOutputDirStaysUnderRoot(t *testing.T) {
	cfg := testConfig(t)
	s := NewServer(cfg, docx.NewCodec(), spreadsheet.NewReader(), appsvc.NewGenerationService(nil))
	template := fixtureDocx(t, "Order {order_id}.")
	data := []byte("order_id\n7\n")

	body, contentType := multipartBody(t, map[string]string{
		"name_column": "order_id",
		"output_dir":  "july",
	}, template, data)
	rec := postMultipart(t, s, "/api/v1/generate", body, contentType)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if _, err := os.Stat(filepath.Join(cfg.Generation.OutputRoot, "july", "7.docx")); err != nil {
		t.Errorf("expected document under the output root: %v", err)
	}
}

func TestGenerateMappingOverride(t *testing.T) {
	s := testServer(t)
	template := fixtureDocx(t, "Dear {customer_name}, order {order_id}.")
	data := []byte("ref,client\n55,Ada Lovelace\n")

	body, contentType := multipartBody(t, map[string]string{
		"name_column": "ref",
		"mapping":     `{"customer_name":"client","order_id":"ref"}`,
	}, template, data)
	rec := postMultipart(t, s, "/api/v1/generate", body, contentType)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	zipBytes := rec.Body.Bytes()
	zr, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
	if err != nil {
		t.Fatalf("response is not a zip: %v", err)
	}
	rc, err := zr.File[0].Open()
	if err != nil {
		t.Fatalf("open archive entry: %v", err)
	}
	rendered, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatalf("read archive entry: %v", err)
	}
	document := documentPart(t, rendered)
	if !strings.Contains(document, "Dear Ada Lovelace, order 55.") {
		t.Errorf("override bindings not applied:\n%s", document)
	}
}

func TestGenerateUnbindLeavesPlaceholderLiteral(t *testing.T) {
	s := testServer(t)
	template := fixtureDocx(t, "Order {order_id} for {customer_name}.")
	data := []byte("order_id,customer_name\n9,Ada\n")

	body, contentType := multipartBody(t, map[string]string{
		"name_column": "order_id",
		"mapping":     `{"customer_name":""}`,
	}, template, data)
	rec := postMultipart(t, s, "/api/v1/generate", body, contentType)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	zipBytes := rec.Body.Bytes()
	zr, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
	if err != nil {
		t.Fatalf("response is not a zip: %v", err)
	}
	rc, err := zr.File[0].Open()
	if err != nil {
		t.Fatalf("open archive entry: %v", err)
	}
	rendered, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatalf("read archive entry: %v", err)
	}
	document := documentPart(t, rendered)
	if !strings.Contains(document, "Order 9 for {customer_name}.") {
		t.Errorf("unbound placeholder should stay literal:\n%s", document)
	}
}

func TestGenerateRejectsBadMappingJSON(t *testing.T) {
	s := testServer(t)
	template := fixtureDocx(t, "Order {order_id}.")
	data := []byte("order_id\n1\n")

	body, contentType := multipartBody(t, map[string]string{"mapping": "not-json"}, template, data)
	rec := postMultipart(t, s, "/api/v1/generate", body, contentType)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	payload := decodeJSON(t, rec)
	errPayload, ok := payload["error"].(map[string]any)
	if !ok {
		t.Fatalf("unexpected error payload: %v", payload)
	}
	if errPayload["code"] != "MAPPING_INVALID" {
		t.Errorf("expected MAPPING_INVALID, got %v", errPayload["code"])
	}
}

func TestHealthz(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("unexpected health payload: %s", rec.Body.String())
	}
}
