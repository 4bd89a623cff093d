// Package docx parses and renders Word documents as placeholder templates.
//
// The document parts are unmarshaled through encoding/xml with the "w:"
// prefix rewritten to "w-", since the decoder cannot round-trip prefixed
// element names. The reverse rewrite plus a handful of attribute fixes
// restore valid OOXML on output.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"docmerge/domain/core"
	"docmerge/domain/placeholder"
	"docmerge/internal/errors"
	"docmerge/ports"
)

const mainDocumentPart = "word/document.xml"

// Codec opens docx templates. It implements ports.TemplateCodecPort.
type Codec struct{}

func NewCodec() *Codec {
	return &Codec{}
}

// Template is a parsed docx held ready for repeated rendering. Scanned parts
// are stored normalized, with adjacent same-style runs merged so every
// placeholder sits inside a single text node.
type Template struct {
	name         string
	source       []byte
	parts        map[string][]byte
	placeholders []string
}

// ParseFile reads and parses a template from disk.
func (c *Codec) ParseFile(filePath string) (ports.DocumentTemplate, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.TemplateInvalid("failed to read template file", err)
	}
	return c.Parse(filepath.Base(filePath), data)
}

// Parse reads a template from memory. The archive must contain
// word/document.xml; headers and footers are scanned when present.
func (c *Codec) Parse(name string, data []byte) (ports.DocumentTemplate, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.TemplateInvalid("template is not a docx archive", core.ErrNotDocx)
	}

	t := &Template{
		name:   name,
		source: data,
		parts:  map[string][]byte{},
	}

	foundMain := false
	var regions []string
	for _, f := range zr.File {
		if !isScannedPart(f.Name) {
			continue
		}
		if f.Name == mainDocumentPart {
			foundMain = true
		}

		content, err := readZipFile(f)
		if err != nil {
			return nil, errors.TemplateInvalid(fmt.Sprintf("failed to read %s", f.Name), err)
		}
		root, err := parsePart(content)
		if err != nil {
			return nil, errors.TemplateInvalid(fmt.Sprintf("failed to parse %s", f.Name), err)
		}
		mergeRuns(root)
		normalized, err := marshalPart(root)
		if err != nil {
			return nil, errors.TemplateInvalid(fmt.Sprintf("failed to normalize %s", f.Name), err)
		}
		t.parts[f.Name] = normalized
		regions = append(regions, collectParagraphTexts(root)...)
	}
	if !foundMain {
		return nil, errors.TemplateInvalid("template archive is missing word/document.xml", core.ErrMissingDocument)
	}

	t.placeholders = placeholder.ExtractAll(regions)
	log.Printf("[DocxCodec] parsed %s: %d scanned part(s), %d placeholder(s)",
		name, len(t.parts), len(t.placeholders))
	return t, nil
}

// Placeholders returns the distinct placeholder names in first-appearance order.
func (t *Template) Placeholders() []string {
	out := make([]string, len(t.placeholders))
	copy(out, t.placeholders)
	return out
}

// Extension returns the output file extension without the leading dot.
func (t *Template) Extension() string {
	if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(t.name)), "."); ext != "" {
		return ext
	}
	return "docx"
}

// The codec scans the main document plus any headers and footers. Every
// other part passes through rendering untouched.
func isScannedPart(name string) bool {
	if name == mainDocumentPart {
		return true
	}
	if path.Dir(name) != "word" {
		return false
	}
	base := path.Base(name)
	if !strings.HasSuffix(base, ".xml") {
		return false
	}
	return strings.HasPrefix(base, "header") || strings.HasPrefix(base, "footer")
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// parsePart unmarshals one document part into a node tree. The decoder does
// not accept "w:" prefixed element names, so they are held as "w-" while the
// tree is in memory.
func parsePart(content []byte) (*xmlNode, error) {
	prepared := bytes.ReplaceAll(content, []byte("<w:"), []byte("<w-"))
	prepared = bytes.ReplaceAll(prepared, []byte("</w:"), []byte("</w-"))

	root := &xmlNode{}
	if err := xml.Unmarshal(prepared, root); err != nil {
		return nil, err
	}
	return root, nil
}

// marshalPart serializes a node tree back to OOXML, restoring the prefixed
// element names and repairing the xmlns attribute forms the encoder emits.
func marshalPart(root *xmlNode) ([]byte, error) {
	buf, err := xml.Marshal(root)
	if err != nil {
		return nil, err
	}

	buf = bytes.ReplaceAll(buf, []byte(` xmlns:_xmlns="xmlns"`), []byte(""))
	buf = bytes.ReplaceAll(buf, []byte(`_xmlns:`), []byte("xmlns:"))
	buf = bytes.ReplaceAll(buf, []byte(` xmlns:r="r"`), []byte(""))
	buf = bytes.ReplaceAll(buf, []byte(` xmlns:o="o"`), []byte(""))

	buf = bytes.ReplaceAll(buf, []byte("<w-"), []byte("<w:"))
	buf = bytes.ReplaceAll(buf, []byte("</w-"), []byte("</w:"))
	buf = bytes.ReplaceAll(buf, []byte("<v-"), []byte("<v:"))
	buf = bytes.ReplaceAll(buf, []byte("</v-"), []byte("</v:"))

	out := make([]byte, 0, len(xml.Header)+len(buf))
	out = append(out, xml.Header...)
	return append(out, buf...), nil
}
