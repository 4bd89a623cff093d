package docx

import (
	"archive/zip"
	"bytes"
	"io"

	"docmerge/domain/placeholder"
	"docmerge/internal/errors"
)

// Render substitutes bound values into a fresh copy of the document. Every
// scanned part is re-parsed from its stored normalized bytes, so renders
// share no state and the same values always produce byte-identical output.
// Placeholders missing from values stay in the text as literals.
func (t *Template) Render(values map[string]string) ([]byte, error) {
	rendered := make(map[string][]byte, len(t.parts))
	for name, content := range t.parts {
		root, err := parsePart(content)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse part %s", name)
		}
		substituteText(root, values)
		out, err := marshalPart(root)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to serialize part %s", name)
		}
		rendered[name] = out
	}
	return t.writeArchive(rendered)
}

// substituteText replaces placeholders in every text node. Only w-t content
// is touched; field instructions and document structure stay as they are.
func substituteText(root *xmlNode, values map[string]string) {
	root.Walk(func(n *xmlNode) {
		if !n.isTag("w-t") {
			return
		}
		n.Content = []byte(placeholder.Substitute(string(n.Content), values))
	})
}

// writeArchive rebuilds the docx archive, swapping in rendered parts and
// copying every other entry verbatim in original order.
func (t *Template) writeArchive(rendered map[string][]byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(t.source), int64(len(t.source)))
	if err != nil {
		return nil, errors.Wrap(err, "failed to reopen template archive")
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range zr.File {
		w, err := zw.Create(f.Name)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create %s in output archive", f.Name)
		}
		if content, ok := rendered[f.Name]; ok {
			if _, err := w.Write(content); err != nil {
				return nil, errors.Wrapf(err, "failed to write %s", f.Name)
			}
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s from template archive", f.Name)
		}
		if _, err := io.Copy(w, rc); err != nil {
			rc.Close()
			return nil, errors.Wrapf(err, "failed to copy %s", f.Name)
		}
		rc.Close()
	}
	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to finalize output archive")
	}
	return buf.Bytes(), nil
}
