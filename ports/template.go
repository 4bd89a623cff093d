package ports

// DocumentTemplate is a parsed template held ready for repeated rendering.
// Implementations keep the original document so every Render starts from a
// pristine copy and repeated renders of the same values are byte-identical.
type DocumentTemplate interface {
	// Placeholders returns the distinct placeholder names found in the
	// document text, in order of first appearance.
	Placeholders() []string

	// Extension returns the output file extension without the leading dot.
	Extension() string

	// Render substitutes bound values into a fresh copy of the document and
	// returns the complete output file bytes. Placeholders missing from
	// values pass through as literal text.
	Render(values map[string]string) ([]byte, error)
}

// TemplateCodecPort opens template documents of one file format
type TemplateCodecPort interface {
	// Parse reads a template from memory. name is used for diagnostics and
	// to derive the output extension.
	Parse(name string, data []byte) (DocumentTemplate, error)

	// ParseFile reads a template from disk.
	ParseFile(path string) (DocumentTemplate, error)
}
