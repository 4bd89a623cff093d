package ui

import (
	_ "embed"
	"html/template"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

//go:embed guide.md
var guideSource []byte

// renderGuide converts the bundled user guide to sanitized HTML once at startup
func renderGuide() template.HTML {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse(guideSource)

	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	rendered := markdown.Render(doc, renderer)

	return template.HTML(bluemonday.UGCPolicy().SanitizeBytes(rendered))
}
