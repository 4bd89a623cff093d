package docx

import (
	"encoding/xml"
	"regexp"
)

const xmlSpaceNamespace = "http://www.w3.org/XML/1998/namespace"

// xmlNode is a generic OOXML element kept round-trippable through
// encoding/xml. Word's element prefixes are rewritten to hyphens before
// unmarshaling, so names arrive as "w-p", "w-r", "w-t".
type xmlNode struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Content []byte     `xml:",chardata"`
	Nodes   []*xmlNode `xml:",any"`
}

// Walk visits every node below xnode, parents before children
func (xnode *xmlNode) Walk(fn func(*xmlNode)) {
	for _, n := range xnode.Nodes {
		if n == nil {
			continue
		}
		fn(n)
		if len(n.Nodes) > 0 {
			n.Walk(fn)
		}
	}
}

func (xnode *xmlNode) isTag(name string) bool {
	return xnode.XMLName.Local == name
}

// textNodes returns the w-t children of a run in document order
func (xnode *xmlNode) textNodes() []*xmlNode {
	var texts []*xmlNode
	for _, n := range xnode.Nodes {
		if n != nil && n.isTag("w-t") {
			texts = append(texts, n)
		}
	}
	return texts
}

// Size, language, and font hints vary between visually identical runs, so
// they are ignored when comparing run styles.
var styleNoiseRgx = regexp.MustCompile(`</?w-(?:szCs|sz|lang|rFonts)\b[^>]*>`)

// styleSignature serializes the run's properties for equality checks
func (xnode *xmlNode) styleSignature() string {
	for _, n := range xnode.Nodes {
		if n == nil || !n.isTag("w-rPr") {
			continue
		}
		buf, err := xml.Marshal(n)
		if err != nil {
			return ""
		}
		return string(styleNoiseRgx.ReplaceAll(buf, nil))
	}
	return ""
}

// mergeRuns joins adjacent text-only runs that share a style signature, so a
// placeholder Word has split across runs becomes contiguous in one text node.
// Word splits runs freely around spellcheck and revision marks.
func mergeRuns(root *xmlNode) {
	root.Walk(func(n *xmlNode) {
		if n.isTag("w-p") {
			mergeParagraphRuns(n)
		}
	})
}

func mergeParagraphRuns(p *xmlNode) {
	var kept []*xmlNode
	var prev *xmlNode

	for _, child := range p.Nodes {
		if child == nil {
			continue
		}
		// Runs holding breaks, tabs, or drawings stay untouched
		if !child.isTag("w-r") || !isTextOnlyRun(child) {
			kept = append(kept, child)
			prev = nil
			continue
		}
		flattenRunText(child)
		if prev != nil && prev.styleSignature() == child.styleSignature() {
			appendRunText(prev, runText(child))
			continue
		}
		kept = append(kept, child)
		prev = child
	}
	p.Nodes = kept
}

// isTextOnlyRun reports whether the run holds nothing but properties and text
func isTextOnlyRun(r *xmlNode) bool {
	hasText := false
	for _, n := range r.Nodes {
		if n == nil {
			continue
		}
		switch n.XMLName.Local {
		case "w-rPr":
		case "w-t":
			hasText = true
		default:
			return false
		}
	}
	return hasText
}

// flattenRunText collapses a run's text nodes into its first one
func flattenRunText(r *xmlNode) {
	texts := r.textNodes()
	if len(texts) < 2 {
		return
	}
	var merged []byte
	for _, tn := range texts {
		merged = append(merged, tn.Content...)
	}
	texts[0].Content = merged
	markPreserveSpace(texts[0])

	var kept []*xmlNode
	for _, n := range r.Nodes {
		if n == nil {
			continue
		}
		if n.isTag("w-t") && n != texts[0] {
			continue
		}
		kept = append(kept, n)
	}
	r.Nodes = kept
}

func runText(r *xmlNode) []byte {
	var buf []byte
	for _, tn := range r.textNodes() {
		buf = append(buf, tn.Content...)
	}
	return buf
}

func appendRunText(r *xmlNode, text []byte) {
	texts := r.textNodes()
	if len(texts) == 0 {
		return
	}
	last := texts[len(texts)-1]
	last.Content = append(last.Content, text...)
	markPreserveSpace(last)
}

// Merged text can gain leading or trailing spaces, which Word drops unless
// the node asks for space preservation.
func markPreserveSpace(tn *xmlNode) {
	for _, attr := range tn.Attrs {
		if attr.Name.Local == "space" || attr.Name.Local == "xml:space" {
			return
		}
	}
	tn.Attrs = append(tn.Attrs, xml.Attr{
		Name:  xml.Name{Space: xmlSpaceNamespace, Local: "space"},
		Value: "preserve",
	})
}

// paragraphText returns the concatenated text content of every w-t below p
func paragraphText(p *xmlNode) string {
	var buf []byte
	p.Walk(func(n *xmlNode) {
		if n.isTag("w-t") {
			buf = append(buf, n.Content...)
		}
	})
	return string(buf)
}

// collectParagraphTexts returns one text region per paragraph under root, in
// document order. Braces never pair across paragraph boundaries, so each
// paragraph is scanned as its own region.
func collectParagraphTexts(root *xmlNode) []string {
	var texts []string
	root.Walk(func(n *xmlNode) {
		if n.isTag("w-p") {
			texts = append(texts, paragraphText(n))
		}
	})
	return texts
}
