package extract

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	gmtext "github.com/yuin/goldmark/text"
)

// extractMarkdown splits a markdown file into sections delimited by level-1
// and level-2 headings. Each section is one page; text before the first
// heading forms its own page.
func extractMarkdown(data []byte, maxPages int) ([]Page, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	doc := md.Parser().Parse(gmtext.NewReader(data))

	var offsets []int
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Level > 2 || h.Lines().Len() == 0 {
			continue
		}
		start := h.Lines().At(0).Start
		// Back up over the heading markers to the start of the line.
		for start > 0 && data[start-1] != '\n' {
			start--
		}
		offsets = append(offsets, start)
	}

	var raw []string
	prev := 0
	for _, off := range offsets {
		if off > prev {
			raw = append(raw, string(data[prev:off]))
		}
		prev = off
	}
	raw = append(raw, string(data[prev:]))
	return collectPages(raw, maxPages), nil
}
