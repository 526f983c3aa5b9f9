package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/errs"
)

const sampleMarkdown = `# Alpha
The alpha section talks about apples.

# Beta
The beta section talks about bananas.

# Gamma
The gamma section talks about cherries.
`

func TestExtractMarkdownSplitsOnHeadings(t *testing.T) {
	pages, err := Extract([]byte(sampleMarkdown), "report.md", 20)
	require.NoError(t, err)
	require.Len(t, pages, 3)

	assert.Equal(t, 0, pages[0].Index)
	assert.Equal(t, 1, pages[1].Index)
	assert.Equal(t, 2, pages[2].Index)
	assert.Contains(t, pages[0].Text, "apples")
	assert.Contains(t, pages[1].Text, "bananas")
	assert.Contains(t, pages[2].Text, "cherries")
}

func TestExtractMarkdownKeepsPreamble(t *testing.T) {
	src := "intro text before any heading\n\n# First\nbody\n"
	pages, err := Extract([]byte(src), "notes.md", 20)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Contains(t, pages[0].Text, "intro text")
	assert.Contains(t, pages[1].Text, "# First")
}

func TestExtractRespectsPageCap(t *testing.T) {
	pages, err := Extract([]byte(sampleMarkdown), "report.md", 2)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Contains(t, pages[0].Text, "apples")
	assert.Contains(t, pages[1].Text, "bananas")
}

func TestExtractText(t *testing.T) {
	pages, err := Extract([]byte("  hello world  \n"), "plain.txt", 20)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "hello world", pages[0].Text)
	assert.Equal(t, 0, pages[0].Index)
}

func TestExtractWhitespaceOnlyYieldsNoPages(t *testing.T) {
	pages, err := Extract([]byte("   \n\t  \n"), "blank.txt", 20)
	require.NoError(t, err)
	assert.Empty(t, pages)
}

func TestExtractUnsupportedType(t *testing.T) {
	_, err := Extract([]byte("data"), "image.png", 20)
	require.ErrorIs(t, err, errs.ErrUnsupportedType)
}

func TestExtractMalformedPDF(t *testing.T) {
	_, err := Extract([]byte("definitely not a pdf"), "broken.pdf", 20)
	require.ErrorIs(t, err, errs.ErrExtraction)
}

func TestExtractMalformedDOCX(t *testing.T) {
	_, err := Extract([]byte("not a zip archive"), "broken.docx", 20)
	require.ErrorIs(t, err, errs.ErrExtraction)
}

func TestExtractRejectsNonPositiveCap(t *testing.T) {
	_, err := Extract([]byte("text"), "plain.txt", 0)
	require.ErrorIs(t, err, errs.ErrExtraction)
}

func TestCollectPagesCountsEmptyPagesTowardCap(t *testing.T) {
	raw := []string{"one", "  ", "three", "four"}
	pages := collectPages(raw, 3)
	// The blank page consumed a slot under the cap, so "four" is out.
	require.Len(t, pages, 2)
	assert.Equal(t, Page{Index: 0, Text: "one"}, pages[0])
	assert.Equal(t, Page{Index: 2, Text: "three"}, pages[1])
}

func TestTextFromXML(t *testing.T) {
	xml := `<w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:t xml:space="preserve"> world</w:t></w:r></w:p>`
	assert.Equal(t, "Hello world", textFromXML(xml, "<w:t"))
}

func TestTextFromXMLIgnoresSimilarTags(t *testing.T) {
	xml := `<w:tbl><w:tr>cells</w:tr></w:tbl><w:t>kept</w:t>`
	got := textFromXML(xml, "<w:t")
	assert.Equal(t, "kept", got)
	assert.False(t, strings.Contains(got, "cells"))
}
