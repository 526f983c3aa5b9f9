// Package extract turns raw document bytes into ordered page chunks.
//
// A "page" is the unit of retrieval: a PDF page, a DOCX paragraph, a
// spreadsheet sheet or a markdown section. At most maxPages pages are read
// from the source; pages past the cap are never processed. Empty pages count
// toward the cap but are excluded from the result.
package extract

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nguyenthenguyen/docx"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"

	"docchat/internal/errs"
)

// Page is one non-empty extracted page. Index is the zero-based position of
// the page within the source document, before empty pages are dropped.
type Page struct {
	Index int
	Text  string
}

// Extract dispatches on the file extension.
func Extract(data []byte, filename string, maxPages int) ([]Page, error) {
	if maxPages <= 0 {
		return nil, fmt.Errorf("%w: page cap must be positive", errs.ErrExtraction)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return extractPDF(data, maxPages)
	case ".docx":
		return extractDOCX(data, maxPages)
	case ".xlsx":
		return extractXLSX(data, maxPages)
	case ".ods":
		return extractODS(data, maxPages)
	case ".md", ".markdown":
		return extractMarkdown(data, maxPages)
	case ".txt":
		return extractText(data, maxPages)
	default:
		return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedType, ext)
	}
}

// collectPages applies the page cap and empty-page filtering shared by every
// format: raw[i] is page i, whitespace-only entries are dropped but still
// consume a slot under the cap.
func collectPages(raw []string, maxPages int) []Page {
	var pages []Page
	for i, text := range raw {
		if i >= maxPages {
			break
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		pages = append(pages, Page{Index: i, Text: text})
	}
	return pages
}

func extractDOCX(data []byte, maxPages int) ([]Page, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: read docx: %v", errs.ErrExtraction, err)
	}
	defer r.Close()

	content := r.Editable().GetContent()
	// GetContent returns the raw document XML; paragraphs are the page unit.
	var raw []string
	for _, para := range strings.Split(content, "</w:p>") {
		if len(raw) >= maxPages {
			break
		}
		raw = append(raw, textFromXML(para, "<w:t"))
	}
	return collectPages(raw, maxPages), nil
}

func extractXLSX(data []byte, maxPages int) ([]Page, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, fmt.Errorf("%w: read xlsx: %v", errs.ErrExtraction, err)
	}

	var raw []string
	for _, sheet := range f.Sheets {
		if len(raw) >= maxPages {
			break
		}
		var text strings.Builder
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheet.Name))
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				text.WriteString(cell.String() + "\t")
			}
			text.WriteString("\n")
		}
		if len(sheet.Rows) == 0 {
			raw = append(raw, "")
			continue
		}
		raw = append(raw, text.String())
	}
	return collectPages(raw, maxPages), nil
}

func extractODS(data []byte, maxPages int) ([]Page, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: read ods: %v", errs.ErrExtraction, err)
	}
	defer f.Close()

	var raw []string
	for _, sheetName := range f.GetSheetList() {
		if len(raw) >= maxPages {
			break
		}
		rows, err := f.GetRows(sheetName)
		if err != nil {
			raw = append(raw, "")
			continue
		}
		var text strings.Builder
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheetName))
		for _, row := range rows {
			for _, cell := range row {
				text.WriteString(cell + "\t")
			}
			text.WriteString("\n")
		}
		if len(rows) == 0 {
			raw = append(raw, "")
			continue
		}
		raw = append(raw, text.String())
	}
	return collectPages(raw, maxPages), nil
}

func extractText(data []byte, maxPages int) ([]Page, error) {
	return collectPages([]string{string(data)}, maxPages), nil
}

// textFromXML pulls the character data out of repeated <tag ...>text</...>
// runs. Good enough for WordprocessingML text nodes.
func textFromXML(xmlContent, openTag string) string {
	var text strings.Builder
	rest := xmlContent
	for {
		start := strings.Index(rest, openTag)
		if start < 0 {
			break
		}
		rest = rest[start+len(openTag):]
		// The tag name must end here, otherwise <w:t also matches <w:tbl.
		if rest == "" || (rest[0] != '>' && rest[0] != ' ' && rest[0] != '/') {
			continue
		}
		close := strings.Index(rest, ">")
		if close < 0 {
			break
		}
		if close > 0 && rest[close-1] == '/' { // self-closing, no text
			rest = rest[close+1:]
			continue
		}
		rest = rest[close+1:]
		end := strings.Index(rest, "<")
		if end < 0 {
			break
		}
		text.WriteString(rest[:end])
		rest = rest[end:]
	}
	return text.String()
}
