package extract

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"

	"docchat/internal/errs"
)

// extractPDF reads one chunk per PDF page, up to maxPages pages. The reader
// library panics on some malformed files, so parsing runs behind a recover.
func extractPDF(data []byte, maxPages int) (pages []Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: parse pdf: %v", errs.ErrExtraction, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: parse pdf: %v", errs.ErrExtraction, err)
	}

	numPages := reader.NumPage()
	if numPages > maxPages {
		numPages = maxPages
	}
	raw := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			raw = append(raw, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: extract page %d: %v", errs.ErrExtraction, i, err)
		}
		raw = append(raw, text)
	}
	return collectPages(raw, maxPages), nil
}
