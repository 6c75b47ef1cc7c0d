package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	ErrEmptyDocument   = errors.New("document has no pages")
	ErrCorruptDocument = errors.New("document cannot be parsed as a PDF")
)

// Pages converts PDF bytes into one text segment per page, in page order.
// Image-only pages yield empty segments; that is not an error (no OCR).
// Library used: github.com/ledongthuc/pdf.
func Pages(data []byte) (pages []string, err error) {
	// The pdf library panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = fmt.Errorf("%w: %v", ErrCorruptDocument, rec)
		}
	}()

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrCorruptDocument)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}

	total := reader.NumPage()
	if total == 0 {
		return nil, ErrEmptyDocument
	}

	pages = make([]string, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Keep page order stable; an unreadable page contributes an
			// empty segment, like a scanned page would.
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// JoinPages concatenates page segments with page-boundary markers, in the
// form downstream prompts expect.
func JoinPages(pages []string) string {
	var b strings.Builder
	for i, text := range pages {
		fmt.Fprintf(&b, "--- Page %d ---\n%s\n", i+1, text)
	}
	return b.String()
}
