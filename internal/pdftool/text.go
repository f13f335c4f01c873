package pdftool

// text.go extracts the embedded text layer of a PDF. Scanned, image-only
// pages yield empty strings.

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PageText is the plain text of one page.
type PageText struct {
	Page int    `json:"page"`
	Text string `json:"text"`
}

// ExtractText returns the plain text of every page, in page order.
func ExtractText(ctx context.Context, r io.ReaderAt, size int64, progress Progress) (pages []PageText, err error) {
	t := newTracker(progress)
	t.report(0)

	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if p := recover(); p != nil {
			pages = nil
			err = fmt.Errorf("read pdf: %v", p)
		}
	}()

	doc, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	numPages := doc.NumPage()
	if numPages == 0 {
		return nil, ErrNoPages
	}

	fonts := make(map[string]*pdf.Font)
	pages = make([]PageText, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := checkContext(ctx); err != nil {
			return nil, err
		}

		p := doc.Page(i)
		if p.V.IsNull() {
			pages = append(pages, PageText{Page: i})
			continue
		}
		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := p.Font(name)
				fonts[name] = &f
			}
		}

		text, err := p.GetPlainText(fonts)
		if err != nil {
			return nil, fmt.Errorf("read pdf page %d: %w", i, err)
		}
		pages = append(pages, PageText{Page: i, Text: strings.TrimSpace(text)})
		t.step(i, numPages)
	}

	t.report(100)
	return pages, nil
}

// JoinText renders extracted pages as one document, separating pages with
// a horizontal rule. Empty pages are skipped.
func JoinText(pages []PageText) string {
	var parts []string
	for _, p := range pages {
		if p.Text != "" {
			parts = append(parts, p.Text)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "\n\n---\n\n") + "\n"
}
