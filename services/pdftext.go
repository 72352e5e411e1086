package services

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PageSource exposes the pages of an opened document, numbered from 1.
type PageSource interface {
	NumPage() int
	PageText(i int) (string, error)
}

// TextExtractor extracts the linear text of a staged document.
type TextExtractor interface {
	ExtractText(path string) (string, error)
}

// PDFTextExtractor reads bulletins with github.com/ledongthuc/pdf.
type PDFTextExtractor struct{}

// ExtractText returns the concatenated plain text of every page of the PDF at
// path, in page order, with nothing inserted between pages.
func (PDFTextExtractor) ExtractText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if f != nil {
		defer f.Close()
	}
	if err != nil {
		return "", fmt.Errorf("pdf: open %s: %w", path, err)
	}

	return JoinPages(pdfPages{r})
}

// JoinPages concatenates the text of every page of src.
func JoinPages(src PageSource) (string, error) {
	var sb strings.Builder
	for i := 1; i <= src.NumPage(); i++ {
		text, err := src.PageText(i)
		if err != nil {
			return "", fmt.Errorf("pdf: page %d: %w", i, err)
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}

type pdfPages struct {
	r *pdf.Reader
}

func (p pdfPages) NumPage() int { return p.r.NumPage() }

func (p pdfPages) PageText(i int) (string, error) {
	page := p.r.Page(i)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}
