// Package pdfinfo reads compiled PDFs back: structural validation, page count and page text.
package pdfinfo

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Info describes a PDF.
type Info struct {
	Pages int      `json:"pages"`
	Bytes int      `json:"bytes"`
	Texts []string `json:"texts"` // plain text per page, 0-indexed
}

// Contains reports whether page i (1-indexed) contains s.
func (in *Info) Contains(i int, s string) bool {
	if i < 1 || i > len(in.Texts) {
		return false
	}
	return strings.Contains(in.Texts[i-1], s)
}

func configuration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Validate checks that data is a structurally valid PDF.
func Validate(data []byte) error {
	if err := api.Validate(bytes.NewReader(data), configuration()); err != nil {
		return fmt.Errorf("validate PDF: %w", err)
	}
	return nil
}

// PageCount returns the number of pages in data.
func PageCount(data []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(data), configuration())
	if err != nil {
		return 0, fmt.Errorf("count PDF pages: %w", err)
	}
	return n, nil
}

// Inspect validates data and reads its page count and per-page plain text.
func Inspect(data []byte) (*Info, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	n, err := PageCount(data)
	if err != nil {
		return nil, err
	}
	texts, err := pageTexts(data)
	if err != nil {
		return nil, err
	}
	if len(texts) != n {
		return nil, fmt.Errorf("inspect PDF: page tree has %d pages, text reader found %d", n, len(texts))
	}
	return &Info{Pages: n, Bytes: len(data), Texts: texts}, nil
}

func pageTexts(data []byte) ([]string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	numPages := r.NumPage()
	texts := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			texts = append(texts, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", i, err)
		}
		texts = append(texts, text)
	}
	return texts, nil
}
