// Package models defines core data structures for source documents, extracted content, and conversions.
package models

import (
	"path/filepath"
	"strings"
)

// DocxMediaType is the media type of a WordprocessingML (.docx) document.
const DocxMediaType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// PDFMediaType is the media type of the compiled output.
const PDFMediaType = "application/pdf"

// SourceDocument is an uploaded file handed to the converter. Data is owned by the caller
// and must not be modified while a conversion is running.
type SourceDocument struct {
	Name      string `json:"name"`
	MediaType string `json:"media_type,omitempty"`
	Data      []byte `json:"-"`
}

// Ext returns the lower-cased extension of Name, including the leading dot.
func (d *SourceDocument) Ext() string {
	return strings.ToLower(filepath.Ext(d.Name))
}

// IsDocx reports whether the document is a .docx, by media type or by file name.
func (d *SourceDocument) IsDocx() bool {
	return d.MediaType == DocxMediaType || d.Ext() == ".docx"
}

// Title returns the file name without directory and extension, used as the heading of the compiled PDF.
func (d *SourceDocument) Title() string {
	base := filepath.Base(d.Name)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ExtractedContent is the ordered, non-empty paragraph text of a document.
// Text is always Paragraphs joined with a blank line.
type ExtractedContent struct {
	Text       string   `json:"text"`
	Paragraphs []string `json:"paragraphs"`
}

// NewExtractedContent trims paragraphs, drops the empty ones and derives Text.
func NewExtractedContent(paragraphs []string) *ExtractedContent {
	kept := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return &ExtractedContent{
		Text:       strings.Join(kept, "\n\n"),
		Paragraphs: kept,
	}
}
