// Package extract turns office document containers into ordered plain-text paragraphs.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/kertas/internal/models"
)

// SupportedExtensions lists the extensions ExtractBytes handles.
var SupportedExtensions = []string{".docx", ".pptx", ".xlsx", ".odt", ".odp", ".ods", ".txt", ".md", ".rst"}

// Supported reports whether ext (with leading dot, any case) can be extracted.
func Supported(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range SupportedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Extractor extracts paragraph text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and extracts it according to its extension.
func (e *Extractor) Extract(path string) (*models.ExtractedContent, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, filepath.Ext(path))
}

// ExtractDocument extracts a source document. A document declared as .docx by media
// type is treated as one regardless of its file name.
func (e *Extractor) ExtractDocument(doc *models.SourceDocument) (*models.ExtractedContent, error) {
	if doc.IsDocx() {
		return ExtractText(doc.Data)
	}
	return e.ExtractBytes(doc.Data, doc.Ext())
}

// ExtractBytes extracts content based on the given extension.
// ext should include the leading dot (e.g. ".docx").
func (e *Extractor) ExtractBytes(content []byte, ext string) (*models.ExtractedContent, error) {
	switch strings.ToLower(ext) {
	case ".docx":
		return ExtractText(content)
	case ".pptx":
		return extractPPTX(content)
	case ".xlsx":
		return extractExcel(content)
	case ".odt":
		return extractOpenDocument("ODT", content)
	case ".odp":
		return extractOpenDocument("ODP", content)
	case ".ods":
		return extractOpenDocument("ODS", content)
	case ".txt", ".md", ".rst", "":
		return extractPlain(content)
	default:
		return nil, &UnsupportedFormatError{Ext: ext}
	}
}
