package extract

import (
	"github.com/hyperjump/kertas/internal/models"
)

// odfContentPath is the path to the main content inside OpenDocument zips (.odt, .odp, .ods).
const odfContentPath = "content.xml"

const nsODFText = "urn:oasis:names:tc:opendocument:xmlns:text:1.0"

// Paragraph text sits directly in text:p / text:h and in nested text:span elements.
var odfVocabulary = vocabulary{
	spaces:    []string{nsODFText, "text"},
	paragraph: []string{"p", "h"},
	gap:       []string{"s", "tab", "line-break"},
	ownText:   true,
}

// extractOpenDocument extracts paragraphs from an OpenDocument text, presentation or
// spreadsheet. All three keep their body in content.xml.
func extractOpenDocument(format string, content []byte) (*models.ExtractedContent, error) {
	zr, err := openZip(format, content)
	if err != nil {
		return nil, err
	}
	f := findEntry(zr, odfContentPath)
	if f == nil {
		return nil, &ContainerFormatError{Format: format, Reason: "missing main content part " + odfContentPath}
	}
	data, err := readEntry(format, f)
	if err != nil {
		return nil, err
	}
	paragraphs, err := parseParagraphs(odfContentPath, data, odfVocabulary)
	if err != nil {
		return nil, err
	}
	return models.NewExtractedContent(paragraphs), nil
}
