package extract

import (
	"archive/zip"
	"encoding/xml"
	"strings"

	"github.com/hyperjump/kertas/internal/models"
)

// docxDocumentXMLPath is the default path to the main document body inside a .docx zip.
const docxDocumentXMLPath = "word/document.xml"

// contentTypesPath is the path to [Content_Types].xml in OOXML packages.
const contentTypesPath = "[Content_Types].xml"

// docxMainContentType is the content type for the main document in DOCX files.
const docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"

const (
	nsWordprocessingML       = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsWordprocessingMLStrict = "http://purl.oclc.org/ooxml/wordprocessingml/main"
)

var docxVocabulary = vocabulary{
	spaces:    []string{nsWordprocessingML, nsWordprocessingMLStrict, "w"},
	paragraph: []string{"p"},
	text:      []string{"t"},
	gap:       []string{"tab", "br", "cr"},
}

type contentTypes struct {
	Overrides []struct {
		PartName    string `xml:"PartName,attr"`
		ContentType string `xml:"ContentType,attr"`
	} `xml:"Override"`
}

// findDocxMainDocumentPath finds the main document path from [Content_Types].xml.
// Returns the path without leading slash, or empty string if not found or unreadable.
func findDocxMainDocumentPath(zr *zip.Reader) string {
	f := findEntry(zr, contentTypesPath)
	if f == nil {
		return ""
	}
	data, err := readEntry("DOCX", f)
	if err != nil {
		return ""
	}
	var ct contentTypes
	if err := xml.Unmarshal(data, &ct); err != nil {
		return ""
	}
	for _, o := range ct.Overrides {
		if o.ContentType == docxMainContentType {
			return strings.TrimPrefix(o.PartName, "/")
		}
	}
	return ""
}

// ExtractText extracts the paragraphs of a .docx. The main part is located through
// [Content_Types].xml and falls back to word/document.xml; each w:p yields the
// concatenation of its w:t runs, trimmed, with empty paragraphs dropped.
func ExtractText(content []byte) (*models.ExtractedContent, error) {
	zr, err := openZip("DOCX", content)
	if err != nil {
		return nil, err
	}

	docPath := findDocxMainDocumentPath(zr)
	if docPath == "" || findEntry(zr, docPath) == nil {
		docPath = docxDocumentXMLPath
	}
	f := findEntry(zr, docPath)
	if f == nil {
		return nil, &ContainerFormatError{Format: "DOCX", Reason: "missing main content part " + docPath}
	}
	docXML, err := readEntry("DOCX", f)
	if err != nil {
		return nil, err
	}
	paragraphs, err := parseParagraphs(docPath, docXML, docxVocabulary)
	if err != nil {
		return nil, err
	}
	return models.NewExtractedContent(paragraphs), nil
}
