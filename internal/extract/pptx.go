package extract

import (
	"archive/zip"
	"sort"
	"strconv"
	"strings"

	"github.com/hyperjump/kertas/internal/models"
)

// pptxSlidePathPrefix is the path prefix for slide XML files inside a .pptx zip.
const pptxSlidePathPrefix = "ppt/slides/slide"

const nsDrawingML = "http://schemas.openxmlformats.org/drawingml/2006/main"

var pptxVocabulary = vocabulary{
	spaces:    []string{nsDrawingML, "a"},
	paragraph: []string{"p"},
	text:      []string{"t"},
	gap:       []string{"br"},
}

// slideNumber returns N for ppt/slides/slideN.xml, or -1.
func slideNumber(name string) int {
	if !strings.HasPrefix(name, pptxSlidePathPrefix) || !strings.HasSuffix(name, ".xml") {
		return -1
	}
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, pptxSlidePathPrefix), ".xml"))
	if err != nil {
		return -1
	}
	return n
}

// extractPPTX extracts paragraphs from .pptx bytes. Slides are read in slide-number
// order (zip order is arbitrary) and every a:p becomes one paragraph.
func extractPPTX(content []byte) (*models.ExtractedContent, error) {
	zr, err := openZip("PPTX", content)
	if err != nil {
		return nil, err
	}
	var slides []*zip.File
	for _, f := range zr.File {
		if slideNumber(f.Name) >= 0 {
			slides = append(slides, f)
		}
	}
	sort.Slice(slides, func(i, j int) bool {
		return slideNumber(slides[i].Name) < slideNumber(slides[j].Name)
	})

	var paragraphs []string
	for _, f := range slides {
		data, err := readEntry("PPTX", f)
		if err != nil {
			return nil, err
		}
		ps, err := parseParagraphs(f.Name, data, pptxVocabulary)
		if err != nil {
			return nil, err
		}
		paragraphs = append(paragraphs, ps...)
	}
	return models.NewExtractedContent(paragraphs), nil
}
