package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/kertas/internal/models"
)

var blankLine = regexp.MustCompile(`\n[ \t]*\n`)

// extractPlain validates content as UTF-8 (invalid sequences become U+FFFD) and splits it
// into paragraphs on blank lines. Single line breaks stay inside a paragraph.
func extractPlain(content []byte) (*models.ExtractedContent, error) {
	s := string(content)
	if !utf8.Valid(content) {
		s = strings.ToValidUTF8(s, "\ufffd")
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return models.NewExtractedContent(blankLine.Split(s, -1)), nil
}
