// Package cli provides CLI output formatting for kertas.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hyperjump/kertas/internal/convert"
	"github.com/hyperjump/kertas/internal/models"
	"github.com/hyperjump/kertas/internal/pdfinfo"
	"github.com/hyperjump/kertas/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a -output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("invalid output format %q (use text or json)", s)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// conversionJSON is the machine-readable form of a conversion result.
type conversionJSON struct {
	*convert.Result
	Paragraphs  int    `json:"paragraphs"`
	LayoutError string `json:"layout_error,omitempty"`
	PDFPath     string `json:"pdf_path,omitempty"`
}

// WriteConversion writes a conversion result to w. pdfPath is where the PDF was written, if anywhere.
func WriteConversion(w io.Writer, res *convert.Result, pdfPath string, format OutputFormat) error {
	if format == OutputJSON {
		out := conversionJSON{Result: res, PDFPath: pdfPath}
		if res.Content != nil {
			out.Paragraphs = len(res.Content.Paragraphs)
		}
		if res.LayoutErr != nil {
			out.LayoutError = res.LayoutErr.Error()
		}
		return writeJSON(w, out)
	}
	fmt.Fprintf(w, "Converted %s (%s)\n", res.SourceName, res.State)
	fmt.Fprintf(w, "ID:         %s\n", res.ID)
	fmt.Fprintf(w, "Title:      %s\n", res.Title)
	if res.Content != nil {
		fmt.Fprintf(w, "Paragraphs: %d\n", len(res.Content.Paragraphs))
	}
	if res.LayoutErr != nil {
		fmt.Fprintf(w, "Layout failed: %v\n", res.LayoutErr)
		fmt.Fprintln(w, "The extracted text is still available (-text).")
		return nil
	}
	fmt.Fprintf(w, "Pages:      %d\n", res.Pages)
	if res.Cached {
		fmt.Fprintln(w, "Served from an earlier conversion.")
	}
	if pdfPath != "" {
		fmt.Fprintf(w, "PDF:        %s\n", pdfPath)
	}
	return nil
}

// WriteExtracted writes extracted content to w. Text format prints the paragraphs separated
// by blank lines, exactly the extracted text.
func WriteExtracted(w io.Writer, content *models.ExtractedContent, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, content)
	}
	if content.Text == "" {
		return nil
	}
	_, err := fmt.Fprintln(w, content.Text)
	return err
}

// WriteHistory writes conversion records to w.
func WriteHistory(w io.Writer, recs []*models.ConversionRecord, total int64, format OutputFormat) error {
	if format == OutputJSON {
		if recs == nil {
			recs = []*models.ConversionRecord{}
		}
		return writeJSON(w, map[string]interface{}{"conversions": recs, "total": total})
	}
	fmt.Fprintf(w, "%d of %d conversions\n", len(recs), total)
	for _, rec := range recs {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		state := string(rec.State)
		if rec.FailureKind != models.FailureNone {
			state += " (" + string(rec.FailureKind) + ")"
		}
		fmt.Fprintf(w, "%s  %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05"), rec.SourceName)
		fmt.Fprintf(w, "ID: %s | State: %s | Paragraphs: %d | Pages: %d\n", rec.ID, state, rec.Paragraphs, rec.Pages)
		if rec.Error != "" {
			fmt.Fprintf(w, "Error: %s\n", utils.Truncate(rec.Error, 120))
		}
		if rec.ExtractedText != "" {
			fmt.Fprintf(w, "%s\n", TruncateWords(rec.ExtractedText, 20))
		}
	}
	return nil
}

// WriteInspection writes what was read back from a PDF.
func WriteInspection(w io.Writer, path string, info *pdfinfo.Info, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, struct {
			Path string `json:"path"`
			*pdfinfo.Info
		}{path, info})
	}
	fmt.Fprintf(w, "%s: valid PDF, %d pages, %d bytes\n", path, info.Pages, info.Bytes)
	for i, text := range info.Texts {
		fmt.Fprintf(w, "\n--- Page %d ---\n%s\n", i+1, utils.Truncate(strings.TrimSpace(text), 400))
	}
	return nil
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:maxWords], " ") + "..."
}

// PrintConversion writes a conversion result to stdout as text.
func PrintConversion(res *convert.Result, pdfPath string) {
	_ = WriteConversion(os.Stdout, res, pdfPath, OutputText)
}
