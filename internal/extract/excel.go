package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/hyperjump/kertas/internal/models"
	"github.com/xuri/excelize/v2"
)

// extractExcel streams every sheet and keeps each row holding text as one tab-joined
// paragraph. Blank rows are spacing in a workbook, not content.
func extractExcel(content []byte) (*models.ExtractedContent, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, &ContainerFormatError{Format: "XLSX", Reason: "open workbook", Err: err}
	}
	defer f.Close()

	var paragraphs []string
	for _, sheet := range f.GetSheetList() {
		rows, err := f.Rows(sheet)
		if err != nil {
			return nil, &ContainerFormatError{Format: "XLSX", Reason: fmt.Sprintf("read sheet %q", sheet), Err: err}
		}
		for rows.Next() {
			cells, err := rows.Columns()
			if err != nil {
				_ = rows.Close()
				return nil, &ContainerFormatError{Format: "XLSX", Reason: fmt.Sprintf("read row in sheet %q", sheet), Err: err}
			}
			if line := strings.Join(cells, "\t"); strings.TrimSpace(line) != "" {
				paragraphs = append(paragraphs, line)
			}
		}
		if err := rows.Close(); err != nil {
			return nil, &ContainerFormatError{Format: "XLSX", Reason: fmt.Sprintf("close sheet %q", sheet), Err: err}
		}
	}
	return models.NewExtractedContent(paragraphs), nil
}
