package layout

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
)

// writer pairs an fpdf document with the translator from UTF-8 to the core font code page.
// It measures with the same font that draws, so wrap decisions hold at render time.
type writer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func newWriter(cfg Config) (*writer, error) {
	pdf := fpdf.New("P", "pt", cfg.PageSize, "")
	if err := pdf.Error(); err != nil {
		return nil, &RenderError{Op: "create document", Err: err}
	}
	if w, h := pdf.GetPageSize(); w <= 2*cfg.Margin || h <= 2*cfg.Margin {
		return nil, &RenderError{Op: "create document", Err: fmt.Errorf("page %gx%g leaves no room inside %g margins", w, h, cfg.Margin)}
	}
	pdf.SetMargins(cfg.Margin, cfg.Margin, cfg.Margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont(cfg.FontFamily, "", cfg.FontSize)
	if err := pdf.Error(); err != nil {
		return nil, &RenderError{Op: "load font", Err: err}
	}
	return &writer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}, nil
}

// Width implements Measurer.
func (w *writer) Width(text string, size float64) float64 {
	w.pdf.SetFontSize(size)
	return w.pdf.GetStringWidth(w.tr(text))
}

// Render draws doc with a fresh writer and returns the PDF bytes.
func (c *Compiler) Render(doc *Document) ([]byte, error) {
	if doc == nil || len(doc.Pages) == 0 {
		return nil, &RenderError{Op: "render", Err: errors.New("document has no pages")}
	}
	w, err := newWriter(c.cfg)
	if err != nil {
		return nil, err
	}
	pdf := w.pdf
	if !c.cfg.CreationDate.IsZero() {
		pdf.SetCreationDate(c.cfg.CreationDate)
	}
	pdf.SetCatalogSort(true)
	pdf.SetTitle(doc.Title, true)
	pdf.SetSubject(doc.Source, true)
	pdf.SetCreator("kertas", false)

	for _, page := range doc.Pages {
		pdf.AddPage()
		pdf.SetTextColor(0, 0, 0)
		for _, line := range page.Lines {
			pdf.SetFontSize(line.Size)
			pdf.Text(c.cfg.Margin, doc.Height-line.Y, w.tr(line.Text))
		}
		pdf.SetFontSize(c.cfg.FooterSize)
		pdf.SetTextColor(c.cfg.FooterGray, c.cfg.FooterGray, c.cfg.FooterGray)
		pdf.Text(c.cfg.Margin, doc.Height-c.cfg.FooterOffset, w.tr(page.Footer))
		if err := pdf.Error(); err != nil {
			return nil, &RenderError{Op: "draw page", Err: err}
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &RenderError{Op: "serialize", Err: err}
	}
	if c.logger != nil {
		c.logger.Debug("pdf rendered", zap.Int("pages", len(doc.Pages)), zap.Int("bytes", buf.Len()))
	}
	return buf.Bytes(), nil
}
