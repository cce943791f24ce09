// Package layout compiles extracted paragraphs into a paginated, word-wrapped PDF.
package layout

import (
	"fmt"
	"strings"

	"github.com/hyperjump/kertas/internal/models"
	"go.uber.org/zap"
)

// Line is one drawn line. Y is the baseline measured from the page bottom.
type Line struct {
	Text string  `json:"text"`
	Size float64 `json:"size"`
	Y    float64 `json:"y"`
}

// Page is the ordered lines of one page plus its footer.
type Page struct {
	Lines  []Line `json:"lines"`
	Footer string `json:"footer"`
}

// Document is the laid-out form of a conversion, ready to be rendered.
type Document struct {
	Title  string  `json:"title"`
	Source string  `json:"source"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Pages  []Page  `json:"pages"`
}

// FooterText is the footer drawn on page i (1-indexed) of n.
func FooterText(source string, i, n int) string {
	return fmt.Sprintf("Converted from %s - Page %d of %d", source, i, n)
}

// Compiler lays out and renders documents with a fixed Config.
// A Compiler is safe for concurrent use; every call builds its own PDF writer.
type Compiler struct {
	cfg    Config
	logger *zap.Logger
}

// CompilerOption configures a Compiler.
type CompilerOption func(*Compiler)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) CompilerOption {
	return func(c *Compiler) { c.logger = l }
}

// NewCompiler returns a compiler for cfg.
func NewCompiler(cfg Config, opts ...CompilerOption) *Compiler {
	c := &Compiler{cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the compiler configuration.
func (c *Compiler) Config() Config {
	return c.cfg
}

// Compile lays out title and content and returns the serialized PDF.
func (c *Compiler) Compile(title string, content *models.ExtractedContent, sourceFileName string) ([]byte, error) {
	doc, err := c.Layout(title, content, sourceFileName)
	if err != nil {
		return nil, err
	}
	return c.Render(doc)
}

// cursor tracks the vertical position while pages are filled top to bottom.
type cursor struct {
	doc    *Document
	top    float64
	margin float64
	y      float64
}

func (cur *cursor) page() *Page {
	return &cur.doc.Pages[len(cur.doc.Pages)-1]
}

// ensureRoom opens a new page when needed would cross the bottom margin.
// A page without lines is never closed, so no page is left empty.
func (cur *cursor) ensureRoom(needed float64) {
	if cur.y-needed < cur.margin && len(cur.page().Lines) > 0 {
		cur.doc.Pages = append(cur.doc.Pages, Page{})
		cur.y = cur.top
	}
}

func (cur *cursor) draw(text string, size float64) {
	p := cur.page()
	p.Lines = append(p.Lines, Line{Text: text, Size: size, Y: cur.y})
}

// Layout wraps and paginates the title and paragraphs and fills in every footer.
func (c *Compiler) Layout(title string, content *models.ExtractedContent, sourceFileName string) (*Document, error) {
	w, err := newWriter(c.cfg)
	if err != nil {
		return nil, err
	}
	width, height := w.pdf.GetPageSize()
	doc := &Document{
		Title:  title,
		Source: sourceFileName,
		Width:  width,
		Height: height,
		Pages:  []Page{{}},
	}
	cfg := c.cfg
	contentWidth := width - 2*cfg.Margin
	cur := &cursor{doc: doc, top: height - cfg.Margin, margin: cfg.Margin, y: height - cfg.Margin}

	for _, line := range Wrap(w, title, cfg.TitleSize, contentWidth) {
		cur.ensureRoom(cfg.LineHeight * 2)
		cur.draw(line, cfg.TitleSize)
		cur.y -= cfg.LineHeight * 1.5
	}
	cur.y -= cfg.LineHeight

	if content != nil {
		for _, paragraph := range content.Paragraphs {
			if strings.TrimSpace(paragraph) == "" {
				continue
			}
			lines := Wrap(w, paragraph, cfg.FontSize, contentWidth)
			cur.ensureRoom(float64(len(lines))*cfg.LineHeight + cfg.LineHeight)
			for _, line := range lines {
				cur.ensureRoom(cfg.LineHeight)
				cur.draw(line, cfg.FontSize)
				cur.y -= cfg.LineHeight
			}
			cur.y -= cfg.LineHeight * 0.5
		}
	}

	n := len(doc.Pages)
	for i := range doc.Pages {
		doc.Pages[i].Footer = FooterText(sourceFileName, i+1, n)
	}
	if c.logger != nil {
		c.logger.Debug("layout complete",
			zap.String("source", sourceFileName),
			zap.Int("pages", n),
		)
	}
	return doc, nil
}
