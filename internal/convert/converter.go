// Package convert runs the conversion pipeline: extract paragraph text, compile it into a
// paginated PDF, and optionally verify, persist and memoize the result.
package convert

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hyperjump/kertas/internal/extract"
	"github.com/hyperjump/kertas/internal/fileid"
	"github.com/hyperjump/kertas/internal/layout"
	"github.com/hyperjump/kertas/internal/models"
	"github.com/hyperjump/kertas/internal/pdfinfo"
	"github.com/hyperjump/kertas/internal/storage"
	"go.uber.org/zap"
)

// Result is the outcome of one conversion. When LayoutErr is set the extracted text is
// still valid and PDF is nil.
type Result struct {
	ID            string                   `json:"id"`
	SourceID      string                   `json:"source_id"`
	SourceName    string                   `json:"source_name"`
	Title         string                   `json:"title"`
	Content       *models.ExtractedContent `json:"content"`
	ExtractedText string                   `json:"-"`
	PDF           []byte                   `json:"-"`
	Pages         int                      `json:"pages"`
	LayoutErr     error                    `json:"-"`
	State         models.ConversionState   `json:"state"`
	FailureKind   models.FailureKind       `json:"failure_kind,omitempty"`
	OutputPath    string                   `json:"output_path,omitempty"`
	Cached        bool                     `json:"cached"`
}

// Converter joins the extractor and the layout compiler.
type Converter struct {
	extractor *extract.Extractor
	compiler  *layout.Compiler
	storage   storage.Storage
	outputs   *storage.OutputStore
	cache     *resultCache
	verify    bool
	logger    *zap.Logger // optional; when set, logs state transitions
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets a logger for state transitions and failures.
func WithLogger(l *zap.Logger) Option {
	return func(c *Converter) { c.logger = l }
}

// WithStorage records every conversion in s. When outputs is non-nil, compiled PDFs
// are saved there and served again for identical sources.
func WithStorage(s storage.Storage, outputs *storage.OutputStore) Option {
	return func(c *Converter) {
		c.storage = s
		c.outputs = outputs
	}
}

// WithCache memoizes up to size results keyed by source identity. Zero disables it.
func WithCache(size int) Option {
	return func(c *Converter) {
		if size > 0 {
			c.cache = newResultCache(size)
		} else {
			c.cache = nil
		}
	}
}

// WithVerify reads every compiled PDF back and treats an unreadable one as a layout failure.
func WithVerify(enabled bool) Option {
	return func(c *Converter) { c.verify = enabled }
}

// NewConverter creates a converter. A nil extractor or compiler gets the default one.
func NewConverter(extractor *extract.Extractor, compiler *layout.Compiler, opts ...Option) *Converter {
	if extractor == nil {
		extractor = extract.NewExtractor()
	}
	if compiler == nil {
		compiler = layout.NewCompiler(layout.DefaultConfig())
	}
	c := &Converter{extractor: extractor, compiler: compiler}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compiler returns the layout compiler in use.
func (c *Converter) Compiler() *layout.Compiler {
	return c.compiler
}

// Convert extracts doc and compiles it. Extraction failures are returned as the error with
// a nil Result; a layout failure yields a Result carrying the text and LayoutErr.
func (c *Converter) Convert(ctx context.Context, doc *models.SourceDocument) (*Result, error) {
	return c.convert(ctx, doc, "")
}

// Extract runs only the extraction stage.
func (c *Converter) Extract(ctx context.Context, doc *models.SourceDocument) (*models.ExtractedContent, error) {
	if doc == nil {
		return nil, errors.New("extract: nil source document")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.extractor.ExtractDocument(doc)
}

// convert runs doc under id. An empty id means any conversion of the same source may
// answer, and a fresh one gets a random ID. A non-empty id always ends up owning its own
// history record and PDF, even when the result is memoized under another ID.
func (c *Converter) convert(ctx context.Context, doc *models.SourceDocument, id string) (*Result, error) {
	if doc == nil {
		return nil, errors.New("convert: nil source document")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sourceID := fileid.ContentID(doc.Name, doc.Data)
	if res, ok := c.lookup(ctx, sourceID); ok {
		switch {
		case id == "" || res.ID == id:
			if c.logger != nil {
				c.logger.Debug("conversion served from cache",
					zap.String("source", doc.Name), zap.String("id", res.ID))
			}
			return res, nil
		case res.State == models.StateReady:
			return c.adopt(ctx, doc, res, id)
		}
	}
	if id == "" {
		id = uuid.New().String()
	}

	r := &run{c: c, res: &Result{
		ID:         id,
		SourceID:   sourceID,
		SourceName: doc.Name,
		Title:      doc.Title(),
		State:      models.StateIdle,
	}}
	if err := r.begin(ctx, doc); err != nil {
		return nil, err
	}

	if err := r.transition(ctx, models.StateExtracting, nil); err != nil {
		r.fail(ctx, err)
		return nil, err
	}
	content, err := c.extractor.ExtractDocument(doc)
	if err != nil {
		r.fail(ctx, err)
		return nil, err
	}
	r.res.Content = content
	r.res.ExtractedText = content.Text
	if err := ctx.Err(); err != nil {
		r.fail(ctx, err)
		return nil, err
	}

	if err := r.transition(ctx, models.StateCompiling, nil); err != nil {
		r.fail(ctx, err)
		return nil, err
	}
	pdf, pages, err := c.compile(r.res.Title, content, doc.Name)
	if err != nil {
		r.res.LayoutErr = err
		r.fail(ctx, err)
	} else {
		r.res.PDF = pdf
		r.res.Pages = pages
		if c.outputs != nil {
			path, err := c.outputs.Save(r.res.ID, pdf)
			if err != nil {
				r.fail(ctx, err)
				return nil, err
			}
			r.res.OutputPath = path
		}
		if err := r.transition(ctx, models.StateReady, nil); err != nil {
			r.fail(ctx, err)
			return nil, err
		}
	}

	if c.cache != nil {
		c.cache.Set(sourceID, r.res)
	}
	return r.res, nil
}

// adopt records a memoized ready result under id, with its own copy of the PDF, so that
// deleting either conversion leaves the other intact.
func (c *Converter) adopt(ctx context.Context, doc *models.SourceDocument, hit *Result, id string) (*Result, error) {
	r := &run{c: c, res: &Result{
		ID:            id,
		SourceID:      hit.SourceID,
		SourceName:    doc.Name,
		Title:         hit.Title,
		Content:       hit.Content,
		ExtractedText: hit.ExtractedText,
		PDF:           hit.PDF,
		Pages:         hit.Pages,
		State:         models.StateIdle,
		Cached:        true,
	}}
	if err := r.begin(ctx, doc); err != nil {
		return nil, err
	}
	if c.outputs != nil {
		path, err := c.outputs.Save(id, hit.PDF)
		if err != nil {
			r.fail(ctx, err)
			return nil, err
		}
		r.res.OutputPath = path
	}
	if err := r.transition(ctx, models.StateReady, nil); err != nil {
		r.fail(ctx, err)
		return nil, err
	}
	if c.logger != nil {
		c.logger.Debug("memoized conversion adopted",
			zap.String("source", doc.Name), zap.String("from", hit.ID), zap.String("id", id))
	}
	return r.res, nil
}

// compile lays out and renders content, returning the PDF and its page count.
func (c *Converter) compile(title string, content *models.ExtractedContent, source string) ([]byte, int, error) {
	doc, err := c.compiler.Layout(title, content, source)
	if err != nil {
		return nil, 0, err
	}
	pdf, err := c.compiler.Render(doc)
	if err != nil {
		return nil, 0, err
	}
	if c.verify {
		info, err := pdfinfo.Inspect(pdf)
		if err != nil {
			return nil, 0, &layout.RenderError{Op: "verify", Err: err}
		}
		if info.Pages != len(doc.Pages) {
			return nil, 0, &layout.RenderError{Op: "verify", Err: fmt.Errorf("laid out %d pages, read back %d", len(doc.Pages), info.Pages)}
		}
	}
	return pdf, len(doc.Pages), nil
}

// lookup returns a memoized result for sourceID, first from the in-memory cache and then
// from a ready history record whose PDF is still on disk.
func (c *Converter) lookup(ctx context.Context, sourceID string) (*Result, bool) {
	if c.cache != nil {
		if res, ok := c.cache.Get(sourceID); ok {
			hit := *res
			hit.Cached = true
			return &hit, true
		}
	}
	if c.storage == nil || c.outputs == nil {
		return nil, false
	}
	rec, err := c.storage.FindReadyBySourceID(ctx, sourceID)
	if err != nil {
		return nil, false
	}
	pdf, err := c.outputs.Load(rec.OutputPath)
	if err != nil {
		return nil, false
	}
	paragraphs := rec.ParagraphTexts
	if paragraphs == nil && rec.ExtractedText != "" {
		// rows written before paragraph lists were stored
		paragraphs = strings.Split(rec.ExtractedText, "\n\n")
	}
	content := models.NewExtractedContent(paragraphs)
	res := &Result{
		ID:            rec.ID,
		SourceID:      rec.SourceID,
		SourceName:    rec.SourceName,
		Title:         rec.Title,
		Content:       content,
		ExtractedText: content.Text,
		PDF:           pdf,
		Pages:         rec.Pages,
		State:         models.StateReady,
		OutputPath:    rec.OutputPath,
	}
	if c.cache != nil {
		c.cache.Set(sourceID, res)
	}
	hit := *res
	hit.Cached = true
	return &hit, true
}

// Delete removes conversion id from history, the output store and the cache.
func (c *Converter) Delete(ctx context.Context, id string) error {
	if c.cache != nil {
		c.cache.Remove(id)
	}
	if c.outputs != nil {
		if err := c.outputs.Remove(id); err != nil {
			return err
		}
	}
	if c.storage != nil {
		if err := c.storage.DeleteConversion(ctx, id); err != nil {
			return fmt.Errorf("failed to delete conversion: %w", err)
		}
	}
	if c.logger != nil {
		c.logger.Debug("conversion deleted", zap.String("id", id))
	}
	return nil
}

// run carries one conversion through its states and mirrors them into history.
type run struct {
	c   *Converter
	res *Result
	rec *models.ConversionRecord // nil without storage
}

// begin replaces any previous conversion under the same ID and records the new one as idle.
func (r *run) begin(ctx context.Context, doc *models.SourceDocument) error {
	c := r.c
	if c.cache != nil {
		c.cache.Remove(r.res.ID)
	}
	if c.outputs != nil {
		if err := c.outputs.Remove(r.res.ID); err != nil {
			return err
		}
	}
	if c.storage == nil {
		return nil
	}
	if err := c.storage.DeleteConversion(ctx, r.res.ID); err != nil {
		return fmt.Errorf("failed to replace conversion: %w", err)
	}
	r.rec = &models.ConversionRecord{
		ID:         r.res.ID,
		SourceID:   r.res.SourceID,
		SourceName: doc.Name,
		MediaType:  doc.MediaType,
		Title:      r.res.Title,
		State:      models.StateIdle,
	}
	if err := c.storage.CreateConversion(ctx, r.rec); err != nil {
		return fmt.Errorf("failed to store conversion: %w", err)
	}
	return nil
}

// transition moves the conversion to state; cause is the error behind a failed state.
func (r *run) transition(ctx context.Context, state models.ConversionState, cause error) error {
	r.res.State = state
	r.res.FailureKind = FailureKindOf(cause)
	if l := r.c.logger; l != nil {
		fields := []zap.Field{
			zap.String("id", r.res.ID),
			zap.String("source", r.res.SourceName),
			zap.String("state", string(state)),
		}
		if cause != nil {
			l.Warn("conversion failed", append(fields, zap.String("kind", string(r.res.FailureKind)), zap.Error(cause))...)
		} else {
			l.Debug("conversion state", fields...)
		}
	}
	if r.rec == nil {
		return nil
	}
	r.rec.State = state
	r.rec.FailureKind = r.res.FailureKind
	r.rec.Pages = r.res.Pages
	r.rec.OutputPath = r.res.OutputPath
	if r.res.Content != nil {
		r.rec.Paragraphs = len(r.res.Content.Paragraphs)
		r.rec.ExtractedText = r.res.Content.Text
		r.rec.ParagraphTexts = r.res.Content.Paragraphs
	}
	if cause != nil {
		r.rec.Error = cause.Error()
	}
	if err := r.c.storage.UpdateConversion(ctx, r.rec); err != nil {
		return fmt.Errorf("failed to update conversion: %w", err)
	}
	return nil
}

// fail records the failed state. The history write outlives a cancelled ctx, and its own
// error is only logged so the caller sees the cause.
func (r *run) fail(ctx context.Context, cause error) {
	if err := r.transition(context.WithoutCancel(ctx), models.StateFailed, cause); err != nil && r.c.logger != nil {
		r.c.logger.Warn("failed to record conversion failure", zap.String("id", r.res.ID), zap.Error(err))
	}
}
