package models

import "time"

// ConversionState is the lifecycle position of a single conversion.
type ConversionState string

const (
	StateIdle       ConversionState = "idle"
	StateExtracting ConversionState = "extracting"
	StateCompiling  ConversionState = "compiling"
	StateReady      ConversionState = "ready"
	StateFailed     ConversionState = "failed"
)

// FailureKind says which stage failed, so callers can tell "could not read this file"
// apart from "could not lay it out, but here is the raw text".
type FailureKind string

const (
	FailureNone        FailureKind = ""
	FailureContainer   FailureKind = "container"
	FailureMarkup      FailureKind = "markup"
	FailureUnsupported FailureKind = "unsupported"
	FailureLayout      FailureKind = "layout"
	FailureInternal    FailureKind = "internal"
)

// TextOnly reports whether extracted text is still usable after a failure of this kind.
func (k FailureKind) TextOnly() bool {
	return k == FailureLayout
}

// ConversionRecord is the persisted history entry of one conversion.
type ConversionRecord struct {
	ID             string          `json:"id" db:"id"`
	SourceID       string          `json:"source_id" db:"source_id"`
	SourceName     string          `json:"source_name" db:"source_name"`
	MediaType      string          `json:"media_type,omitempty" db:"media_type"`
	Title          string          `json:"title" db:"title"`
	Paragraphs     int             `json:"paragraphs" db:"paragraphs"`
	Pages          int             `json:"pages" db:"pages"`
	ExtractedText  string          `json:"-" db:"extracted_text"`
	// ParagraphTexts keeps paragraph boundaries, which ExtractedText cannot: a paragraph
	// may itself contain a blank line.
	ParagraphTexts []string        `json:"-" db:"paragraph_texts"`
	OutputPath     string          `json:"output_path,omitempty" db:"output_path"`
	State          ConversionState `json:"state" db:"state"`
	FailureKind    FailureKind     `json:"failure_kind,omitempty" db:"failure_kind"`
	Error          string          `json:"error,omitempty" db:"error"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}
