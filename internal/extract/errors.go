package extract

import "fmt"

// ContainerFormatError means the bytes are not a zip container, or the container lacks
// the part that holds the document body.
type ContainerFormatError struct {
	Format string
	Reason string
	Err    error
}

func (e *ContainerFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract %s: %s: %v", e.Format, e.Reason, e.Err)
	}
	return fmt.Sprintf("extract %s: %s", e.Format, e.Reason)
}

func (e *ContainerFormatError) Unwrap() error { return e.Err }

// MarkupParseError means the main content part is not well-formed XML.
type MarkupParseError struct {
	Part string
	Err  error
}

func (e *MarkupParseError) Error() string {
	return fmt.Sprintf("extract: parse %s: %v", e.Part, e.Err)
}

func (e *MarkupParseError) Unwrap() error { return e.Err }

// UnsupportedFormatError is returned for extensions no extractor handles.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("extract: unsupported format %q", e.Ext)
}
