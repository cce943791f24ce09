package layout

import "fmt"

// RenderError means the PDF writer could not create the document, its font or a page.
// No partial output accompanies it.
type RenderError struct {
	Op  string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("layout: %s: %v", e.Op, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
