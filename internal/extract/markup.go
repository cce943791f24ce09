package extract

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// vocabulary describes which elements of a content part carry paragraph text.
// Names match when their namespace is one of spaces, either as a resolved URI or as an
// undeclared prefix (encoding/xml leaves those in Name.Space).
type vocabulary struct {
	spaces    []string
	paragraph []string
	text      []string // elements whose character data is run text
	gap       []string // empty elements standing for whitespace
	// ownText makes all character data inside a paragraph count, not only text elements.
	ownText bool
}

func (v vocabulary) is(name xml.Name, locals []string) bool {
	found := false
	for _, l := range locals {
		if name.Local == l {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	for _, s := range v.spaces {
		if name.Space == s {
			return true
		}
	}
	return false
}

// parseParagraphs walks the XML in data and returns the raw (untrimmed) text of every
// paragraph element in document order, ordered by where each paragraph opens. A
// paragraph nested in another (a text box inside a run) yields its own entry right after
// its parent, and its runs count toward the parent's text as well.
//
// The part must be a single well-formed element: an empty part, stray text outside the
// root, or a second root is a MarkupParseError.
func parseParagraphs(part string, data []byte, v vocabulary) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var (
		out    []*strings.Builder
		open   []*strings.Builder
		inText int
		depth  int
		rooted bool
	)
	write := func(b []byte) {
		for _, sb := range open {
			sb.Write(b)
		}
	}
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &MarkupParseError{Part: part, Err: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				if rooted {
					return nil, &MarkupParseError{Part: part, Err: fmt.Errorf("second root element <%s>", t.Name.Local)}
				}
				rooted = true
			}
			depth++
			switch {
			case v.is(t.Name, v.paragraph):
				sb := &strings.Builder{}
				out = append(out, sb)
				open = append(open, sb)
			case v.is(t.Name, v.text):
				inText++
			case v.is(t.Name, v.gap):
				write([]byte{' '})
			}
		case xml.EndElement:
			depth--
			switch {
			case v.is(t.Name, v.paragraph):
				if len(open) > 0 {
					open = open[:len(open)-1]
				}
			case v.is(t.Name, v.text):
				if inText > 0 {
					inText--
				}
			}
		case xml.CharData:
			if depth == 0 {
				if len(bytes.TrimSpace(t)) > 0 {
					return nil, &MarkupParseError{Part: part, Err: errors.New("text outside the root element")}
				}
				continue
			}
			if inText > 0 || v.ownText {
				write(t)
			}
		}
	}
	if !rooted {
		return nil, &MarkupParseError{Part: part, Err: errors.New("no root element")}
	}
	texts := make([]string, len(out))
	for i, sb := range out {
		texts[i] = sb.String()
	}
	return texts, nil
}
