package layout

import "strings"

// Measurer reports the rendered width of text at a font size.
type Measurer interface {
	Width(text string, size float64) float64
}

// Wrap splits text on whitespace and greedily packs words into lines no wider than width
// at size. A word wider than width on its own is emitted as a single overflowing line.
func Wrap(m Measurer, text string, size, width float64) []string {
	var lines []string
	current := ""
	for _, word := range strings.Fields(text) {
		if current == "" {
			current = word
			continue
		}
		candidate := current + " " + word
		if m.Width(candidate, size) <= width {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = word
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}
