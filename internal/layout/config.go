package layout

import "time"

// Config holds the compiled-in page geometry and typography. All lengths are PDF points.
type Config struct {
	FontFamily   string
	FontSize     float64
	TitleSize    float64
	LineHeight   float64
	Margin       float64
	FooterSize   float64
	FooterOffset float64 // footer baseline distance from the page bottom
	FooterGray   int
	PageSize     string // fpdf page size name: A4, Letter, Legal, A3, A5
	// CreationDate pins the PDF metadata timestamp; zero means the time of rendering.
	CreationDate time.Time
}

// DefaultConfig returns Times 12pt body, 16pt title, 18pt leading and 50pt margins on A4.
func DefaultConfig() Config {
	return Config{
		FontFamily:   "Times",
		FontSize:     12,
		TitleSize:    16,
		LineHeight:   18,
		Margin:       50,
		FooterSize:   8,
		FooterOffset: 30,
		FooterGray:   128,
		PageSize:     "A4",
	}
}
