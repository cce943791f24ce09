package pdfinfo

import (
	"bytes"
	"testing"

	"github.com/go-pdf/fpdf"
)

func twoPagePDF(t *testing.T) []byte {
	t.Helper()
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetFont("Times", "", 12)
	pdf.AddPage()
	pdf.Text(50, 60, "first page body")
	pdf.AddPage()
	pdf.Text(50, 60, "second page body")
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("Output: %v", err)
	}
	return buf.Bytes()
}

func TestInspect(t *testing.T) {
	data := twoPagePDF(t)
	info, err := Inspect(data)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if info.Pages != 2 {
		t.Errorf("Pages = %d, want 2", info.Pages)
	}
	if info.Bytes != len(data) {
		t.Errorf("Bytes = %d, want %d", info.Bytes, len(data))
	}
	if !info.Contains(1, "first page body") {
		t.Errorf("page 1 text = %q", info.Texts[0])
	}
	if !info.Contains(2, "second page body") {
		t.Errorf("page 2 text = %q", info.Texts[1])
	}
	if info.Contains(1, "second page body") {
		t.Error("page 1 should not contain page 2 text")
	}
}

func TestContains_outOfRange(t *testing.T) {
	info := &Info{Pages: 1, Texts: []string{"x"}}
	if info.Contains(0, "x") || info.Contains(2, "x") {
		t.Error("Contains outside 1..Pages should be false")
	}
}

func TestPageCount(t *testing.T) {
	n, err := PageCount(twoPagePDF(t))
	if err != nil {
		t.Fatalf("PageCount: %v", err)
	}
	if n != 2 {
		t.Errorf("PageCount = %d, want 2", n)
	}
}

func TestValidate_rejectsGarbage(t *testing.T) {
	for name, data := range map[string][]byte{
		"empty":     nil,
		"text":      []byte("this is not a pdf"),
		"truncated": twoPagePDF(t)[:40],
	} {
		if err := Validate(data); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
		if _, err := Inspect(data); err == nil {
			t.Errorf("%s: expected inspect error", name)
		}
	}
}
