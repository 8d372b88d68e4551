// Package pdftest writes small uncompressed PDF files for tests. Text is set
// in Helvetica with a fixed 500/1000 em advance so glyph positions are
// predictable: each character is Size/2 points wide.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Text is a run of characters drawn with its baseline starting at X, Y.
type Text struct {
	X, Y float64
	Size float64
	S    string
}

// Rect is a filled rectangle. Thin rectangles are how most generators draw
// table rules.
type Rect struct {
	X, Y, W, H float64
}

// Page is the content of one page. Raw is appended to the content stream
// as is.
type Page struct {
	Texts []Text
	Rects []Rect
	Raw   string
}

// CharWidth returns the advance of one character at size.
func CharWidth(size float64) float64 {
	return size / 2
}

// Grid returns the rules of a table whose column boundaries are xs and whose
// row boundaries are ys (top first).
func Grid(xs, ys []float64) []Rect {
	const t = 0.5
	top, bottom := ys[0], ys[len(ys)-1]
	left, right := xs[0], xs[len(xs)-1]
	var rects []Rect
	for _, y := range ys {
		rects = append(rects, Rect{X: left, Y: y - t/2, W: right - left, H: t})
	}
	for _, x := range xs {
		rects = append(rects, Rect{X: x - t/2, Y: bottom, W: t, H: top - bottom})
	}
	return rects
}

// Build renders pages into a complete PDF document.
func Build(pages ...Page) []byte {
	var objects []string

	// 1 catalog, 2 page tree, 3 font, then a page and a content object per page.
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		fontObject(),
	)
	for i, p := range pages {
		content := pageContent(p)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
				"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

// WriteFile builds pages and writes them to dir/name, returning the path.
func WriteFile(t testing.TB, dir, name string, pages ...Page) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, Build(pages...), 0o644); err != nil {
		t.Fatalf("failed to write test PDF: %v", err)
	}
	return path
}

func fontObject() string {
	widths := make([]string, 126-32+1)
	for i := range widths {
		widths[i] = "500"
	}
	return "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding " +
		"/FirstChar 32 /LastChar 126 /Widths [" + strings.Join(widths, " ") + "] >>"
}

func pageContent(p Page) string {
	var b strings.Builder
	for _, r := range p.Rects {
		fmt.Fprintf(&b, "%.2f %.2f %.2f %.2f re f\n", r.X, r.Y, r.W, r.H)
	}
	for _, t := range p.Texts {
		fmt.Fprintf(&b, "BT /F1 %.1f Tf 1 0 0 1 %.2f %.2f Tm (%s) Tj ET\n", t.Size, t.X, t.Y, escape(t.S))
	}
	if p.Raw != "" {
		b.WriteString(p.Raw)
	}
	return strings.TrimRight(b.String(), "\n")
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}

// PackingList is a one-page packing list with a ruled item table holding
// two items: "WATER-TITE 401 PU PLUS 20KG PAIL" (36 boxes, 72 units,
// 1140.48/1200.00 kg) and "ROOF COATING WHITE 18L" (12 boxes, 24 units,
// 540.00/562.50 kg), the second with its weights on the following line.
func PackingList() Page {
	return Page{
		Texts: []Text{
			{X: 40, Y: 740, Size: 12, S: "PACKING LIST"},
			{X: 45, Y: 686, Size: 8, S: "DESCRIPTION/SIZE"},
			{X: 335, Y: 686, Size: 8, S: "BOX QTY"},
			{X: 425, Y: 686, Size: 8, S: "NET GROSS"},
			{X: 45, Y: 665, Size: 8, S: "WATER-TITE 401 PU PLUS 20KG PAIL 36 72 PAIL 1 ,140.48 1 ,200.00"},
			{X: 45, Y: 650, Size: 8, S: "ROOF COATING WHITE 18L 12 24 PAIL"},
			{X: 425, Y: 650, Size: 8, S: "540.00 562.50"},
			{X: 45, Y: 606, Size: 8, S: "TOTAL"},
		},
		Rects: Grid([]float64{40, 330, 420, 570}, []float64{700, 680, 620, 600}),
	}
}
