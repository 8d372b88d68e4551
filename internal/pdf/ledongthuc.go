package pdf

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

type pageLayout struct {
	glyphs []Glyph
	rects  []Rect
}

type ledongthucSource struct {
	file   *os.File
	reader *pdf.Reader
	pages  map[int]*pageLayout
}

func openLedongthuc(path string) (Source, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	return &ledongthucSource{file: f, reader: r, pages: map[int]*pageLayout{}}, nil
}

func (s *ledongthucSource) Pages() int {
	return s.reader.NumPage()
}

// Lines rebuilds text rows from glyph positions. Pages whose content
// stream cannot be interpreted fall back to the library's own row grouping.
func (s *ledongthucSource) Lines(page int) ([]string, error) {
	layout, err := s.layout(page)
	if err == nil && len(layout.glyphs) > 0 {
		return textLines(buildWords(layout.glyphs)), nil
	}
	lines, rowErr := s.rowLines(page)
	if rowErr != nil {
		return nil, rowErr
	}
	// GetTextByRow swallows its own panics and reports no rows.
	if len(lines) == 0 && err != nil {
		return nil, err
	}
	return lines, nil
}

func (s *ledongthucSource) Tables(page int) ([]Table, error) {
	layout, err := s.layout(page)
	if err != nil {
		return nil, err
	}
	return detectTables(layout.glyphs, layout.rects), nil
}

func (s *ledongthucSource) Close() error {
	return s.file.Close()
}

func (s *ledongthucSource) page(n int) (pdf.Page, error) {
	if n < 1 || n > s.reader.NumPage() {
		return pdf.Page{}, fmt.Errorf("page %d out of range (1-%d)", n, s.reader.NumPage())
	}
	p := s.reader.Page(n)
	if p.V.IsNull() {
		return pdf.Page{}, fmt.Errorf("invalid page %d", n)
	}
	return p, nil
}

func (s *ledongthucSource) layout(n int) (layout *pageLayout, err error) {
	if cached, ok := s.pages[n]; ok {
		return cached, nil
	}
	p, err := s.page(n)
	if err != nil {
		return nil, err
	}

	// Content panics on malformed operators.
	defer func() {
		if r := recover(); r != nil {
			layout, err = nil, fmt.Errorf("failed to read content of page %d: %v", n, r)
		}
	}()

	content := p.Content()
	layout = &pageLayout{
		glyphs: make([]Glyph, 0, len(content.Text)),
		rects:  make([]Rect, 0, len(content.Rect)),
	}
	for _, t := range content.Text {
		layout.glyphs = append(layout.glyphs, Glyph{X: t.X, Y: t.Y, W: t.W, Size: t.FontSize, S: t.S})
	}
	for _, r := range content.Rect {
		layout.rects = append(layout.rects, Rect{X0: r.Min.X, Y0: r.Min.Y, X1: r.Max.X, Y1: r.Max.Y})
	}
	s.pages[n] = layout
	return layout, nil
}

func (s *ledongthucSource) rowLines(n int) (lines []string, err error) {
	p, err := s.page(n)
	if err != nil {
		return nil, err
	}

	// GetTextByRow decodes the same content stream as Content.
	defer func() {
		if r := recover(); r != nil {
			lines, err = nil, fmt.Errorf("failed to read text rows of page %d: %v", n, r)
		}
	}()
	rows, err := p.GetTextByRow()
	if err != nil {
		return nil, fmt.Errorf("failed to read text rows of page %d: %w", n, err)
	}

	lines = make([]string, 0, len(rows))
	for _, row := range rows {
		parts := make([]string, 0, len(row.Content))
		for _, t := range row.Content {
			parts = append(parts, t.S)
		}
		if line := strings.TrimSpace(strings.Join(parts, " ")); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}
