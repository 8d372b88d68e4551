package pdf

import (
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
)

type fitzSource struct {
	doc *fitz.Document
}

func openFitz(path string) (Source, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	return &fitzSource{doc: doc}, nil
}

func (s *fitzSource) Pages() int {
	return s.doc.NumPage()
}

func (s *fitzSource) Lines(page int) ([]string, error) {
	if page < 1 || page > s.doc.NumPage() {
		return nil, fmt.Errorf("page %d out of range (1-%d)", page, s.doc.NumPage())
	}
	text, err := s.doc.Text(page - 1)
	if err != nil {
		return nil, fmt.Errorf("failed to read text of page %d: %w", page, err)
	}
	return splitLines(text), nil
}

// Tables is always empty: MuPDF plain text carries no geometry.
func (s *fitzSource) Tables(int) ([]Table, error) {
	return nil, nil
}

func (s *fitzSource) Close() error {
	return s.doc.Close()
}

func splitLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
