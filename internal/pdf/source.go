package pdf

import (
	"fmt"
	"strings"
)

// Engine selects the library used to read page content.
type Engine string

const (
	// EngineLedongthuc reads positioned glyphs and drawn rectangles, so it
	// can detect ruled tables.
	EngineLedongthuc Engine = "ledongthuc"
	// EngineFitz uses MuPDF plain text. It yields no tables.
	EngineFitz Engine = "fitz"
)

// Engines lists the accepted engine names.
var Engines = []Engine{EngineLedongthuc, EngineFitz}

// ParseEngine validates an engine name.
func ParseEngine(name string) (Engine, error) {
	for _, e := range Engines {
		if strings.EqualFold(name, string(e)) {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown engine %q (expected one of %v)", name, Engines)
}

// Source gives page-by-page access to the text of an open document.
// Pages are numbered from 1.
type Source interface {
	Pages() int
	Lines(page int) ([]string, error)
	Tables(page int) ([]Table, error)
	Close() error
}

// Open opens path with the given engine. The caller must Close the source.
func Open(path string, engine Engine) (Source, error) {
	switch engine {
	case EngineFitz:
		return openFitz(path)
	case EngineLedongthuc, "":
		return openLedongthuc(path)
	default:
		return nil, fmt.Errorf("unknown engine %q", engine)
	}
}
