package packinglist

import (
	"encoding/json"

	pdferrors "github.com/a3tai/packlist/internal/pdf/errors"
)

// Diagnostics describes how a result was produced.
type Diagnostics struct {
	RunID           string   `json:"runId"`
	Mode            string   `json:"mode"`
	Engine          string   `json:"engine"`
	Pages           int      `json:"pages"`
	PDFVersion      string   `json:"pdfVersion,omitempty"`
	TablesFound     int      `json:"tablesFound"`
	LinesScanned    int      `json:"linesScanned"`
	UnresolvedItems int      `json:"unresolvedItems"`
	DiscardedPairs  int      `json:"discardedWeightPairs"`
	Fallback        bool     `json:"fallback"`
	Warnings        []string `json:"warnings,omitempty"`
}

// Result is the single output of an extraction run.
type Result struct {
	OK       bool         `json:"ok"`
	FileName string       `json:"fileName,omitempty"`
	Items    []Item       `json:"items"`
	Error    string       `json:"error,omitempty"`
	Debug    *Diagnostics `json:"debug,omitempty"`

	failure pdferrors.ErrorType
}

// MarshalJSON writes items and their count only for successful results,
// so failures serialize as {"ok":false,"error":...}.
func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result
	out := struct {
		plain
		Items *[]Item `json:"items,omitempty"`
		Count *int    `json:"numberOfItemsExtracted,omitempty"`
	}{plain: plain(r)}

	if r.OK {
		items := r.Items
		if items == nil {
			items = []Item{}
		}
		count := len(items)
		out.Items = &items
		out.Count = &count
	}
	return json.Marshal(out)
}

// Failure returns the error class of a failed result.
func (r *Result) Failure() (pdferrors.ErrorType, bool) {
	if r.OK {
		return pdferrors.ErrorTypeUnknown, false
	}
	return r.failure, true
}

// ExitCode is the process status a CLI should exit with for r.
func (r *Result) ExitCode() int {
	if t, failed := r.Failure(); failed {
		return t.ExitCode()
	}
	return 0
}

func success(fileName string, items []Item, diag *Diagnostics) *Result {
	return &Result{OK: true, FileName: fileName, Items: items, Debug: diag}
}

func failure(err error, diag *Diagnostics) *Result {
	t := pdferrors.TypeOf(err)
	if t == pdferrors.ErrorTypeUnknown {
		t = pdferrors.ErrorTypeUnexpected
	}
	return &Result{Error: pdferrors.Message(err), Debug: diag, failure: t}
}

// MissingArgument is the result reported when no document path was given.
func MissingArgument() *Result {
	return failure(pdferrors.New(pdferrors.ErrorTypeInput, "Missing PDF path argument"), nil)
}
