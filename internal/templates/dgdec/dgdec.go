// Package dgdec fills the dangerous-goods declaration spreadsheet template.
//
// The template layout is fixed: every value goes to a known cell address on
// the form sheet. Nothing is located by label search.
package dgdec

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/a3tai/packlist/internal/payload"
	pdferrors "github.com/a3tai/packlist/internal/pdf/errors"
)

// DefaultSheet is the worksheet filled when the template has it.
const DefaultSheet = "DG Form"

// DateLayout is the declaration date format, written upper-cased.
const DateLayout = "January 02, 2006"

// PackingCode is printed in both packing code boxes.
const PackingCode = "4G"

// Field is one cell assignment.
type Field struct {
	Cell  string
	Value string
}

// Fields lists the cell assignments for it, in form order.
func Fields(it payload.Item, now time.Time) []Field {
	return []Field{
		{"D25", it.Description.Upper()},
		{"G9", strings.ToUpper(now.Format(DateLayout))},
		{"F26", it.UNNumber.Upper()},
		{"F27", it.ClassNumber.Upper()},
		{"F28", it.PackingGroup.Upper()},
		{"F29", it.FlashPoint.Upper()},
		{"F30", it.OuterType.Upper()},
		{"F31", PackingCode},
		{"F33", it.InnerType.Upper()},
		{"F35", it.TechnicalName.Upper()},
		{"F36", it.ProperShippingName.Upper()},
		{"F37", "N/A"},
		{"F38", it.MarinePollutant.Upper()},
		{"F39", it.EMS.Upper()},
		{"G47", PackingCode},
		{"H27", it.GrossWeight.Upper()},
		{"H28", it.NetWeight.Upper()},
		{"B47", it.ClassNumber.Upper()},
		{"D47", it.UNNumber.Upper()},
		{"E47", it.PackingGroup.Upper()},
		{"F47", it.FlashPoint.Upper()},
	}
}

type options struct {
	sheet string
}

// Option customises Generate.
type Option func(*options)

// WithSheet selects the worksheet to fill. The active sheet is used when the
// template has no sheet of that name.
func WithSheet(name string) Option {
	return func(o *options) {
		if name != "" {
			o.sheet = name
		}
	}
}

// Generate fills the template with the item picked from p and saves the
// workbook to out, creating its directory.
func Generate(template, out string, p *payload.Payload, now time.Time, opts ...Option) error {
	o := options{sheet: DefaultSheet}
	for _, opt := range opts {
		opt(&o)
	}

	f, err := excelize.OpenFile(template)
	if err != nil {
		return pdferrors.Wrap(pdferrors.ErrorTypeTemplate, "failed to open template", err).WithFile(template)
	}
	defer f.Close()

	sheet := resolveSheet(f, o.sheet)
	if sheet == "" {
		return pdferrors.New(pdferrors.ErrorTypeTemplate, "template has no worksheet").WithFile(template)
	}

	it := payload.PickItem(p.Items)
	for _, fld := range Fields(it, now) {
		if err := f.SetCellStr(sheet, fld.Cell, fld.Value); err != nil {
			return pdferrors.Wrap(pdferrors.ErrorTypeTemplate, fmt.Sprintf("failed to set %s!%s", sheet, fld.Cell), err)
		}
	}

	if dir := filepath.Dir(out); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return pdferrors.Wrap(pdferrors.ErrorTypeUnexpected, "failed to create output directory", err).WithFile(out)
		}
	}
	if err := f.SaveAs(out); err != nil {
		return pdferrors.Wrap(pdferrors.ErrorTypeUnexpected, "failed to save workbook", err).WithFile(out)
	}
	return nil
}

func resolveSheet(f *excelize.File, want string) string {
	if idx, err := f.GetSheetIndex(want); err == nil && idx != -1 {
		return want
	}
	return f.GetSheetName(f.GetActiveSheetIndex())
}
