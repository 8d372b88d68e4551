// Package preadvise fills the pre-advice notice word template.
//
// Placeholders are written as {{TOKEN}} in the template. A placeholder is
// replaced only where it sits intact inside one text run; Word sometimes
// splits typed text over several runs, and such a placeholder is left as is.
package preadvise

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nguyenthenguyen/docx"

	"github.com/a3tai/packlist/internal/payload"
	pdferrors "github.com/a3tai/packlist/internal/pdf/errors"
)

// DateLayout is the delivery date format, written upper-cased.
const DateLayout = "January 02, 2006"

// Placeholder tokens, in template order.
const (
	TokenDateOfDelivery    = "{{DATE_OF_DELIVERY}}"
	TokenFirstPort         = "{{FIRST_PORT}}"
	TokenSecondPort        = "{{SECOND_PORT}}"
	TokenBookingNumber     = "{{BOOKING_NUMBER}}"
	TokenVesselVoyage      = "{{VESSEL_VOYAGE}}"
	TokenContainerSizeType = "{{CONTAINER_SIZE_TYPE}}"
	TokenContainerNumbers  = "{{CONTAINER_NUMBERS}}"
	TokenSealNumbers       = "{{SEAL_NUMBERS}}"
	TokenTareWeightKgs     = "{{TARE_WEIGHT_KGS}}"
	TokenTrucker           = "{{TRUCKER}}"
	TokenPlateNumber       = "{{PLATE_NUMBER}}"
	TokenCargoWeightKgs    = "{{CARGO_WEIGHT_KGS}}"
	TokenUNNOIMOClass      = "{{UNNO_IMO_CLASS}}"
)

// Replacement maps one placeholder to its value.
type Replacement struct {
	Token string
	Value string
}

// Replacements builds the placeholder values for p. The UN/class line falls
// back to the list derived from the dangerous-goods items.
func Replacements(p *payload.Payload, now time.Time) []Replacement {
	unClass := p.UNNOIMOClass.String()
	if p.UNNOIMOClass.Empty() {
		unClass = payload.UNClassList(p.Items)
	}
	return []Replacement{
		{TokenDateOfDelivery, strings.ToUpper(now.Format(DateLayout))},
		{TokenFirstPort, p.FirstPort.String()},
		{TokenSecondPort, p.SecondPort.String()},
		{TokenBookingNumber, p.BookingNumber.String()},
		{TokenVesselVoyage, p.VesselVoyage.String()},
		{TokenContainerSizeType, p.ContainerSizeType.String()},
		{TokenContainerNumbers, p.ContainerNumbers.String()},
		{TokenSealNumbers, p.SealNumbers.String()},
		{TokenTareWeightKgs, p.TareWeightKgs.String()},
		{TokenTrucker, p.Trucker.String()},
		{TokenPlateNumber, p.PlateNumber.String()},
		{TokenCargoWeightKgs, fmt.Sprintf("%.2f", payload.CargoWeight(p))},
		{TokenUNNOIMOClass, unClass},
	}
}

// Report describes a generated document.
type Report struct {
	Output string `json:"output"`
	// Unmatched lists placeholders that were not found intact in the
	// document body. Tokens living only in a header or footer are listed
	// too, although they are still replaced there.
	Unmatched []string `json:"unmatched,omitempty"`
}

// Generate fills template with p and writes the document to out, creating
// its directory.
func Generate(template, out string, p *payload.Payload, now time.Time) (*Report, error) {
	src, err := docx.ReadDocxFile(template)
	if err != nil {
		return nil, pdferrors.Wrap(pdferrors.ErrorTypeTemplate, "failed to open template", err).WithFile(template)
	}
	defer src.Close()

	doc := src.Editable()
	body := doc.GetContent()
	report := &Report{Output: out}

	for _, r := range Replacements(p, now) {
		if !strings.Contains(body, r.Token) {
			report.Unmatched = append(report.Unmatched, r.Token)
		}
		if err := doc.Replace(r.Token, r.Value, -1); err != nil {
			return nil, pdferrors.Wrap(pdferrors.ErrorTypeTemplate, "failed to replace "+r.Token, err)
		}
		if err := doc.ReplaceHeader(r.Token, r.Value); err != nil {
			return nil, pdferrors.Wrap(pdferrors.ErrorTypeTemplate, "failed to replace header "+r.Token, err)
		}
		if err := doc.ReplaceFooter(r.Token, r.Value); err != nil {
			return nil, pdferrors.Wrap(pdferrors.ErrorTypeTemplate, "failed to replace footer "+r.Token, err)
		}
	}

	if dir := filepath.Dir(out); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, pdferrors.Wrap(pdferrors.ErrorTypeUnexpected, "failed to create output directory", err).WithFile(out)
		}
	}
	if err := doc.WriteToFile(out); err != nil {
		return nil, pdferrors.Wrap(pdferrors.ErrorTypeUnexpected, "failed to write document", err).WithFile(out)
	}
	return report, nil
}
