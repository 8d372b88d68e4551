// Package payload decodes the JSON documents that drive template generation.
//
// A payload is either a hand-written document or the JSON printed by
// `packlist extract`, enriched with dangerous-goods and pre-advice fields.
// Documents are checked against an embedded JSON schema before decoding.
package payload

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	pdferrors "github.com/a3tai/packlist/internal/pdf/errors"
)

//go:embed schema/payload.json
var schemaJSON []byte

const schemaURL = "payload.json"

// Item is one line item with its dangerous-goods attributes.
type Item struct {
	Description        Text `json:"description"`
	Quantity           Text `json:"qty"`
	BoxCount           Text `json:"noOfBoxes"`
	NetWeight          Text `json:"netWeight"`
	GrossWeight        Text `json:"grossWeight"`
	FileName           Text `json:"fileName"`
	HSCode             Text `json:"hsCode"`
	DGStatus           Text `json:"dgStatus"`
	UNNumber           Text `json:"unNumber"`
	ClassNumber        Text `json:"classNumber"`
	PackingGroup       Text `json:"packingGroup"`
	FlashPoint         Text `json:"flashPoint"`
	ProperShippingName Text `json:"properShippingName"`
	TechnicalName      Text `json:"technicalName"`
	EMS                Text `json:"ems"`
	MarinePollutant    Text `json:"marinePollutant"`
	InnerType          Text `json:"innerType"`
	OuterType          Text `json:"outerType"`
}

// IsDG reports whether the item is flagged as dangerous goods.
func (it Item) IsDG() bool {
	switch it.DGStatus.Upper() {
	case "DG", "YES", "Y", "TRUE":
		return true
	}
	return false
}

// Payload is the input to the DG declaration and pre-advice generators.
type Payload struct {
	Items             []Item `json:"items"`
	FirstPort         Text   `json:"firstPort"`
	SecondPort        Text   `json:"secondPort"`
	BookingNumber     Text   `json:"bookingNumber"`
	VesselVoyage      Text   `json:"vesselVoyage"`
	ContainerSizeType Text   `json:"containerSizeType"`
	ContainerNumbers  Text   `json:"containerNumbers"`
	SealNumbers       Text   `json:"sealNumbers"`
	TareWeightKgs     Text   `json:"tareWeightKgs"`
	Trucker           Text   `json:"trucker"`
	PlateNumber       Text   `json:"plateNumber"`
	CargoWeightKgs    Text   `json:"cargoWeightKgs"`
	UNNOIMOClass      Text   `json:"unnoImoClass"`
}

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile(schemaURL)
})

// Load reads and parses the payload file at path.
func Load(path string) (*Payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pdferrors.Wrap(pdferrors.ErrorTypeInput, "cannot read payload", err).WithFile(path)
	}
	p, err := Parse(data)
	if err != nil {
		if e, ok := err.(*pdferrors.ExtractError); ok {
			return nil, e.WithFile(path)
		}
		return nil, err
	}
	return p, nil
}

// Parse validates data against the payload schema and decodes it.
func Parse(data []byte) (*Payload, error) {
	schema, err := compileSchema()
	if err != nil {
		return nil, pdferrors.Wrap(pdferrors.ErrorTypeUnexpected, "compile payload schema", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, pdferrors.Wrap(pdferrors.ErrorTypePayload, "payload is not valid JSON", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, pdferrors.Wrap(pdferrors.ErrorTypePayload, "payload does not match schema", err)
	}

	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, pdferrors.Wrap(pdferrors.ErrorTypePayload, "decode payload", err)
	}
	return &p, nil
}

// PickItem returns the first dangerous-goods item, else the first item, else
// an empty item.
func PickItem(items []Item) Item {
	for _, it := range items {
		if it.IsDG() {
			return it
		}
	}
	if len(items) > 0 {
		return items[0]
	}
	return Item{}
}

// CargoWeight is the explicit cargoWeightKgs when it holds a number,
// otherwise the sum of the items' gross weights.
func CargoWeight(p *Payload) float64 {
	if v, ok := p.CargoWeightKgs.Kgs(); ok {
		return v
	}
	var total float64
	for _, it := range p.Items {
		if v, ok := it.GrossWeight.Kgs(); ok {
			total += v
		}
	}
	return total
}

// UNClassList summarises the UN numbers and classes of the dangerous-goods
// items, e.g. "UN: UN1993, UN1263 | Class: 3, 8". Duplicates are dropped and
// first-seen order is kept.
func UNClassList(items []Item) string {
	var uns, classes []string
	seenUN := make(map[string]bool)
	seenClass := make(map[string]bool)

	for _, it := range items {
		if !it.IsDG() {
			continue
		}
		un := strings.Join(strings.Fields(it.UNNumber.Upper()), "")
		if un != "" && !strings.HasPrefix(un, "UN") {
			un = "UN" + un
		}
		if un != "" && !seenUN[un] {
			seenUN[un] = true
			uns = append(uns, un)
		}
		class := strings.Join(strings.Fields(it.ClassNumber.Upper()), "")
		if class != "" && !seenClass[class] {
			seenClass[class] = true
			classes = append(classes, class)
		}
	}

	unText := strings.Join(uns, ", ")
	classText := strings.Join(classes, ", ")
	switch {
	case unText != "" && classText != "":
		return "UN: " + unText + " | Class: " + classText
	case unText != "":
		return "UN: " + unText
	case classText != "":
		return "Class: " + classText
	}
	return ""
}
