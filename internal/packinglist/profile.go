package packinglist

// AnchorOrder is the token order of the anchor triple.
type AnchorOrder int

const (
	// AnchorBoxesQtyUnit matches "<boxes> <qty> <unit>", as printed in item tables.
	AnchorBoxesQtyUnit AnchorOrder = iota
	// AnchorQtyUnitBoxes matches "<qty> <unit> <boxes>", as seen in flattened page text.
	AnchorQtyUnitBoxes
)

func (a AnchorOrder) String() string {
	if a == AnchorQtyUnitBoxes {
		return "qty-unit-boxes"
	}
	return "boxes-qty-unit"
}

// WeightScope is where the parser looks for the net and gross weights.
type WeightScope int

const (
	// WeightsAfterAnchor takes the last two numeric tokens after the anchor.
	WeightsAfterAnchor WeightScope = iota
	// WeightsWholeLine takes the last two weight decimals anywhere on the line.
	WeightsWholeLine
)

// Profile captures everything that differs between the table and full-text
// parsing strategies.
type Profile struct {
	Name        string
	Anchor      AnchorOrder
	MinTokens   int
	StrictUnits bool
	Units       []string
	WeightScope WeightScope
	// DeferWeights returns items without inline weights as pending instead of
	// rejecting them.
	DeferWeights bool
	// StripNumericTail drops pure-number tokens from the end of the
	// description (stray item codes in flattened text).
	StripNumericTail bool
	HeaderPrefixes   []string
	MinDescription   int
}

var defaultHeaderPrefixes = []string{"description", "qty", "total"}

// TableProfile parses the description column of a detected item table.
func TableProfile() Profile {
	return Profile{
		Name:           "table",
		Anchor:         AnchorBoxesQtyUnit,
		MinTokens:      7,
		Units:          DefaultUnits,
		WeightScope:    WeightsAfterAnchor,
		DeferWeights:   true,
		HeaderPrefixes: defaultHeaderPrefixes,
		MinDescription: 3,
	}
}

// FullTextProfile parses lines of flattened page text. It is stricter since
// column boundaries are lost.
func FullTextProfile() Profile {
	return Profile{
		Name:             "text",
		Anchor:           AnchorQtyUnitBoxes,
		MinTokens:        8,
		StrictUnits:      true,
		Units:            DefaultUnits,
		WeightScope:      WeightsWholeLine,
		StripNumericTail: true,
		HeaderPrefixes:   defaultHeaderPrefixes,
		MinDescription:   3,
	}
}
