package packinglist

// Item is one parsed packing-list line.
type Item struct {
	Description string   `json:"description"`
	Quantity    int      `json:"qty"`
	BoxCount    int      `json:"noOfBoxes"`
	NetWeight   *float64 `json:"netWeight"`
	GrossWeight *float64 `json:"grossWeight"`
	FileName    string   `json:"fileName"`
}

// Complete reports whether both weights are known.
func (it Item) Complete() bool {
	return it.NetWeight != nil && it.GrossWeight != nil
}

// setWeights fills the weights that are still missing; known values are kept.
func (it *Item) setWeights(net, gross float64) {
	if it.NetWeight == nil {
		it.NetWeight = &net
	}
	if it.GrossWeight == nil {
		it.GrossWeight = &gross
	}
}
