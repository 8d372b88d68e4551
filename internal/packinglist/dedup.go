package packinglist

import "strconv"

type itemKey struct {
	description string
	qty, boxes  int
	net, gross  string
}

func weightKey(w *float64) string {
	if w == nil {
		return "null"
	}
	return strconv.FormatFloat(*w, 'g', -1, 64)
}

// Dedupe drops items equal to an earlier one on description, quantity, box
// count and both weights. Order of first occurrence is kept.
func Dedupe(items []Item) []Item {
	seen := make(map[itemKey]struct{}, len(items))
	out := make([]Item, 0, len(items))
	for _, it := range items {
		k := itemKey{
			description: it.Description,
			qty:         it.Quantity,
			boxes:       it.BoxCount,
			net:         weightKey(it.NetWeight),
			gross:       weightKey(it.GrossWeight),
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}
