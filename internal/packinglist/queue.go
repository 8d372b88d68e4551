package packinglist

// PendingQueue holds items waiting for weights from a separate weights cell.
// It belongs to a single extraction run; the zero value is ready to use.
type PendingQueue struct {
	items []Item
}

// Push appends an incomplete item.
func (q *PendingQueue) Push(it Item) {
	q.items = append(q.items, it)
}

// Len returns the number of items still waiting.
func (q *PendingQueue) Len() int {
	return len(q.items)
}

// Resolve reads (net, gross) pairs from cell and hands them to the oldest
// pending items. It returns the items completed, in completion order, and
// the number of pairs left over once the queue ran dry.
func (q *PendingQueue) Resolve(cell string) (resolved []Item, discarded int) {
	values := WeightValues(cell)
	for len(values) >= 2 && len(q.items) > 0 {
		it := q.items[0]
		q.items = q.items[1:]
		it.setWeights(values[0], values[1])
		values = values[2:]
		resolved = append(resolved, it)
	}
	return resolved, len(values) / 2
}

// Drain empties the queue and returns what was left in it.
func (q *PendingQueue) Drain() []Item {
	left := q.items
	q.items = nil
	return left
}

// WeightValues returns every numeric token of a normalized weights cell.
func WeightValues(cell string) []float64 {
	var values []float64
	for _, t := range Tokenize(Normalize(cell), nil) {
		if v, ok := t.Number(); ok {
			values = append(values, v)
		}
	}
	return values
}
