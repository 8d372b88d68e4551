package pdf

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// Glyph is one positioned character of a page. Y grows upwards.
type Glyph struct {
	X, Y, W float64
	Size    float64
	S       string
}

// Rect is a filled or stroked rectangle drawn on a page.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// Table is a detected grid of text cells, top row first. Lines inside a
// cell are joined with "\n"; cells covered by a merged neighbour are empty.
type Table [][]string

// Cell returns the trimmed text of a cell, or "" when out of range.
func (t Table) Cell(row, col int) string {
	if row < 0 || row >= len(t) || col < 0 || col >= len(t[row]) {
		return ""
	}
	return strings.TrimSpace(t[row][col])
}

const (
	wordGapRatio  = 0.2
	lineTolRatio  = 0.5
	snapTolerance = 3.0
	ruleThickness = 2.0
	minTableRows  = 2
)

type word struct {
	x0, x1 float64
	y      float64
	size   float64
	text   string
}

func (w word) centre() (float64, float64) {
	return (w.x0 + w.x1) / 2, w.y + w.size*0.3
}

func lineTolerance(size float64) float64 {
	return math.Max(size*lineTolRatio, 1.5)
}

// buildWords groups glyphs into baseline rows and merges neighbours into
// words. A whitespace glyph or a gap wider than a fraction of the font size
// ends a word.
func buildWords(glyphs []Glyph) []word {
	sorted := make([]Glyph, 0, len(glyphs))
	for _, g := range glyphs {
		if g.S != "" {
			sorted = append(sorted, g)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Y > sorted[j].Y
	})

	var words []word
	for start := 0; start < len(sorted); {
		end := start + 1
		for end < len(sorted) && math.Abs(sorted[end].Y-sorted[start].Y) <= lineTolerance(sorted[start].Size) {
			end++
		}
		row := sorted[start:end]
		sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })
		words = append(words, mergeRow(row)...)
		start = end
	}
	return words
}

func mergeRow(row []Glyph) []word {
	var (
		words []word
		cur   *word
		b     strings.Builder
	)
	flush := func() {
		if cur != nil && b.Len() > 0 {
			cur.text = b.String()
			words = append(words, *cur)
		}
		cur = nil
		b.Reset()
	}

	for _, g := range row {
		if strings.TrimFunc(g.S, unicode.IsSpace) == "" {
			flush()
			continue
		}
		if cur != nil && g.X-cur.x1 > wordGapRatio*math.Max(g.Size, cur.size) {
			flush()
		}
		if cur == nil {
			cur = &word{x0: g.X, x1: g.X + g.W, y: g.Y, size: g.Size}
		}
		b.WriteString(g.S)
		cur.x1 = math.Max(cur.x1, g.X+g.W)
		cur.size = math.Max(cur.size, g.Size)
	}
	flush()
	return words
}

// textLines orders words top to bottom, left to right and joins each
// baseline row with single spaces.
func textLines(words []word) []string {
	sorted := append([]word(nil), words...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].y > sorted[j].y })

	var lines []string
	for start := 0; start < len(sorted); {
		end := start + 1
		for end < len(sorted) && math.Abs(sorted[end].y-sorted[start].y) <= lineTolerance(sorted[start].size) {
			end++
		}
		row := sorted[start:end]
		sort.SliceStable(row, func(i, j int) bool { return row[i].x0 < row[j].x0 })
		parts := make([]string, len(row))
		for i, w := range row {
			parts[i] = w.text
		}
		lines = append(lines, strings.Join(parts, " "))
		start = end
	}
	return lines
}

// segment is a ruling line. For vertical segments pos is x and from/to span
// y; for horizontal ones pos is y and from/to span x.
type segment struct {
	vertical bool
	pos      float64
	from, to float64
}

func segmentsFromRects(rects []Rect) []segment {
	var segs []segment
	for _, r := range rects {
		x0, x1 := math.Min(r.X0, r.X1), math.Max(r.X0, r.X1)
		y0, y1 := math.Min(r.Y0, r.Y1), math.Max(r.Y0, r.Y1)
		w, h := x1-x0, y1-y0
		switch {
		case w <= ruleThickness && h <= ruleThickness:
			continue
		case w <= ruleThickness:
			segs = append(segs, segment{vertical: true, pos: (x0 + x1) / 2, from: y0, to: y1})
		case h <= ruleThickness:
			segs = append(segs, segment{pos: (y0 + y1) / 2, from: x0, to: x1})
		default:
			segs = append(segs,
				segment{pos: y0, from: x0, to: x1},
				segment{pos: y1, from: x0, to: x1},
				segment{vertical: true, pos: x0, from: y0, to: y1},
				segment{vertical: true, pos: x1, from: y0, to: y1},
			)
		}
	}
	return segs
}

func (s segment) touches(o segment) bool {
	if s.vertical == o.vertical {
		return math.Abs(s.pos-o.pos) <= snapTolerance &&
			s.from <= o.to+snapTolerance && o.from <= s.to+snapTolerance
	}
	return s.pos >= o.from-snapTolerance && s.pos <= o.to+snapTolerance &&
		o.pos >= s.from-snapTolerance && o.pos <= s.to+snapTolerance
}

// groupSegments splits segments into connected components.
func groupSegments(segs []segment) [][]segment {
	parent := make([]int, len(segs))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	for i := range segs {
		for j := i + 1; j < len(segs); j++ {
			if segs[i].touches(segs[j]) {
				parent[find(i)] = find(j)
			}
		}
	}

	index := map[int]int{}
	var groups [][]segment
	for i, s := range segs {
		root := find(i)
		g, ok := index[root]
		if !ok {
			g = len(groups)
			index[root] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], s)
	}
	return groups
}

// snap clusters positions closer than snapTolerance and returns the cluster
// means in ascending order.
func snap(values []float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var out []float64
	sum, n, prev := sorted[0], 1, sorted[0]
	for _, v := range sorted[1:] {
		if v-prev <= snapTolerance {
			sum += v
			n++
			prev = v
			continue
		}
		out = append(out, sum/float64(n))
		sum, n, prev = v, 1, v
	}
	return append(out, sum/float64(n))
}

type grid struct {
	xs   []float64 // ascending
	ys   []float64 // descending, top edge first
	segs []segment
}

func (g grid) rows() int { return len(g.ys) - 1 }
func (g grid) cols() int { return len(g.xs) - 1 }

// hasBoundary reports whether a vertical rule at xs[col] crosses height y.
func (g grid) hasBoundary(col int, y float64) bool {
	x := g.xs[col]
	for _, s := range g.segs {
		if s.vertical && math.Abs(s.pos-x) <= snapTolerance &&
			y >= s.from-snapTolerance && y <= s.to+snapTolerance {
			return true
		}
	}
	return false
}

// spans returns, for each column of row, the column its text belongs to
// after merging cells whose separating rule is missing.
func (g grid) spans(row int) []int {
	mid := (g.ys[row] + g.ys[row+1]) / 2
	owner := make([]int, g.cols())
	for c := range owner {
		if c > 0 && !g.hasBoundary(c, mid) {
			owner[c] = owner[c-1]
			continue
		}
		owner[c] = c
	}
	return owner
}

func (g grid) locate(x, y float64) (row, col int, ok bool) {
	row, col = -1, -1
	for r := 0; r < g.rows(); r++ {
		if y <= g.ys[r] && y > g.ys[r+1] {
			row = r
			break
		}
	}
	for c := 0; c < g.cols(); c++ {
		if x >= g.xs[c] && x < g.xs[c+1] {
			col = c
			break
		}
	}
	return row, col, row >= 0 && col >= 0
}

func detectGrids(rects []Rect) []grid {
	var grids []grid
	for _, group := range groupSegments(segmentsFromRects(rects)) {
		var xs, ys []float64
		for _, s := range group {
			if s.vertical {
				xs = append(xs, s.pos)
			} else {
				ys = append(ys, s.pos)
			}
		}
		g := grid{xs: snap(xs), ys: snap(ys), segs: group}
		if len(g.xs) < 2 || len(g.ys) < 2 {
			continue
		}
		sort.Sort(sort.Reverse(sort.Float64Slice(g.ys)))
		if g.rows() < minTableRows {
			continue
		}
		grids = append(grids, g)
	}
	sort.SliceStable(grids, func(i, j int) bool { return grids[i].ys[0] > grids[j].ys[0] })
	return grids
}

// detectTables finds ruled grids among rects and fills their cells with the
// words whose centre falls inside them.
func detectTables(glyphs []Glyph, rects []Rect) []Table {
	grids := detectGrids(rects)
	if len(grids) == 0 {
		return nil
	}
	words := buildWords(glyphs)

	tables := make([]Table, 0, len(grids))
	for _, g := range grids {
		owners := make([][]int, g.rows())
		cells := make([][][]word, g.rows())
		for r := range cells {
			owners[r] = g.spans(r)
			cells[r] = make([][]word, g.cols())
		}
		for _, w := range words {
			r, c, ok := g.locate(w.centre())
			if !ok {
				continue
			}
			c = owners[r][c]
			cells[r][c] = append(cells[r][c], w)
		}

		table := make(Table, g.rows())
		for r := range cells {
			table[r] = make([]string, g.cols())
			for c, ws := range cells[r] {
				table[r][c] = strings.Join(textLines(ws), "\n")
			}
		}
		tables = append(tables, table)
	}
	return tables
}
