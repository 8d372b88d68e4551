package packinglist

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// lineWeightPattern finds printed weights inside a line, also when glued to
// letters as in "1,140.48KG" or "N:1,140.48". Boundaries are checked by hand.
var lineWeightPattern = regexp.MustCompile(`(?:\d{1,3}(?:,\d{3})+|\d+)\.\d{2,4}`)

// Status is the outcome of parsing one line.
type Status int

const (
	NotItem Status = iota
	Complete
	// NeedsWeights marks an item whose weights live in a separate cell.
	NeedsWeights
)

func (s Status) String() string {
	switch s {
	case Complete:
		return "complete"
	case NeedsWeights:
		return "needs_weights"
	default:
		return "not_item"
	}
}

// Parser turns a single text line into an Item according to a Profile.
// A Parser holds no per-document state and may be shared.
type Parser struct {
	profile Profile
	units   Vocabulary
}

// NewParser creates a parser for profile.
func NewParser(profile Profile) *Parser {
	return &Parser{
		profile: profile,
		units:   NewVocabulary(profile.Units),
	}
}

// Profile returns the parser's profile.
func (p *Parser) Profile() Profile {
	return p.profile
}

// Parse normalizes raw and looks for the anchor triple. The returned Item has
// no FileName; the caller attaches it.
func (p *Parser) Parse(raw string) (Item, Status) {
	line := Normalize(raw)
	tokens := Tokenize(line, p.units)
	if len(tokens) < p.profile.MinTokens {
		return Item{}, NotItem
	}

	low := strings.ToLower(line)
	for _, prefix := range p.profile.HeaderPrefixes {
		if strings.HasPrefix(low, prefix) {
			return Item{}, NotItem
		}
	}

	for i := 1; i+2 < len(tokens); i++ {
		boxes, qty, ok := p.anchorAt(tokens, i)
		if !ok {
			continue
		}

		desc := p.description(tokens[:i])
		if utf8.RuneCountInString(desc) < p.profile.MinDescription {
			continue
		}

		item := Item{Description: desc, Quantity: qty, BoxCount: boxes}
		net, gross, found := p.weights(line, tokens, i+3)
		if found {
			item.setWeights(net, gross)
			return item, Complete
		}
		if p.profile.DeferWeights {
			return item, NeedsWeights
		}
		return Item{}, NotItem
	}

	return Item{}, NotItem
}

func (p *Parser) anchorAt(tokens []Token, i int) (boxes, qty int, ok bool) {
	a, b, c := tokens[i], tokens[i+1], tokens[i+2]
	switch p.profile.Anchor {
	case AnchorQtyUnitBoxes:
		if !p.isUnit(b) {
			return 0, 0, false
		}
		q, okQ := a.Int()
		n, okN := c.Int()
		return n, q, okQ && okN
	default:
		if !p.isUnit(c) {
			return 0, 0, false
		}
		n, okN := a.Int()
		q, okQ := b.Int()
		return n, q, okN && okQ
	}
}

func (p *Parser) isUnit(t Token) bool {
	if p.profile.StrictUnits {
		return t.Kind == KindUnit
	}
	return t.IsAlpha()
}

func (p *Parser) description(tokens []Token) string {
	if p.profile.StripNumericTail {
		for len(tokens) > 0 && tokens[len(tokens)-1].IsNumeric() {
			tokens = tokens[:len(tokens)-1]
		}
	}
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.Text
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// weights returns the last two candidate values. rest is the index of the
// first token after the anchor.
func (p *Parser) weights(line string, tokens []Token, rest int) (net, gross float64, ok bool) {
	var values []float64
	switch p.profile.WeightScope {
	case WeightsWholeLine:
		values = lineWeights(line)
	default:
		for _, t := range tokens[rest:] {
			if v, ok := t.Number(); ok {
				values = append(values, v)
			}
		}
	}

	if len(values) < 2 {
		return 0, 0, false
	}
	return values[len(values)-2], values[len(values)-1], true
}

// lineWeights returns every weight decimal of line in order. A match must
// not continue a number on either side.
func lineWeights(line string) []float64 {
	var values []float64
	for _, m := range lineWeightPattern.FindAllStringIndex(line, -1) {
		start, end := m[0], m[1]
		if start > 0 {
			if prev := line[start-1]; isDigit(prev) || prev == '.' || prev == ',' {
				continue
			}
		}
		if end < len(line) && isDigit(line[end]) {
			continue
		}
		text := line[start:end]
		tok := Token{Text: text, Kind: Classify(text, nil)}
		if !tok.IsWeightDecimal() {
			continue
		}
		if v, ok := tok.Number(); ok {
			values = append(values, v)
		}
	}
	return values
}
