package packinglist

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Kind classifies a whitespace-separated token of a normalized line.
type Kind int

const (
	KindOther Kind = iota
	KindInteger
	KindDecimal
	KindWord
	KindUnit
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindDecimal:
		return "decimal"
	case KindWord:
		return "word"
	case KindUnit:
		return "unit"
	default:
		return "other"
	}
}

var (
	integerPattern       = regexp.MustCompile(`^(?:\d{1,3}(?:,\d{3})*|\d+)$`)
	numberPattern        = regexp.MustCompile(`^-?(?:\d{1,3}(?:,\d{3})*|\d+)(?:\.\d+)?$`)
	weightDecimalPattern = regexp.MustCompile(`^(?:\d{1,3}(?:,\d{3})+|\d+)\.\d{2,4}$`)
)

// DefaultUnits is the unit vocabulary accepted by the strict full-text anchor.
var DefaultUnits = []string{"box", "boxes", "pc", "pcs", "set", "sets", "pail", "pouch", "bottle", "bag"}

// Token is one classified token.
type Token struct {
	Text string
	Kind Kind
}

// IsNumeric reports whether the token is an integer or a decimal.
func (t Token) IsNumeric() bool {
	return t.Kind == KindInteger || t.Kind == KindDecimal
}

// IsAlpha reports whether the token is made of letters only.
func (t Token) IsAlpha() bool {
	return t.Kind == KindWord || t.Kind == KindUnit
}

// IsWeightDecimal reports whether the token looks like a printed weight:
// unsigned, optional thousands grouping, 2 to 4 decimal places.
func (t Token) IsWeightDecimal() bool {
	return weightDecimalPattern.MatchString(t.Text)
}

// Number returns the numeric value with thousands separators removed.
func (t Token) Number() (float64, bool) {
	if !t.IsNumeric() {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(t.Text, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Int returns the value of an integer token. Integers beyond the int range
// are not counts and report false, so they never anchor a line.
func (t Token) Int() (int, bool) {
	if t.Kind != KindInteger {
		return 0, false
	}
	v, err := strconv.Atoi(strings.ReplaceAll(t.Text, ",", ""))
	if err != nil {
		return 0, false
	}
	return v, true
}

// Vocabulary is a case-insensitive set of unit words.
type Vocabulary map[string]struct{}

// NewVocabulary builds a Vocabulary from words.
func NewVocabulary(words []string) Vocabulary {
	v := make(Vocabulary, len(words))
	for _, w := range words {
		v[strings.ToLower(w)] = struct{}{}
	}
	return v
}

// Contains reports whether word is a known unit.
func (v Vocabulary) Contains(word string) bool {
	_, ok := v[strings.ToLower(word)]
	return ok
}

// Classify determines the Kind of a single token.
func Classify(text string, units Vocabulary) Kind {
	switch {
	case integerPattern.MatchString(text):
		return KindInteger
	case numberPattern.MatchString(text):
		return KindDecimal
	case isAlpha(text):
		if units.Contains(text) {
			return KindUnit
		}
		return KindWord
	default:
		return KindOther
	}
}

// Tokenize splits a normalized line on whitespace and classifies each token.
func Tokenize(line string, units Vocabulary) []Token {
	fields := strings.Fields(line)
	tokens := make([]Token, 0, len(fields))
	for _, f := range fields {
		tokens = append(tokens, Token{Text: f, Kind: Classify(f, units)})
	}
	return tokens
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
