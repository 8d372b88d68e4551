package packinglist

import (
	"regexp"
	"strings"
)

// joinRule removes the whitespace between the two capture groups of pattern
// when the guards around the match allow it.
type joinRule struct {
	pattern *regexp.Regexp
	// guarded requires group 1 to be a lone digit (not preceded by a digit,
	// '.' or ',') and the joined number not to run on into another digit.
	guarded bool
}

// Order matters: later rules expect thousands separators already rejoined.
var joinRules = []joinRule{
	{pattern: regexp.MustCompile(`(\d)\s+(,\d)`)},
	{pattern: regexp.MustCompile(`(\d)\s+(\d{1,3}(?:,\d{3})+\.\d+)`), guarded: true},
	{pattern: regexp.MustCompile(`(\d)\s+(\d{2}\.\d{2,4})`), guarded: true},
	{pattern: regexp.MustCompile(`(\d)\s+(\d\.\d+)`), guarded: true},
	{pattern: regexp.MustCompile(`(\d)\s+(\.\d)`)},
}

// maxPasses bounds the repeated rule passes; every pass shortens the line,
// so real input settles in two or three.
const maxPasses = 8

var nbspReplacer = strings.NewReplacer("\u00a0", " ", "\u202f", " ", "\u2007", " ")

// Normalize collapses whitespace and repairs numbers that the PDF text layer
// split apart, e.g. "1 ,140.48" -> "1,140.48" and "5 47.20" -> "547.20".
// The rules are applied until the line stops changing, so a join made by a
// later rule can enable an earlier one: "1 2 0.80" becomes "120.80".
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(line string) string {
	s := collapse(nbspReplacer.Replace(line))
	for pass := 0; pass < maxPasses; pass++ {
		next := s
		for _, rule := range joinRules {
			next = rule.apply(next)
		}
		next = collapse(next)
		if next == s {
			return s
		}
		s = next
	}
	return s
}

func (r joinRule) apply(s string) string {
	matches := r.pattern.FindAllStringSubmatchIndex(s, -1)
	if matches == nil {
		return s
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if !r.allowed(s, start, end) {
			continue
		}
		b.WriteString(s[last:start])
		b.WriteString(s[m[2]:m[3]])
		b.WriteString(s[m[4]:m[5]])
		last = end
	}
	b.WriteString(s[last:])
	return b.String()
}

func (r joinRule) allowed(s string, start, end int) bool {
	if !r.guarded {
		return true
	}
	if start > 0 {
		switch prev := s[start-1]; {
		case isDigit(prev), prev == '.', prev == ',':
			return false
		}
	}
	return end == len(s) || !isDigit(s[end])
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
