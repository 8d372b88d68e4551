package packinglist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	units := NewVocabulary(DefaultUnits)
	tests := []struct {
		text string
		want Kind
	}{
		{"36", KindInteger},
		{"1,200", KindInteger},
		{"1200", KindInteger},
		{"1,140.48", KindDecimal},
		{"-3.5", KindDecimal},
		{"-3", KindDecimal},
		{"12,34", KindOther},
		{"PAIL", KindUnit},
		{"Pcs", KindUnit},
		{"DRUM", KindWord},
		{"20KG", KindOther},
		{"WATER-TITE", KindOther},
		{"", KindOther},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text, units))
		})
	}
}

func TestTokenValues(t *testing.T) {
	units := NewVocabulary(DefaultUnits)

	n, ok := Token{Text: "1,140.48", Kind: Classify("1,140.48", units)}.Number()
	assert.True(t, ok)
	assert.InDelta(t, 1140.48, n, 1e-9)

	i, ok := Token{Text: "1,200", Kind: KindInteger}.Int()
	assert.True(t, ok)
	assert.Equal(t, 1200, i)

	_, ok = Token{Text: "1.5", Kind: KindDecimal}.Int()
	assert.False(t, ok)

	big := "12345678901234567890"
	require.Equal(t, KindInteger, Classify(big, units))
	_, ok = Token{Text: big, Kind: KindInteger}.Int()
	assert.False(t, ok)

	_, ok = Token{Text: "PAIL", Kind: KindUnit}.Number()
	assert.False(t, ok)
}

func TestIsWeightDecimal(t *testing.T) {
	for text, want := range map[string]bool{
		"547.20":      true,
		"1,140.48":    true,
		"19,872.0000": true,
		"0.80":        true,
		"12.5":        false,
		"12.34567":    false,
		"1200":        false,
		"-1.00":       false,
		"12,34.00":    false,
	} {
		assert.Equal(t, want, Token{Text: text}.IsWeightDecimal(), text)
	}
}

func TestTokenize(t *testing.T) {
	tokens := Tokenize("36 72 PAIL 1,140.48", NewVocabulary(DefaultUnits))
	kinds := make([]Kind, len(tokens))
	for i, tok := range tokens {
		kinds[i] = tok.Kind
	}
	assert.Equal(t, []Kind{KindInteger, KindInteger, KindUnit, KindDecimal}, kinds)
	assert.Empty(t, Tokenize("   ", nil))
}
