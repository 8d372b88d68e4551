package payload

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pdferrors "github.com/a3tai/packlist/internal/pdf/errors"
)

const samplePayload = `{
  "items": [
    {"description": "Primer Grey 5L", "qty": 20, "noOfBoxes": 10, "netWeight": 98.0, "grossWeight": "101.5 kgs", "dgStatus": "Non-DG"},
    {"description": "Thinner 20L", "qty": 4, "noOfBoxes": 4, "netWeight": null, "grossWeight": 84.25,
     "dgStatus": "dg", "unNumber": "1263", "classNumber": "3", "packingGroup": "II", "flashPoint": "23C"}
  ],
  "bookingNumber": "BKG123",
  "tareWeightKgs": 2200,
  "cargoWeightKgs": ""
}`

func TestParse(t *testing.T) {
	p, err := Parse([]byte(samplePayload))
	require.NoError(t, err)
	require.Len(t, p.Items, 2)

	assert.Equal(t, "Primer Grey 5L", p.Items[0].Description.String())
	assert.Equal(t, "98.0", p.Items[0].NetWeight.String())
	assert.True(t, p.Items[1].NetWeight.Empty())
	assert.Equal(t, "2200", p.TareWeightKgs.String())
	assert.Equal(t, "BKG123", p.BookingNumber.String())
}

func TestParseExtractResult(t *testing.T) {
	data := `{"ok":true,"fileName":"a.pdf","items":[{"description":"X","qty":1,"noOfBoxes":1,
	"netWeight":1.5,"grossWeight":2,"fileName":"a.pdf"}],"numberOfItemsExtracted":1,"debug":{"mode":"table"}}`

	p, err := Parse([]byte(data))
	require.NoError(t, err)
	require.Len(t, p.Items, 1)
	assert.Equal(t, "2", p.Items[0].GrossWeight.String())
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{"items": [`},
		{"not an object", `[1, 2]`},
		{"items not array", `{"items": "none"}`},
		{"item not object", `{"items": [3]}`},
		{"nested object field", `{"items": [{"unNumber": {"value": "1263"}}]}`},
		{"array field", `{"trucker": ["a"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.True(t, pdferrors.IsType(err, pdferrors.ErrorTypePayload))
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "payload.json")
	require.NoError(t, os.WriteFile(path, []byte(samplePayload), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, p.Items, 2)

	_, err = Load(filepath.Join(dir, "missing.json"))
	assert.True(t, pdferrors.IsType(err, pdferrors.ErrorTypeInput))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"items": 1}`), 0o644))
	_, err = Load(bad)
	var ee *pdferrors.ExtractError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, pdferrors.ErrorTypePayload, ee.Type)
	assert.Equal(t, bad, ee.FilePath)
}

func TestPickItem(t *testing.T) {
	nonDG := Item{Description: "A", DGStatus: "Non-DG"}
	dg := Item{Description: "B", DGStatus: " yes "}

	assert.Equal(t, dg, PickItem([]Item{nonDG, dg}))
	assert.Equal(t, nonDG, PickItem([]Item{nonDG}))
	assert.Equal(t, Item{}, PickItem(nil))
}

func TestIsDG(t *testing.T) {
	for _, s := range []Text{"DG", "dg", "Yes", "y", "TRUE", "true"} {
		assert.True(t, Item{DGStatus: s}.IsDG(), string(s))
	}
	for _, s := range []Text{"", "NO", "Non-DG", "N", "false"} {
		assert.False(t, Item{DGStatus: s}.IsDG(), string(s))
	}
}

func TestCargoWeight(t *testing.T) {
	p, err := Parse([]byte(samplePayload))
	require.NoError(t, err)
	assert.InDelta(t, 185.75, CargoWeight(p), 1e-9)

	p.CargoWeightKgs = "1,234.5 kgs"
	assert.InDelta(t, 1234.5, CargoWeight(p), 1e-9)

	assert.Zero(t, CargoWeight(&Payload{}))
}

func TestUNClassList(t *testing.T) {
	items := []Item{
		{DGStatus: "DG", UNNumber: "1993", ClassNumber: "3"},
		{DGStatus: "DG", UNNumber: "UN 1263", ClassNumber: "3"},
		{DGStatus: "Non-DG", UNNumber: "1760", ClassNumber: "8"},
		{DGStatus: "Y", UNNumber: "un1993", ClassNumber: "8"},
	}
	assert.Equal(t, "UN: UN1993, UN1263 | Class: 3, 8", UNClassList(items))

	assert.Equal(t, "UN: UN1993", UNClassList([]Item{{DGStatus: "DG", UNNumber: "1993"}}))
	assert.Equal(t, "Class: 9", UNClassList([]Item{{DGStatus: "DG", ClassNumber: "9"}}))
	assert.Equal(t, "", UNClassList(items[2:3]))
}

func TestTextKgs(t *testing.T) {
	tests := []struct {
		in   Text
		want float64
		ok   bool
	}{
		{"13.73 kgs", 13.73, true},
		{"1,250.00", 1250, true},
		{"-2", -2, true},
		{"84", 84, true},
		{"n/a", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := tt.in.Kgs()
		assert.Equal(t, tt.ok, ok, string(tt.in))
		assert.InDelta(t, tt.want, got, 1e-9, string(tt.in))
	}
}

func TestTextUnmarshal(t *testing.T) {
	var v struct {
		A, B, C, D Text
	}
	require.NoError(t, jsonUnmarshal(`{"A":"x ","B":13.0,"C":true,"D":null}`, &v))
	assert.Equal(t, "X", v.A.Upper())
	assert.Equal(t, "13.0", v.B.String())
	assert.Equal(t, "TRUE", v.C.Upper())
	assert.True(t, v.D.Empty())
}

func jsonUnmarshal(s string, v any) error {
	return json.Unmarshal([]byte(s), v)
}
