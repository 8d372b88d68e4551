package preadvise

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nguyenthenguyen/docx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/packlist/internal/payload"
	pdferrors "github.com/a3tai/packlist/internal/pdf/errors"
)

var fixedNow = time.Date(2025, time.November, 3, 9, 0, 0, 0, time.UTC)

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

func run(text string) string {
	return `<w:r><w:t>` + text + `</w:t></w:r>`
}

func para(runs ...string) string {
	return `<w:p>` + strings.Join(runs, "") + `</w:p>`
}

func writeDocx(t *testing.T, body, header string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "template.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	parts := map[string]string{
		"[Content_Types].xml":          `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`,
		"word/document.xml":            `<?xml version="1.0" encoding="UTF-8"?><w:document ` + wordNS + `><w:body>` + body + `</w:body></w:document>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
	}
	if header != "" {
		parts["word/header1.xml"] = `<?xml version="1.0" encoding="UTF-8"?><w:hdr ` + wordNS + `>` + header + `</w:hdr>`
	}

	zw := zip.NewWriter(f)
	for name, content := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = io.WriteString(w, content)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return path
}

func readPart(t *testing.T, path, name string) string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(b)
	}
	t.Fatalf("part %s not found", name)
	return ""
}

func TestGenerate(t *testing.T) {
	body := para(run("Date: "+TokenDateOfDelivery)) +
		para(run("Ports: "+TokenFirstPort+" / "+TokenSecondPort)) +
		`<w:tbl><w:tr><w:tc>` + para(run(TokenBookingNumber)) + `</w:tc><w:tc>` + para(run(TokenVesselVoyage)) + `</w:tc></w:tr></w:tbl>` +
		para(run("Cargo: "+TokenCargoWeightKgs+" kgs")) +
		para(run(TokenUNNOIMOClass)) +
		para(run("{{TRUC"), run("KER}}"))
	header := para(run("Trucker " + TokenTrucker))
	template := writeDocx(t, body, header)

	p, err := payload.Parse([]byte(`{
		"items": [
			{"dgStatus": "DG", "unNumber": "1263", "classNumber": "3", "grossWeight": "84.25 kgs"},
			{"dgStatus": "", "grossWeight": 10}
		],
		"firstPort": "Manila",
		"secondPort": "Cebu",
		"bookingNumber": "BKG-1",
		"vesselVoyage": "Ever Given & Co 12N",
		"trucker": "ACME Haulers"
	}`))
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "out", "preadvise.docx")
	report, err := Generate(template, out, p, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, out, report.Output)

	result, err := docx.ReadDocxFile(out)
	require.NoError(t, err)
	defer result.Close()
	content := result.Editable().GetContent()

	assert.Contains(t, content, "Date: NOVEMBER 03, 2025")
	assert.Contains(t, content, "Ports: Manila / Cebu")
	assert.Contains(t, content, run("BKG-1"))
	assert.Contains(t, content, "Ever Given &amp; Co 12N")
	assert.Contains(t, content, "Cargo: 94.25 kgs")
	assert.Contains(t, content, "UN: UN1263 | Class: 3")
	assert.Contains(t, content, run("{{TRUC")+run("KER}}"))

	assert.Contains(t, readPart(t, out, "word/header1.xml"), "Trucker ACME Haulers")

	assert.ElementsMatch(t, []string{
		TokenContainerSizeType, TokenContainerNumbers, TokenSealNumbers,
		TokenTareWeightKgs, TokenTrucker, TokenPlateNumber,
	}, report.Unmatched)
}

func TestReplacements(t *testing.T) {
	p := &payload.Payload{
		CargoWeightKgs: "1,000 kgs",
		UNNOIMOClass:   "UN1993 / 3",
		TareWeightKgs:  " 2200 ",
	}
	values := make(map[string]string)
	for _, r := range Replacements(p, fixedNow) {
		values[r.Token] = r.Value
	}

	assert.Len(t, values, 13)
	assert.Equal(t, "1000.00", values[TokenCargoWeightKgs])
	assert.Equal(t, "UN1993 / 3", values[TokenUNNOIMOClass])
	assert.Equal(t, "2200", values[TokenTareWeightKgs])
	assert.Equal(t, "NOVEMBER 03, 2025", values[TokenDateOfDelivery])
	assert.Equal(t, "", values[TokenFirstPort])
}

func TestReplacementsBlankUNClassFallsBack(t *testing.T) {
	p := &payload.Payload{
		UNNOIMOClass: "   ",
		Items: []payload.Item{
			{DGStatus: "yes", UNNumber: "1993", ClassNumber: "3"},
			{DGStatus: "no", UNNumber: "UN9999", ClassNumber: "9"},
		},
	}
	for _, r := range Replacements(p, fixedNow) {
		if r.Token == TokenUNNOIMOClass {
			assert.Equal(t, "UN: UN1993 | Class: 3", r.Value)
			return
		}
	}
	t.Fatal("UN/class placeholder missing")
}

func TestGenerateZeroCargoWeight(t *testing.T) {
	template := writeDocx(t, para(run(TokenCargoWeightKgs)), "")
	out := filepath.Join(t.TempDir(), "out.docx")

	_, err := Generate(template, out, &payload.Payload{}, fixedNow)
	require.NoError(t, err)
	assert.Contains(t, readPart(t, out, "word/document.xml"), run("0.00"))
}

func TestGenerateMissingTemplate(t *testing.T) {
	dir := t.TempDir()
	_, err := Generate(filepath.Join(dir, "none.docx"), filepath.Join(dir, "out.docx"), &payload.Payload{}, fixedNow)
	require.Error(t, err)
	assert.True(t, pdferrors.IsType(err, pdferrors.ErrorTypeTemplate))
}
