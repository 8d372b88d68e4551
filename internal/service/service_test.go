package service

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/a3tai/packlist/internal/config"
	"github.com/a3tai/packlist/internal/descriptions"
	"github.com/a3tai/packlist/internal/pdf"
	pdferrors "github.com/a3tai/packlist/internal/pdf/errors"
	"github.com/a3tai/packlist/internal/pdf/pdftest"
)

var fixedNow = time.Date(2025, time.June, 1, 8, 0, 0, 0, time.UTC)

func testConfig(dir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Directory = dir
	cfg.OutputDir = filepath.Join(dir, "out")
	return cfg
}

func newRestricted(t *testing.T, dir string) *Service {
	t.Helper()
	s, err := New(testConfig(dir), nil, Restricted(), WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return s
}

func writeXLSX(t *testing.T, path string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	_, err := f.NewSheet(config.DefaultSheet)
	require.NoError(t, err)
	require.NoError(t, f.SaveAs(path))
}

func writeDocx(t *testing.T, path, body string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	zw := zip.NewWriter(f)
	parts := map[string]string{
		"word/document.xml":            `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>` + body + `</w:t></w:r></w:p></w:body></w:document>`,
		"word/_rels/document.xml.rels": `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
	}
	for name, content := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = io.WriteString(w, content)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func TestNew(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)

	cfg := testConfig(t.TempDir())
	cfg.Mode = "ocr"
	_, err = New(cfg, nil)
	assert.Error(t, err)

	cfg = testConfig("")
	_, err = New(cfg, nil, Restricted())
	assert.Error(t, err)

	s, err := New(testConfig(t.TempDir()), nil)
	require.NoError(t, err)
	assert.NotNil(t, s.Config())
}

func TestResolvePath(t *testing.T) {
	dir := t.TempDir()
	s := newRestricted(t, dir)

	got, err := s.ResolvePath("inbox/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "inbox", "a.pdf"), got)

	_, err = s.ResolvePath("../escape.pdf")
	assert.True(t, pdferrors.IsType(err, pdferrors.ErrorTypeInput))

	_, err = s.ResolvePath("/etc/passwd")
	assert.Error(t, err)

	_, err = s.ResolvePath(" ")
	assert.Error(t, err)

	open, err := New(testConfig(dir), nil)
	require.NoError(t, err)
	got, err = open.ResolvePath("/etc/hosts")
	require.NoError(t, err)
	assert.Equal(t, "/etc/hosts", got)
}

func TestExtract(t *testing.T) {
	dir := t.TempDir()
	pdftest.WriteFile(t, dir, "PL-1.pdf", pdftest.PackingList())
	s := newRestricted(t, dir)

	res, err := s.Extract(context.Background(), ExtractRequest{Path: "PL-1.pdf"})
	require.NoError(t, err)
	require.True(t, res.OK, res.Error)
	assert.Len(t, res.Items, 2)
	assert.Equal(t, "auto", res.Debug.Mode)
	assert.False(t, res.Debug.Fallback)

	res, err = s.Extract(context.Background(), ExtractRequest{Path: "PL-1.pdf", Mode: "text"})
	require.NoError(t, err)
	assert.Equal(t, "text", res.Debug.Mode)

	_, err = s.Extract(context.Background(), ExtractRequest{Path: "PL-1.pdf", Mode: "ocr"})
	assert.Error(t, err)

	res, err = s.Extract(context.Background(), ExtractRequest{Path: "missing.pdf"})
	require.NoError(t, err)
	assert.False(t, res.OK)
}

func TestExtractCache(t *testing.T) {
	dir := t.TempDir()
	path := pdftest.WriteFile(t, dir, "PL-1.pdf", pdftest.PackingList())
	s := newRestricted(t, dir)

	first, err := s.Extract(context.Background(), ExtractRequest{Path: "PL-1.pdf"})
	require.NoError(t, err)
	require.True(t, first.OK)

	second, err := s.Extract(context.Background(), ExtractRequest{Path: "PL-1.pdf"})
	require.NoError(t, err)
	assert.Same(t, first, second)

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))
	third, err := s.Extract(context.Background(), ExtractRequest{Path: "PL-1.pdf"})
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.NotEqual(t, first.Debug.RunID, third.Debug.RunID)

	stats := s.CacheStats()
	require.NotNil(t, stats)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)

	cfg := testConfig(dir)
	cfg.CacheSize = 0
	uncached, err := New(cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, uncached.CacheStats())
	assert.Nil(t, uncached.ServerInfo().Cache)
}

func TestValidateFileAndSearch(t *testing.T) {
	dir := t.TempDir()
	pdftest.WriteFile(t, dir, "PL-1.pdf", pdftest.PackingList())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.pdf"), []byte("not a pdf at all"), 0o644))
	s := newRestricted(t, dir)

	result, err := s.ValidateFile(pdfRequest("PL-1.pdf"))
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, 1, result.Pages)

	result, err = s.ValidateFile(pdfRequest("broken.pdf"))
	require.NoError(t, err)
	assert.False(t, result.Valid)

	found, err := s.SearchDirectory("")
	require.NoError(t, err)
	assert.Equal(t, 2, found.TotalCount)

	found, err = s.SearchDirectory("pl 1")
	require.NoError(t, err)
	assert.Equal(t, 1, found.TotalCount)
}

func TestGenerateDGDeclaration(t *testing.T) {
	dir := t.TempDir()
	writeXLSX(t, filepath.Join(dir, "dg.xlsx"))
	s := newRestricted(t, dir)

	result, err := s.GenerateDGDeclaration(TemplateRequest{
		Template: "dg.xlsx",
		Output:   "out/dg-filled.xlsx",
		Payload:  `{"items":[{"description":"thinner","dgStatus":"DG","unNumber":"UN1263"}]}`,
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out", "dg-filled.xlsx"), result.Output)
	assert.Equal(t, "thinner", result.Item)

	f, err := excelize.OpenFile(result.Output)
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue(config.DefaultSheet, "G9")
	require.NoError(t, err)
	assert.Equal(t, "JUNE 01, 2025", v)
	v, err = f.GetCellValue(config.DefaultSheet, "F26")
	require.NoError(t, err)
	assert.Equal(t, "UN1263", v)
}

func TestGenerateDGDeclarationRejects(t *testing.T) {
	dir := t.TempDir()
	writeXLSX(t, filepath.Join(dir, "dg.xlsx"))
	s := newRestricted(t, dir)

	_, err := s.GenerateDGDeclaration(TemplateRequest{Template: "dg.xlsx", Output: "dg.xlsx", Payload: "{}"})
	assert.True(t, pdferrors.IsType(err, pdferrors.ErrorTypeInput))

	_, err = s.GenerateDGDeclaration(TemplateRequest{Template: "dg.xlsx", Output: "../dg.xlsx", Payload: "{}"})
	assert.True(t, pdferrors.IsType(err, pdferrors.ErrorTypeInput))

	_, err = s.GenerateDGDeclaration(TemplateRequest{Template: "dg.xlsx", Output: "o.xlsx", Payload: `{"items": 4}`})
	assert.True(t, pdferrors.IsType(err, pdferrors.ErrorTypePayload))

	_, err = s.GenerateDGDeclaration(TemplateRequest{Template: "none.xlsx", Output: "o.xlsx", Payload: "{}"})
	assert.True(t, pdferrors.IsType(err, pdferrors.ErrorTypeTemplate))
}

func TestGeneratePreadviseFromPayloadFile(t *testing.T) {
	dir := t.TempDir()
	writeDocx(t, filepath.Join(dir, "preadvise.docx"), "Booking {{BOOKING_NUMBER}} on {{DATE_OF_DELIVERY}}")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "payload.json"), []byte(`{"bookingNumber":"BKG-9"}`), 0o644))
	s := newRestricted(t, dir)

	result, err := s.GeneratePreadvise(TemplateRequest{
		Template: "preadvise.docx",
		Output:   "out/preadvise.docx",
		Payload:  "payload.json",
	})
	require.NoError(t, err)
	assert.Contains(t, result.Unmatched, "{{TRUCKER}}")
	assert.NotContains(t, result.Unmatched, "{{BOOKING_NUMBER}}")
	assert.FileExists(t, result.Output)
}

func TestServerInfo(t *testing.T) {
	dir := t.TempDir()
	pdftest.WriteFile(t, dir, "PL-1.pdf", pdftest.PackingList())
	s := newRestricted(t, dir)

	info := s.ServerInfo()
	assert.Equal(t, "packlist", info.ServerName)
	assert.Equal(t, dir, info.Directory)
	assert.Len(t, info.Tools, len(descriptions.Catalog()))
	require.Len(t, info.Files, 1)
	assert.Equal(t, "PL-1.pdf", info.Files[0].Name)

	s.cfg.Directory = filepath.Join(dir, "gone")
	assert.Empty(t, s.ServerInfo().Files)
}

func pdfRequest(path string) pdf.ValidateFileRequest {
	return pdf.ValidateFileRequest{Path: path}
}
