package pdf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_SearchDirectory(t *testing.T) {
	search := NewSearch(1024 * 1024)
	dir := t.TempDir()

	files := map[string][]byte{
		"PL-2024-001.pdf":        make([]byte, 1024),
		"packing_list_ACME.PDF":  make([]byte, 2048),
		"sub/packing list 7.pdf": make([]byte, 512),
		".hidden/skip.pdf":       make([]byte, 512),
		"notes.txt":              []byte("not a pdf"),
		"empty.pdf":              {},
		"large.pdf":              make([]byte, 2*1024*1024),
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, content, 0o644))
	}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"all", "", []string{"PL-2024-001.pdf", "packing_list_ACME.PDF", "packing list 7.pdf"}},
		{"substring", "acme", []string{"packing_list_ACME.PDF"}},
		{"words", "packing 7", []string{"packing list 7.pdf"}},
		{"no match", "invoice", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := search.SearchDirectory(SearchDirectoryRequest{Directory: dir, Query: tt.query})
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), result.TotalCount)
			assert.Equal(t, tt.query, result.Query)

			var names []string
			for _, f := range result.Files {
				names = append(names, f.Name)
				assert.Positive(t, f.Size)
				assert.NotEmpty(t, f.ModifiedTime)
			}
			assert.ElementsMatch(t, tt.want, names)
		})
	}
}

func TestSearch_SearchDirectoryErrors(t *testing.T) {
	search := NewSearch(0)

	_, err := search.SearchDirectory(SearchDirectoryRequest{})
	assert.Error(t, err)

	_, err = search.SearchDirectory(SearchDirectoryRequest{Directory: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
}

func TestWithin(t *testing.T) {
	root := t.TempDir()
	inbox := filepath.Join(root, "inbox")
	outside := filepath.Join(root, "outside")
	require.NoError(t, os.MkdirAll(filepath.Join(inbox, "sub"), 0o755))
	require.NoError(t, os.MkdirAll(outside, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.pdf"), []byte("x"), 0o644))
	require.NoError(t, os.Symlink(outside, filepath.Join(inbox, "link")))

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"directory itself", inbox, true},
		{"nested", filepath.Join(inbox, "sub", "a.pdf"), true},
		{"not yet created", filepath.Join(inbox, "out", "new.xlsx"), true},
		{"dot dot", filepath.Join(inbox, "..", "outside", "secret.pdf"), false},
		{"sibling prefix", inbox + "-other/a.pdf", false},
		{"symlink escape", filepath.Join(inbox, "link", "secret.pdf"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Within(tt.path, inbox)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsPDFName(t *testing.T) {
	assert.True(t, IsPDFName("a.pdf"))
	assert.True(t, IsPDFName("A.PDF"))
	assert.False(t, IsPDFName("a.pdf.txt"))
	assert.False(t, IsPDFName("pdf"))
}

func TestMatchesQuery(t *testing.T) {
	tests := []struct {
		filename string
		query    string
		want     bool
	}{
		{"packing_list_acme.pdf", "acme", true},
		{"Packing_List.pdf", "packing list", true},
		{"pl-2024-001.pdf", "2024 001", true},
		{"summary (final).pdf", "final", true},
		{"invoice.pdf", "packing", false},
		{"anything.pdf", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.filename+"_"+tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, matchesQuery(tt.filename, tt.query))
		})
	}
}
