package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFiles creates empty files under root, making parent dirs as needed.
func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}
}

func relPaths(files []File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = filepath.ToSlash(f.RelPath)
	}
	return out
}

func TestDiscoverFiltersAndSorts(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root,
		"a.pdf",
		"b.docx",
		".hidden.pdf",
		"c.exe",
		"sub/d.PDF",
		"sub/nested/e.xlsx",
		"sub/.secret.docx",
		"notes.TXT",
	)

	files, err := Discover(root)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"a.pdf",
		"b.docx",
		"notes.TXT",
		"sub/d.PDF",
		"sub/nested/e.xlsx",
	}, relPaths(files))

	for _, f := range files {
		assert.Equal(t, filepath.Join(root, f.RelPath), f.Path)
	}
}

func TestDiscoverEmptyTree(t *testing.T) {
	files, err := Discover(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDiscoverMissingRoot(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
}

func TestEligible(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"report.pdf", true},
		{"report.PDF", true},
		{"slides.pptx", true},
		{"page.html", true},
		{"sheet.xlsx", true},
		{"readme.md", true},
		{"notes.txt", true},
		{".hidden.pdf", false},
		{"archive.zip", false},
		{"binary.exe", false},
		{"noextension", false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Eligible(tc.name), "Eligible(%q)", tc.name)
	}
}
