// Package discovery enumerates the documents eligible for conversion under
// an input root.
package discovery

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// allowedExtensions is the fixed set of convertible document types.
var allowedExtensions = map[string]struct{}{
	".pdf":  {},
	".docx": {},
	".pptx": {},
	".html": {},
	".xlsx": {},
	".md":   {},
	".txt":  {},
}

// File is one candidate document: its absolute path plus the path relative
// to the input root, used to mirror directory structure in the output tree.
type File struct {
	Path    string `json:"path"`
	RelPath string `json:"relPath"`
}

// Eligible reports whether a file name is convertible: extension in the
// allow-list (case-insensitive) and not a hidden file.
func Eligible(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	_, ok := allowedExtensions[strings.ToLower(filepath.Ext(base))]
	return ok
}

// Discover walks rootDir and returns all eligible files sorted by relative
// path. An empty result is not an error; an unreadable root is.
func Discover(rootDir string) ([]File, error) {
	var files []File

	err := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == rootDir {
				return err
			}
			// Unreadable subtrees are skipped rather than failing the scan.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !Eligible(d.Name()) {
			return nil
		}

		rel, relErr := filepath.Rel(rootDir, path)
		if relErr != nil {
			return relErr
		}
		files = append(files, File{Path: path, RelPath: rel})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan input directory %s: %w", rootDir, err)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].RelPath < files[j].RelPath
	})
	return files, nil
}
