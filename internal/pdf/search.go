package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// Search lists packing-list PDFs under a directory
type Search struct {
	validator *Validator
}

// NewSearch creates a search handler that skips files larger than maxFileSize
func NewSearch(maxFileSize int64) *Search {
	return &Search{validator: NewValidator(maxFileSize)}
}

// Within reports whether path resolves to a location inside directory.
// Symlinks are resolved; a path that does not exist yet is compared as given.
func Within(path, directory string) (bool, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve path: %w", err)
	}
	absDir, err := filepath.Abs(directory)
	if err != nil {
		return false, fmt.Errorf("failed to resolve directory: %w", err)
	}

	realPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return false, fmt.Errorf("failed to evaluate symlinks: %w", err)
		}
		realPath = resolveParent(absPath)
	}
	realDir, err := filepath.EvalSymlinks(absDir)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate directory symlinks: %w", err)
	}

	rel, err := filepath.Rel(filepath.Clean(realDir), filepath.Clean(realPath))
	if err != nil {
		return false, nil
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))), nil
}

// resolveParent resolves symlinks in the nearest existing ancestor of a
// path that does not exist, such as an output file about to be written.
func resolveParent(path string) string {
	dir, rest := filepath.Dir(path), filepath.Base(path)
	for dir != filepath.Dir(dir) {
		if real, err := filepath.EvalSymlinks(dir); err == nil {
			return filepath.Join(real, rest)
		}
		rest = filepath.Join(filepath.Base(dir), rest)
		dir = filepath.Dir(dir)
	}
	return path
}

// SearchDirectory walks req.Directory for PDFs whose names match req.Query.
// Hidden directories and files failing the size check are skipped.
func (s *Search) SearchDirectory(req SearchDirectoryRequest) (*SearchDirectoryResult, error) {
	if req.Directory == "" {
		return nil, fmt.Errorf("directory cannot be empty")
	}
	absDirectory, err := filepath.Abs(req.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory path: %w", err)
	}
	if _, err := os.Stat(absDirectory); err != nil {
		return nil, fmt.Errorf("directory does not exist: %s", req.Directory)
	}

	query := strings.ToLower(strings.TrimSpace(req.Query))
	files := []FileInfo{}

	err = filepath.WalkDir(absDirectory, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // keep walking past unreadable entries
		}
		if d.IsDir() {
			if path != absDirectory && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsPDFName(d.Name()) || !matchesQuery(d.Name(), query) {
			return nil
		}
		if ok, err := Within(path, absDirectory); err != nil || !ok {
			return nil //nolint:nilerr // symlinks leaving the directory are skipped
		}

		info, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr
		}
		if err := s.validator.ValidateFileInfo(path, info); err != nil {
			return nil //nolint:nilerr
		}

		files = append(files, FileInfo{
			Path:         path,
			Name:         info.Name(),
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory: %w", err)
	}

	return &SearchDirectoryResult{
		Files:      files,
		TotalCount: len(files),
		Directory:  absDirectory,
		Query:      req.Query,
	}, nil
}

// IsPDFName checks if a file name has a PDF extension
func IsPDFName(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

// matchesQuery reports whether every word of query appears in the file name
func matchesQuery(filename, query string) bool {
	if query == "" {
		return true
	}
	name := strings.ToLower(strings.TrimSuffix(filename, filepath.Ext(filename)))
	if strings.Contains(name, query) {
		return true
	}

	words := splitWords(name)
	for _, q := range splitWords(query) {
		found := false
		for _, w := range words {
			if strings.Contains(w, q) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func splitWords(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
