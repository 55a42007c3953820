package pdf

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "github.com/a3tai/mcp-pdf-regions/internal/errors"
	"github.com/a3tai/mcp-pdf-regions/internal/security"
)

// FileInfo describes a PDF found in the documents directory
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// Search finds PDF files below a root directory
type Search struct {
	paths     *security.PathValidator
	validator *Validator
}

// NewSearch creates a search over the directory guarded by paths
func NewSearch(paths *security.PathValidator, maxFileSize int64) *Search {
	return &Search{
		paths:     paths,
		validator: NewValidator(maxFileSize),
	}
}

// FindDocuments returns the openable PDFs below the root whose name contains query,
// case-insensitively. Paths are relative to the root and sorted.
func (s *Search) FindDocuments(query string) ([]FileInfo, error) {
	root := s.paths.Root()
	query = strings.ToLower(strings.TrimSpace(query))

	var files []FileInfo
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil //nolint:nilerr // unreadable entries are skipped
		}

		// Symlinked entries must not lead out of the root
		if !s.paths.Contains(path) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if err := s.validator.ValidateFileInfo(path, info); err != nil {
			return nil //nolint:nilerr // files that cannot be opened are not listed
		}
		if query != "" && !strings.Contains(strings.ToLower(info.Name()), query) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil //nolint:nilerr
		}
		files = append(files, FileInfo{
			Path:         rel,
			Name:         info.Name(),
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
		})
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindResourceLoad, "find documents", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}
