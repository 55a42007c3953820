// Package security confines document paths to the configured documents directory.
package security

import (
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/a3tai/mcp-pdf-regions/internal/errors"
)

// PathValidator resolves client supplied paths against a root directory
type PathValidator struct {
	root string
}

// NewPathValidator creates a validator for root. The root is resolved to an absolute,
// symlink-free path once, so it must exist.
func NewPathValidator(root string) (*PathValidator, error) {
	if root == "" {
		return nil, apperrors.New(apperrors.KindPrecondition, "path validator", "directory cannot be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindResourceLoad, "path validator", err)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindResourceLoad, "path validator", err)
	}
	return &PathValidator{root: real}, nil
}

// Root returns the resolved root directory
func (v *PathValidator) Root() string {
	return v.root
}

// Resolve returns the absolute form of path. Relative paths are taken relative to the
// root. The result, with symlinks followed, must stay inside the root.
func (v *PathValidator) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if strings.TrimSpace(path) == "" {
		return "", apperrors.New(apperrors.KindPrecondition, "resolve path", "path cannot be empty")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(v.root, path)
	}
	clean := filepath.Clean(path)

	real := clean
	if resolved, err := filepath.EvalSymlinks(clean); err == nil {
		real = resolved
	} else if !os.IsNotExist(err) {
		return "", apperrors.Wrap(apperrors.KindResourceLoad, "resolve path", err)
	}

	if !v.within(real) {
		return "", apperrors.Newf(apperrors.KindPrecondition, "resolve path",
			"path is outside the documents directory: %s", path)
	}
	return real, nil
}

// Contains reports whether path lies inside the root
func (v *PathValidator) Contains(path string) bool {
	_, err := v.Resolve(path)
	return err == nil
}

func (v *PathValidator) within(path string) bool {
	if path == v.root {
		return true
	}
	prefix := v.root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}
