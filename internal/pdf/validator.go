package pdf

import (
	"fmt"
	"os"
	"strings"

	apperrors "github.com/a3tai/mcp-pdf-regions/internal/errors"
)

// Validator checks PDF files before they are opened
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new PDF validator with the specified constraints
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// ValidateFile checks that filePath names a non-empty PDF file within the size limit
func (v *Validator) ValidateFile(filePath string) error {
	if filePath == "" {
		return apperrors.New(apperrors.KindPrecondition, "open document", "path cannot be empty")
	}

	fileInfo, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return apperrors.Newf(apperrors.KindResourceLoad, "open document", "file does not exist: %s", filePath)
	}
	if err != nil {
		return apperrors.Wrap(apperrors.KindResourceLoad, "open document", fmt.Errorf("cannot access file: %w", err))
	}

	return v.ValidateFileInfo(filePath, fileInfo)
}

// ValidateFileInfo performs the checks of ValidateFile on already known file info
func (v *Validator) ValidateFileInfo(filePath string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return apperrors.Newf(apperrors.KindResourceLoad, "open document", "path is a directory, not a file: %s", filePath)
	}

	if !strings.HasSuffix(strings.ToLower(filePath), ".pdf") {
		return apperrors.Newf(apperrors.KindResourceLoad, "open document", "file is not a PDF: %s", filePath)
	}

	return v.ValidateSize(fileInfo.Size())
}

// ValidateSize rejects empty documents and documents above the size limit
func (v *Validator) ValidateSize(size int64) error {
	if size == 0 {
		return apperrors.New(apperrors.KindResourceLoad, "open document", "file is empty")
	}

	if v.maxFileSize > 0 && size > v.maxFileSize {
		return apperrors.Newf(apperrors.KindResourceLoad, "open document",
			"file too large: %d bytes (max: %d bytes)", size, v.maxFileSize)
	}

	return nil
}
