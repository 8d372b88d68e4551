package pdf

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	pdferrors "github.com/a3tai/packlist/internal/pdf/errors"
)

// Validator handles PDF file validation operations
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new PDF validator with the specified constraints
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// ValidateFile checks that req.Path is a readable PDF and reports its
// structure. Validation problems are reported in the result, not as errors.
func (v *Validator) ValidateFile(req ValidateFileRequest) (*ValidateFileResult, error) {
	result := &ValidateFileResult{
		Path:  req.Path,
		Valid: false,
	}

	if err := v.CheckFile(req.Path); err != nil {
		result.Message = pdferrors.Message(err)
		return result, nil //nolint:nilerr // validation failure is part of the result
	}

	f, r, err := pdf.Open(req.Path)
	if err != nil {
		result.Message = fmt.Sprintf("invalid PDF file: %v", err)
		return result, nil //nolint:nilerr // validation failure is part of the result
	}
	defer f.Close()
	result.Pages = r.NumPage()

	if info, err := Inspect(req.Path); err == nil {
		result.Version = info.Version
		if info.Encrypted {
			result.Message = "PDF is encrypted"
			return result, nil
		}
	}

	result.Valid = true
	return result, nil
}

// CheckFile performs the file-system checks done before a document is
// opened. Failures are input errors.
func (v *Validator) CheckFile(filePath string) error {
	if filePath == "" {
		return pdferrors.Input(filePath, "path cannot be empty")
	}

	fileInfo, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return pdferrors.Input(filePath, fmt.Sprintf("file does not exist: %s", filePath))
	}
	if err != nil {
		return pdferrors.Wrap(pdferrors.ErrorTypeInput, "cannot access file", err).WithFile(filePath)
	}

	return v.ValidateFileInfo(filePath, fileInfo)
}

// IsValidPDF performs a quick check to see if a file is a valid PDF
func (v *Validator) IsValidPDF(filePath string) bool {
	result, err := v.ValidateFile(ValidateFileRequest{Path: filePath})
	return err == nil && result.Valid
}

// ValidateFileInfo performs basic validation on file info without opening the PDF
func (v *Validator) ValidateFileInfo(filePath string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return pdferrors.Input(filePath, fmt.Sprintf("path is a directory, not a file: %s", filePath))
	}

	if !strings.HasSuffix(strings.ToLower(filePath), ".pdf") {
		return pdferrors.Input(filePath, fmt.Sprintf("file is not a PDF: %s", filePath))
	}

	if fileInfo.Size() == 0 {
		return pdferrors.Input(filePath, fmt.Sprintf("file is empty: %s", filePath))
	}

	if v.maxFileSize > 0 && fileInfo.Size() > v.maxFileSize {
		return pdferrors.Input(filePath, fmt.Sprintf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), v.maxFileSize))
	}

	return nil
}
