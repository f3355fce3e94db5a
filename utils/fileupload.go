package utils

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"
)

const (
	// MaxResumeSize is 5MB in bytes
	MaxResumeSize = 5 * 1024 * 1024
	// AllowedResumeFormat is PDF
	AllowedResumeFormat = ".pdf"
	// ResumeContentType is stored alongside uploaded resumes
	ResumeContentType = "application/pdf"
	// ResumeKeyPrefix is the folder resumes are stored under
	ResumeKeyPrefix = "resumes"
)

var pdfMagic = []byte("%PDF-")

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// ValidateResumeFile validates the uploaded file format and size
func ValidateResumeFile(fileHeader *multipart.FileHeader) error {
	if fileHeader.Size > MaxResumeSize {
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size should be less than %d MB", MaxResumeSize/(1024*1024)),
		}
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext != AllowedResumeFormat {
		return &FileUploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: "Please upload a PDF file",
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		return fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	head := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(file, head); err != nil || !bytes.Equal(head, pdfMagic) {
		return &FileUploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: "Please upload a PDF file",
		}
	}

	return nil
}

// ResumeKey builds the storage key for a resume: resumes/{unix-millis}_{filename}
func ResumeKey(filename string, now time.Time) string {
	return fmt.Sprintf("%s/%d_%s", ResumeKeyPrefix, now.UnixMilli(), filepath.Base(filename))
}

// ReadUploadedFile reads the whole uploaded file into memory
func ReadUploadedFile(fileHeader *multipart.FileHeader) ([]byte, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	return content, nil
}
