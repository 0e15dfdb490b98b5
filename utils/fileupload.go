package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
)

const (
	// MaxImageSize is 10MB in bytes
	MaxImageSize = 10 * 1024 * 1024
	// MaxReceiptSize is 5MB in bytes
	MaxReceiptSize = 5 * 1024 * 1024
)

var (
	imageTypes = map[string]string{
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
		".webp": "image/webp",
	}
	receiptTypes = map[string]string{
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
		".pdf":  "application/pdf",
	}
)

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// ValidateImageFile checks a product or reference image for format and size
func ValidateImageFile(fileHeader *multipart.FileHeader) error {
	return validate(fileHeader, MaxImageSize, imageTypes, "Only JPG, PNG or WEBP images are allowed")
}

// ValidateReceiptFile checks a payment receipt for format and size
func ValidateReceiptFile(fileHeader *multipart.FileHeader) error {
	return validate(fileHeader, MaxReceiptSize, receiptTypes, "Only JPG, PNG or PDF receipts are allowed")
}

func validate(fileHeader *multipart.FileHeader, maxSize int64, allowed map[string]string, formatMessage string) error {
	if fileHeader == nil {
		return &FileUploadError{Code: "NO_FILE", Message: "No file provided"}
	}

	if fileHeader.Size > maxSize {
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", maxSize/(1024*1024)),
		}
	}

	if _, ok := allowed[Ext(fileHeader.Filename)]; !ok {
		return &FileUploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: formatMessage,
		}
	}

	return nil
}

// Ext returns the lower-cased extension of filename, including the dot
func Ext(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// ContentType maps an accepted upload extension to its MIME type
func ContentType(filename string) string {
	ext := Ext(filename)
	if ct, ok := imageTypes[ext]; ok {
		return ct
	}
	if ct, ok := receiptTypes[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}

// SafeFilename strips directories and characters that do not belong in a storage key
func SafeFilename(filename string) string {
	base := filepath.Base(filename)
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// ReadUploadedFile reads the whole content of an uploaded file
func ReadUploadedFile(fileHeader *multipart.FileHeader) (content []byte, err error) {
	src, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer func() {
		if closeErr := src.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close uploaded file: %w", closeErr)
		}
	}()

	content, err = io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	return content, nil
}
