package validation

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrNotText is returned for a source file whose content is not text.
var ErrNotText = errors.New("file content is not text")

// allowedDetectedTypes are the sniffed types accepted for a price CSV. A wrong export
// (xlsx, pdf, html error page) is rejected before the CSV reader sees it.
var allowedDetectedTypes = map[string]bool{
	"text/plain":               true,
	"text/csv":                 true,
	"application/csv":          true,
	"application/octet-stream": true, // unknown bytes; the CSV reader rejects them later
}

// ValidateFileContentByMagicBytes checks the file signature and rewinds the file.
// It returns the detected content type.
func ValidateFileContentByMagicBytes(file io.ReadSeeker) (string, error) {
	if file == nil {
		return "", fmt.Errorf("file is nil")
	}

	buffer := make([]byte, 512)
	n, err := io.ReadFull(file, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("failed to read file for content type checking: %w", err)
	}

	// Reset the read pointer so the parser reads the full file.
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to reset file read pointer: %w", err)
	}

	detected := http.DetectContentType(buffer[:n])
	detected = strings.ToLower(strings.TrimSpace(strings.Split(detected, ";")[0]))

	if !allowedDetectedTypes[detected] {
		return detected, fmt.Errorf("%w: detected %q", ErrNotText, detected)
	}
	return detected, nil
}
