package errors

import (
	"strings"
	"unicode"
)

// ValidateTracePath validates a trace file path supplied on the command line
// or in an API request. It prevents path traversal and rejects paths that
// cannot be legitimate file references.
//
// The validation rules are intentionally conservative:
//   - Path cannot be empty ("-" is allowed and means stdin)
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidateTracePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "trace path cannot be empty")
	}
	if path == "-" {
		return nil
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "trace path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "trace path contains invalid characters")
		}
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "trace path cannot contain path traversal sequences (..)")
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

// ValidateRequestID validates a request identifier from a recorded trace.
// Ids are opaque recorder-assigned strings; the checks here only guard
// against values that would corrupt cache keys or log output.
func ValidateRequestID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidTrace, "request ID cannot be empty")
	}
	if len(id) > 256 {
		return New(ErrCodeInvalidTrace, "request ID too long (max 256 characters)")
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidTrace, "request ID contains invalid control characters")
		}
	}
	return nil
}

// ValidateOutputPath validates an output file path for rendered artifacts.
// It ensures the path is non-empty and free of control characters; unlike
// trace paths, relative parent references are allowed since the user
// chooses where artifacts land.
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "output path cannot be empty")
	}
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "output path contains invalid characters")
		}
	}
	return nil
}
