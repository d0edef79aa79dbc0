package errors

import (
	"strings"
	"unicode"
)

// ValidateBaseName validates an output base name (figure or table name).
// Base names become file names, so they must not contain path components.
//
// Rules:
//   - No empty names
//   - No control characters or whitespace
//   - No path separators or traversal sequences
//   - Maximum length of 128 characters
func ValidateBaseName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "name cannot be empty")
	}
	if len(name) > 128 {
		return New(ErrCodeInvalidName, "name too long (max 128 characters): %q", name)
	}
	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidName, "name contains whitespace or control characters: %q", name)
		}
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return New(ErrCodeInvalidName, "name cannot contain path components: %q", name)
	}
	if strings.HasPrefix(name, ".") {
		return New(ErrCodeInvalidName, "name cannot start with a dot: %q", name)
	}
	return nil
}

// ValidateDataPath validates a dataset path relative to the data directory.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidateDataPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "data path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidInput, "data path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "data path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidInput, "data path must be relative (cannot start with /): %s", path)
	}
	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidInput, "data path cannot contain path traversal sequences (..): %s", path)
	}
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidInput, "data path cannot contain backslashes: %s", path)
	}
	return nil
}
