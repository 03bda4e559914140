package errors

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxNameLength is the longest category name accepted.
	MaxNameLength = 255

	// MaxImageLength is the longest image reference accepted.
	MaxImageLength = 255

	// MaxPageSize caps the page_size parameter of list requests.
	MaxPageSize = 1000
)

// ValidateName validates a category name.
//
// The validation rules:
//   - No empty or whitespace-only names
//   - No control characters
//   - Maximum length of 255 characters
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidName, "category name cannot be empty")
	}

	if utf8.RuneCountInString(name) > MaxNameLength {
		return New(ErrCodeInvalidName, "category name too long (max %d characters)", MaxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "category name contains invalid control characters")
		}
	}

	return nil
}

// ValidateImage validates an optional image reference. Empty is allowed.
func ValidateImage(image string) error {
	if image == "" {
		return nil
	}
	if utf8.RuneCountInString(image) > MaxImageLength {
		return New(ErrCodeInvalidInput, "image reference too long (max %d characters)", MaxImageLength)
	}
	if strings.ContainsRune(image, '\x00') {
		return New(ErrCodeInvalidInput, "image reference contains invalid characters")
	}
	return nil
}

// ValidateID validates a category identifier. Identifiers are positive.
func ValidateID(id int64) error {
	if id <= 0 {
		return New(ErrCodeInvalidID, "category id must be positive, got %d", id)
	}
	return nil
}

// ValidateLink validates a similarity link request between two categories.
// A category cannot be similar to itself.
func ValidateLink(from, to int64) error {
	if err := ValidateID(from); err != nil {
		return err
	}
	if err := ValidateID(to); err != nil {
		return err
	}
	if from == to {
		return New(ErrCodeInvalidInput, "category %d cannot be similar to itself", from)
	}
	return nil
}

// ValidatePage validates pagination parameters.
// Page numbers start at 1 and page sizes are capped at MaxPageSize.
func ValidatePage(page, size int) error {
	if page < 1 {
		return New(ErrCodeInvalidPage, "page must be >= 1, got %d", page)
	}
	if size < 1 || size > MaxPageSize {
		return New(ErrCodeInvalidPage, "page_size must be between 1 and %d, got %d", MaxPageSize, size)
	}
	return nil
}
