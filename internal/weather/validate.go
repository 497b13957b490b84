package weather

import (
	"regexp"
	"strings"
)

var postalCodeRe = regexp.MustCompile(`^\d{5}$`)

// IsValidPostalCode reports whether s is exactly five ASCII digits. No trimming,
// no ZIP+4.
func IsValidPostalCode(s string) bool {
	// \d in RE2 is ASCII-only, so other Unicode digits never match.
	return postalCodeRe.MatchString(s)
}

// IsBlank reports whether s is empty after trimming whitespace.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// ValidateName gates every lookup on a non-blank name.
func ValidateName(name string) error {
	if IsBlank(name) {
		return NewValidationError(MsgEnterName)
	}
	return nil
}

// ValidatePostalCode checks presence first, then format.
func ValidatePostalCode(code string) error {
	if IsBlank(code) {
		return NewValidationError(MsgEnterZip)
	}
	if !IsValidPostalCode(code) {
		return NewValidationError(MsgInvalidZip)
	}
	return nil
}
