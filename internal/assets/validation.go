package assets

import (
	"fmt"
	"strings"
	"unicode"
)

// NormalizeKey lowercases s and drops everything that is not a letter or
// digit: "North Central" + "Logo_1" and "northcentrallogo1" are the same key.
func NormalizeKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// ValidateAssetName checks that name yields a non-empty key.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if NormalizeKey(name) == "" {
		return fmt.Errorf("%w: %q has no letters or digits", ErrInvalidAssetName, name)
	}
	return nil
}
