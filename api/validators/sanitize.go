package validators

import "strings"

// NormalizeEmail is the lookup form of an address: trimmed and lowercased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
