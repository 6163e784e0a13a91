// Package enums holds the string-backed enumerations persisted on models
// and carried in tokens.
package enums

import (
	"fmt"
	"slices"
	"strings"
)

// lookup parses value against the known members of an enum. Role matching
// folds case; every other enum is exact.
func lookup[T ~string](label string, members []T, value string, foldCase bool) (T, error) {
	value = strings.TrimSpace(value)
	i := slices.IndexFunc(members, func(m T) bool {
		if foldCase {
			return strings.EqualFold(string(m), value)
		}
		return string(m) == value
	})
	if i < 0 {
		var zero T
		return zero, fmt.Errorf("invalid %s %q", label, value)
	}
	return members[i], nil
}
