// Package slug builds URL-safe identifiers from free text.
package slug

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Make lowercases s, collapses every run of characters outside [a-z0-9] into
// a single "-" and trims leading and trailing dashes.
func Make(s string) string {
	return WithSeparator(s, "-")
}

// WithSeparator is Make with a custom separator.
func WithSeparator(s, sep string) string {
	out := nonAlnum.ReplaceAllString(strings.ToLower(s), sep)
	return strings.Trim(out, sep)
}

// Timestamped appends the unix-millisecond time, keeping slugs unique for
// entities that may share a title.
func Timestamped(s string, now time.Time) string {
	return fmt.Sprintf("%s-%d", Make(s), now.UnixMilli())
}
