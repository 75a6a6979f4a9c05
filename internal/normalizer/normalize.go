// Package normalizer converts arbitrary labels into identifier-safe names.
package normalizer

import (
	"regexp"
	"strings"
)

// nonAlnum matches every maximal run of characters outside [a-z0-9].
// The input is lower-cased before matching, so uppercase never reaches it.
var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Snake converts a label to snake_case: lower-case, every run of
// non-alphanumeric characters collapsed to a single underscore, no leading
// or trailing underscore. Total and idempotent; an input with no
// alphanumeric characters normalizes to the empty string.
func Snake(label string) string {
	s := strings.ToLower(label)
	s = nonAlnum.ReplaceAllString(s, "_")

	return strings.Trim(s, "_")
}
