package reconcile

import (
	"strings"

	"records-manager/core/utils"
)

// MatchKey is one identity strategy for a kind. Extract returns the comparable key value
// for a record, or "" when the record carries no usable value for this key.
type MatchKey[T any] struct {
	Name    string
	Extract func(T) string
}

// Exact compares trimmed values as-is.
func Exact(s string) string {
	return strings.TrimSpace(s)
}

// Normalized compares values case-insensitively with collapsed whitespace.
func Normalized(s string) string {
	return utils.NormalizeKey(s)
}

// compositeSep cannot appear in user-entered text.
const compositeSep = "\x1f"

// Composite joins already-normalized parts into one key value.
// A blank part makes the whole key blank so partial identities never collide.
func Composite(parts ...string) string {
	for _, p := range parts {
		if utils.IsBlank(p) {
			return ""
		}
	}
	return strings.Join(parts, compositeSep)
}

// DisplayKey renders a composite key value for logs and reports.
func DisplayKey(value string) string {
	return strings.ReplaceAll(value, compositeSep, " / ")
}
