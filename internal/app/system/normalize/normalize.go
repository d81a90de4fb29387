// Package normalize canonicalizes user input before it is stored or compared.
package normalize

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// QueryParam trims a query-string value.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// Slug derives a uniqueURL from a display name: lowercase, whitespace runs
// replaced by "-", then "-" and the creation time in unix milliseconds.
//
//	Slug("Chess Club", t) == "chess-club-1718000000000"
func Slug(name string, at time.Time) string {
	fields := strings.FieldsFunc(strings.ToLower(strings.TrimSpace(name)), unicode.IsSpace)
	base := strings.Join(fields, "-")
	suffix := strconv.FormatInt(at.UnixMilli(), 10)
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}
