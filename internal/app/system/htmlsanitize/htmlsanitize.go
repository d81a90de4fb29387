// Package htmlsanitize cleans user-supplied text before it is stored.
//
// Comments, bios, and taglines are plain text: every tag is stripped.
// Group and event descriptions allow a small formatting subset.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strict = bluemonday.StrictPolicy()
	rich   = richPolicy()
)

func richPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br", "strong", "b", "em", "i", "u", "s", "ul", "ol", "li", "blockquote")
	p.AllowStandardURLs()
	p.AllowAttrs("href").OnElements("a")
	p.RequireNoFollowOnLinks(true)
	return p
}

// PlainText strips all markup and trims surrounding whitespace. Entities
// produced by the policy are unescaped so the stored text reads as typed.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// Rich keeps basic formatting and safe links, removing everything else.
func Rich(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(rich.Sanitize(s))
}

// IsPlainText reports whether s contains no markup.
func IsPlainText(s string) bool {
	return !strings.ContainsAny(s, "<>")
}
