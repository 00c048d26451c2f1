// Package htmlsanitize cleans user-supplied rich text before it is stored.
package htmlsanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// articlePolicy is UGC plus the table and text-formatting markup the article
// editor emits.
func articlePolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowElements("u", "s", "sub", "sup", "mark", "hr")
		p.AllowAttrs("class").OnElements("table", "thead", "tbody", "tr", "th", "td")
		p.AllowAttrs("colspan", "rowspan").Matching(bluemonday.Integer).OnElements("th", "td")
		p.AllowStyles("width", "text-align").OnElements("table", "th", "td")
		policy = p
	})
	return policy
}

// Sanitize strips scripts, event handlers, unsafe URLs and disallowed tags.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return articlePolicy().Sanitize(s)
}

// IsPlainText reports whether s carries no markup.
func IsPlainText(s string) bool {
	return !(strings.Contains(s, "<") && strings.Contains(s, ">"))
}

// PlainTextToHTML escapes s and wraps it in a paragraph, turning newlines
// into line breaks.
func PlainTextToHTML(s string) string {
	if s == "" {
		return ""
	}
	esc := html.EscapeString(s)
	esc = strings.ReplaceAll(esc, "\r\n", "\n")
	return "<p>" + strings.ReplaceAll(esc, "\n", "<br>") + "</p>"
}

// Description normalizes an article body: plain text is wrapped as HTML,
// markup is sanitized. The result is trimmed.
func Description(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if IsPlainText(s) {
		return PlainTextToHTML(s)
	}
	return strings.TrimSpace(Sanitize(s))
}
