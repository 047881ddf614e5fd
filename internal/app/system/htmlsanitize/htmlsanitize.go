// Package htmlsanitize cleans user-authored HTML (note and comment bodies)
// before it is stored.
package htmlsanitize

import (
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// policy is built once; bluemonday policies are safe for concurrent use
// after construction.
var policy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}()

// Sanitize strips scripts, event handlers and unsafe URLs from s, keeping
// ordinary formatting.
func Sanitize(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return policy.Sanitize(s)
}

// SanitizeToHTML returns Sanitize(s) as template.HTML for rendering.
func SanitizeToHTML(s string) template.HTML {
	return template.HTML(Sanitize(s))
}

// PlainText strips every tag, leaving only text content.
func PlainText(s string) string {
	return strings.TrimSpace(bluemonday.StrictPolicy().Sanitize(s))
}
