// Package sanitizer cleans user supplied text before it is stored or shown.
package sanitizer

import (
	"bytes"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	strictPolicy *bluemonday.Policy
	postPolicy   *bluemonday.Policy
	markdown     goldmark.Markdown
	initOnce     sync.Once
)

func initPolicies() {
	initOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()

		postPolicy = bluemonday.NewPolicy()
		postPolicy.AllowStandardURLs()
		postPolicy.AllowElements(
			"p", "br", "hr",
			"h2", "h3", "h4",
			"strong", "b", "em", "i", "del",
			"ul", "ol", "li",
			"code", "pre", "blockquote",
		)
		postPolicy.AllowAttrs("href").OnElements("a")
		postPolicy.RequireNoFollowOnLinks(true)
		postPolicy.AddTargetBlankToFullyQualifiedLinks(true)

		markdown = goldmark.New(goldmark.WithExtensions(extension.Strikethrough, extension.Linkify))
	})
}

// StripHTML removes every tag and returns the remaining text, trimmed.
// Entities are left escaped.
func StripHTML(s string) string {
	initPolicies()
	return strings.TrimSpace(strictPolicy.Sanitize(s))
}

// SanitizeHTML keeps the formatting tags allowed in posts and drops the rest,
// including scripts, event handlers and javascript: URLs.
func SanitizeHTML(s string) string {
	initPolicies()
	return postPolicy.Sanitize(s)
}

// Markdown renders post markdown to sanitized HTML.
func Markdown(src string) string {
	initPolicies()
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return strictPolicy.Sanitize(src)
	}
	return postPolicy.Sanitize(buf.String())
}
