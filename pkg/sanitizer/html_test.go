package sanitizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/candlewaxgames/candlewax/pkg/sanitizer"
)

func TestStripHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "script", input: `<p>Hello</p><script>alert('xss')</script>`, expected: "Hello"},
		{name: "nested", input: `<div><p>nested <span>content</span></p></div>`, expected: "nested content"},
		{name: "event handler", input: `<img src="x" onerror="alert('xss')">`, expected: ""},
		{name: "javascript url", input: `<a href="javascript:alert('xss')">click</a>`, expected: "click"},
		{name: "plain", input: "  just text  ", expected: "just text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, sanitizer.StripHTML(tt.input))
		})
	}
}

func TestSanitizeHTML(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "<p>Hello <strong>world</strong></p>", sanitizer.SanitizeHTML(`<p onclick="x()">Hello <strong>world</strong></p>`))
	assert.Equal(t, "<p>Hi</p>", sanitizer.SanitizeHTML(`<p>Hi</p><script>alert(1)</script>`))
	assert.NotContains(t, sanitizer.SanitizeHTML(`<a href="javascript:alert(1)">x</a>`), "javascript")
	assert.Contains(t, sanitizer.SanitizeHTML(`<a href="https://example.com">x</a>`), `rel="nofollow`)
}

func TestMarkdown(t *testing.T) {
	t.Parallel()

	out := sanitizer.Markdown("Hello **world**\n\n- one\n- two\n")
	assert.Contains(t, out, "<p>Hello <strong>world</strong></p>")
	assert.Contains(t, out, "<li>one</li>")

	out = sanitizer.Markdown("<script>alert(1)</script>\n\nText with ~~strike~~")
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "<del>strike</del>")

	out = sanitizer.Markdown("[click](javascript:alert(1))")
	assert.NotContains(t, out, "javascript:")
}
