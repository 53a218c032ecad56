// Package slug turns titles into URL path segments.
//
//	slug.Make("Café & Restaurant")            // "cafe-restaurant"
//	slug.Make("Long title", slug.MaxLength(4)) // "long"
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type config struct {
	separator string
	maxLength int
}

// Option configures Make.
type Option func(*config)

// MaxLength caps the slug length in runes. The cut never leaves a trailing separator.
func MaxLength(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxLength = n
		}
	}
}

// Separator sets the word separator. Defaults to "-".
func Separator(sep string) Option {
	return func(c *config) {
		if sep != "" {
			c.separator = sep
		}
	}
}

// replacements covers letters that do not decompose into ASCII plus marks.
var replacements = strings.NewReplacer(
	"ß", "ss", "æ", "ae", "Æ", "ae", "ø", "o", "Ø", "o",
	"đ", "d", "Đ", "d", "ł", "l", "Ł", "l", "œ", "oe", "Œ", "oe",
)

// Make lowercases s, strips diacritics and joins the remaining ASCII letter
// and digit runs with the separator. Everything else separates words.
func Make(s string, opts ...Option) string {
	cfg := config{separator: "-"}
	for _, opt := range opts {
		opt(&cfg)
	}

	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		replacements.Replace(s),
	)
	if err != nil {
		folded = s
	}

	words := strings.FieldsFunc(strings.ToLower(folded), func(r rune) bool {
		return r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r))
	})

	slug := strings.Join(words, cfg.separator)
	if cfg.maxLength > 0 && len(slug) > cfg.maxLength {
		slug = strings.TrimRight(slug[:cfg.maxLength], cfg.separator)
	}
	return slug
}
