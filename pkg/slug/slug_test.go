package slug_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/candlewaxgames/candlewax/pkg/slug"
)

func TestMake(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
		opts  []slug.Option
	}{
		{name: "simple", input: "Hello World", want: "hello-world"},
		{name: "punctuation", input: "Hello, World!", want: "hello-world"},
		{name: "diacritics", input: "Café & Restaurant", want: "cafe-restaurant"},
		{name: "sharp s", input: "München Straße", want: "munchen-strasse"},
		{name: "accents", input: "naïve résumé", want: "naive-resume"},
		{name: "digits kept", input: "Top 10 games of 2024", want: "top-10-games-of-2024"},
		{name: "trims edges", input: "  --Reply--  ", want: "reply"},
		{name: "non latin dropped", input: "Привет world", want: "world"},
		{name: "empty", input: "", want: ""},
		{name: "only symbols", input: "!!!", want: ""},
		{name: "separator", input: "Product Name", want: "product_name", opts: []slug.Option{slug.Separator("_")}},
		{name: "max length", input: "Long Article Title", want: "long-article", opts: []slug.Option{slug.MaxLength(13)}},
		{name: "max length on separator", input: "ab cd", want: "ab", opts: []slug.Option{slug.MaxLength(3)}},
		{name: "reply slug", input: "My first post-reply", want: "my-first-post-reply"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, slug.Make(tt.input, tt.opts...))
		})
	}
}
