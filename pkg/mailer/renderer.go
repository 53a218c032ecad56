package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"sync"
	texttemplate "text/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"gopkg.in/yaml.v3"
)

// Renderer loads templates from layouts/ and the root of an fs.FS.
// Parsed templates are cached; rendered output is not.
type Renderer struct {
	fs        fs.FS
	md        goldmark.Markdown
	templates map[string]*parsedTemplate
	layouts   map[string]*template.Template
	mu        sync.Mutex
}

type parsedTemplate struct {
	metadata map[string]any
	body     *texttemplate.Template
}

// Result is a rendered message.
type Result struct {
	Metadata map[string]any
	HTML     string
	// Text is the executed markdown, used as the plain text alternative.
	Text string
}

// NewRenderer creates a renderer over fsys.
func NewRenderer(fsys fs.FS) *Renderer {
	return &Renderer{
		fs:        fsys,
		md:        goldmark.New(goldmark.WithExtensions(extension.Linkify), goldmark.WithRendererOptions(html.WithHardWraps())),
		templates: make(map[string]*parsedTemplate),
		layouts:   make(map[string]*template.Template),
	}
}

// Render executes the named template with data and wraps it in layout.
func (r *Renderer) Render(layout, name string, data any) (*Result, error) {
	tmpl, err := r.template(name)
	if err != nil {
		return nil, err
	}
	lay, err := r.layout(layout)
	if err != nil {
		return nil, err
	}

	var md bytes.Buffer
	if err := tmpl.body.Execute(&md, data); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRenderFailed, name, err)
	}
	var body bytes.Buffer
	if err := r.md.Convert(md.Bytes(), &body); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRenderFailed, name, err)
	}
	var out bytes.Buffer
	err = lay.Execute(&out, map[string]any{
		"Content":  template.HTML(body.String()), //nolint:gosec // goldmark escapes raw HTML by default
		"Metadata": tmpl.metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: layout %s: %w", ErrRenderFailed, layout, err)
	}

	return &Result{Metadata: tmpl.metadata, HTML: out.String(), Text: md.String()}, nil
}

func (r *Renderer) template(name string) (*parsedTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.templates[name]; ok {
		return t, nil
	}

	content, err := fs.ReadFile(r.fs, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	meta, body, err := ParseTemplate(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	tmpl, err := texttemplate.New(name).Parse(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRenderFailed, name, err)
	}

	t := &parsedTemplate{metadata: meta, body: tmpl}
	r.templates[name] = t
	return t, nil
}

func (r *Renderer) layout(name string) (*template.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.layouts[name]; ok {
		return l, nil
	}

	content, err := fs.ReadFile(r.fs, path.Join("layouts", name))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrLayoutNotFound, name)
	}
	l, err := template.New(name).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("%w: layout %s: %w", ErrRenderFailed, name, err)
	}
	r.layouts[name] = l
	return l, nil
}

var frontmatterDelim = []byte("---")

// ParseTemplate splits YAML frontmatter from a markdown body. Content without
// a leading "---" line is all body.
func ParseTemplate(content []byte) (map[string]any, string, error) {
	meta := make(map[string]any)
	rest, ok := bytes.CutPrefix(content, frontmatterDelim)
	if !ok {
		return meta, string(content), nil
	}
	rest = bytes.TrimLeft(rest, "\r\n")

	front, body, found := bytes.Cut(rest, frontmatterDelim)
	if !found {
		return nil, "", fmt.Errorf("%w: closing delimiter not found", ErrInvalidFrontmatter)
	}
	if len(bytes.TrimSpace(front)) > 0 {
		if err := yaml.Unmarshal(front, &meta); err != nil {
			return nil, "", fmt.Errorf("%w: %w", ErrInvalidFrontmatter, err)
		}
	}
	body = bytes.TrimPrefix(body, []byte("\r"))
	body = bytes.TrimPrefix(body, []byte("\n"))
	return meta, string(body), nil
}
