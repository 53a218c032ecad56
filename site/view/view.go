// Package view renders the site's pages as templ components.
package view

//go:generate templ generate

import (
	"net/http"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/candlewaxgames/candlewax"
	"github.com/candlewaxgames/candlewax/site/service"
)

// Site renders every page of the site.
type Site struct {
	imageURL func(key string) string
	now      func() time.Time
	name     string
}

// Option configures Site.
type Option func(*Site)

// WithImageURL sets how stored image keys become URLs.
func WithImageURL(fn func(key string) string) Option {
	return func(s *Site) {
		if fn != nil {
			s.imageURL = fn
		}
	}
}

// WithClock sets the time "time ago" labels are measured from.
func WithClock(now func() time.Time) Option {
	return func(s *Site) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSiteName sets the name shown in titles and the header.
func WithSiteName(name string) Option {
	return func(s *Site) {
		if name != "" {
			s.name = name
		}
	}
}

// New creates the site renderer.
func New(opts ...Option) *Site {
	s := &Site{
		imageURL: func(key string) string { return "/static/images/" + key },
		now:      time.Now,
		name:     "Candlewax Games",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Views returns a registry holding every page.
func (s *Site) Views() *candlewax.Views {
	return candlewax.NewViews().
		Add("Index/index", s.page("Home", s.home)).
		Add("Index/404", s.page("Page not found", s.notFound)).
		Add("Discussion/Post/index", s.page("Discussion", s.postIndex)).
		Add("Discussion/Post/view", s.page("Discussion", s.postView)).
		Add("Discussion/Post/create", s.page("New post", s.postCreate)).
		Add("Discussion/Post/404", s.page("Post not found", s.postNotFound)).
		Add("Discussion/Blog/index", s.page("Blog", s.blogIndex)).
		Add("Games/Catalogue/index", s.page("Games", s.catalogueIndex)).
		Add("Games/Catalogue/view", s.page("Games", s.catalogueView)).
		Add("User/Account/login", s.page("Log in", s.login)).
		Add("User/Account/edit", s.page("Your account", s.accountEdit)).
		Add("User/Profile/index", s.page("Profile", s.profile)).
		Add("User/Profile/404", s.page("User not found", s.profileNotFound))
}

// ErrorPage renders the layout around a short explanation of status.
func (s *Site) ErrorPage(status int) templ.Component {
	title := http.StatusText(status)
	if title == "" {
		title = "Error"
	}
	return layout(s, title, "", nil, errorBody(title, status >= http.StatusInternalServerError))
}

// body builds the content of one page from its view data.
type body func(data map[string]any) templ.Component

// page wraps b in the site layout.
func (s *Site) page(title string, b body) candlewax.ViewFunc {
	return func(data map[string]any) templ.Component {
		return layout(s, title, currentUsername(data), stringList(data[service.FlashMessages]), b(data))
	}
}

// field is a labelled form input refilled from the submitted form.
type field struct {
	Kind   string
	Name   string
	Label  string
	Value  string
	Errors []string
}

func formField(data map[string]any, kind, name, label string) field {
	f := field{Kind: kind, Name: name, Label: label, Errors: errorsFor(data, name)}
	if kind != "password" {
		f.Value = formValue(data, name)
	}
	return f
}

type pageLink struct {
	Label   string
	URL     string
	Current bool
}

// pageLinks lists the pager entries under base, or nothing for a single page.
func pageLinks(data map[string]any, base string) []pageLink {
	count := intValue(data["page_count"])
	current := intValue(data["current_page"])
	if count < 2 {
		return nil
	}
	links := make([]pageLink, 0, count)
	for i := int64(1); i <= count; i++ {
		n := strconv.FormatInt(i, 10)
		links = append(links, pageLink{Label: n, URL: base + "/" + n, Current: i == current})
	}
	return links
}

func currentUsername(data map[string]any) string {
	sess, _ := data[candlewax.ParamSession].(map[string]any)
	name, _ := sess[service.SessionUsername].(string)
	return name
}

// stringList reads a flashed list, which arrives as []string before a
// session round trip and as []any after one.
func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{list}
	}
	return nil
}

func errorsFor(data map[string]any, name string) []string {
	switch errs := data[service.FlashErrors].(type) {
	case map[string][]string:
		return errs[name]
	case map[string]any:
		return stringList(errs[name])
	}
	return nil
}

func formValue(data map[string]any, name string) string {
	switch form := data[service.FlashPost].(type) {
	case map[string]string:
		return form[name]
	case map[string]any:
		s, _ := form[name].(string)
		return s
	}
	return ""
}

func intValue(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}
