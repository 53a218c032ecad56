package view_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/candlewaxgames/candlewax"
	"github.com/candlewaxgames/candlewax/site/service"
	"github.com/candlewaxgames/candlewax/site/view"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func render(t *testing.T, path string, data map[string]any) string {
	t.Helper()
	site := view.New(
		view.WithClock(func() time.Time { return now }),
		view.WithImageURL(func(key string) string { return "https://cdn.test/" + key }),
	)
	out, err := site.Views().Render(context.Background(), path, data)
	require.NoError(t, err)
	return string(out)
}

func TestViews_AllPagesRegistered(t *testing.T) {
	t.Parallel()

	views := view.New().Views()
	for _, path := range []string{
		"Index/index", "Index/404",
		"Discussion/Post/index", "Discussion/Post/view", "Discussion/Post/create", "/discussion/post/404",
		"Discussion/Blog/index",
		"Games/Catalogue/index", "Games/Catalogue/view",
		"/user/account/login", "User/Account/edit",
		"User/Profile/index", "/user/profile/404",
	} {
		assert.True(t, views.Has(path), path)
	}
}

func TestViews_LayoutShowsSessionUser(t *testing.T) {
	t.Parallel()

	out := render(t, "Index/index", map[string]any{
		candlewax.ParamSession: map[string]any{service.SessionUsername: "ann"},
		service.FlashMessages:  []any{"Account created!"},
	})
	assert.Contains(t, out, `<a href="/u/ann">ann</a>`)
	assert.Contains(t, out, `/user/account/logout`)
	assert.Contains(t, out, `<p class="flash">Account created!</p>`)

	out = render(t, "Index/index", nil)
	assert.Contains(t, out, `href="/user/account/login"`)
	assert.NotContains(t, out, "logout")
}

func TestViews_PostIndex(t *testing.T) {
	t.Parallel()

	out := render(t, "Discussion/Post/index", map[string]any{
		"posts": []service.Post{{
			Title: "Patch <1.2>", Slug: "patch-1-2", Content: "**Fixed** saves",
			Username: "ann", Image: "profile/a.png", CreatedAt: "2025-06-01 10:00:00",
		}},
		"page_count":   int64(3),
		"current_page": int64(2),
		"loggedIn":     true,
	})
	assert.Contains(t, out, `<a href="/p/patch-1-2">Patch &lt;1.2&gt;</a>`)
	assert.Contains(t, out, `https://cdn.test/profile/a.png`)
	assert.Contains(t, out, "2 hours ago")
	assert.Contains(t, out, "<p>Fixed saves</p>")
	assert.Contains(t, out, `<a href="/discussion/1">1</a><span class="current">2</span><a href="/discussion/3">3</a>`)
	assert.Contains(t, out, "/discussion/post/create")
}

func TestViews_PostViewRendersReplyTree(t *testing.T) {
	t.Parallel()

	out := render(t, "Discussion/Post/view", map[string]any{
		"article": service.Post{ID: 1, Title: "Root", Content: "hello <script>x</script>"},
		"replies": []service.Reply{{
			Post:     service.Post{ID: 2, Content: "first"},
			Children: []service.Reply{{Post: service.Post{ID: 3, Content: "nested"}}},
		}},
		service.FlashErrors:    map[string]any{"content": []any{"You need to type a reply."}},
		candlewax.ParamSession: map[string]any{service.SessionUsername: "bob"},
	})
	assert.NotContains(t, out, "<script>x")
	assert.Contains(t, out, `<li id="post-2">`)
	assert.Contains(t, out, `<li id="post-3">`)
	assert.Contains(t, out, `data-parent-id="3"`)
	assert.Contains(t, out, `name="parent_id" value="1"`)
	assert.Contains(t, out, "You need to type a reply.")
}

func TestViews_FormsRefillFromPost(t *testing.T) {
	t.Parallel()

	out := render(t, "User/Account/login", map[string]any{
		service.FlashPost:   map[string]any{"email": "ann@example.com", "username": "ann"},
		service.FlashErrors: map[string][]string{"email": {"Must be a valid email."}},
	})
	assert.Contains(t, out, `name="email" value="ann@example.com"`)
	assert.Contains(t, out, `name="username" value="ann"`)
	assert.Contains(t, out, "Must be a valid email.")
	assert.NotContains(t, out, `name="password" value=`)

	out = render(t, "User/Account/edit", map[string]any{
		"user":    service.User{Username: "ann", Email: "ann@example.com"},
		"profile": &service.Profile{Bio: "Hi & bye", Image: "profile/x.png"},
	})
	assert.Contains(t, out, `name="username" value="ann"`)
	assert.Contains(t, out, "Hi &amp; bye")
	assert.Contains(t, out, `enctype="multipart/form-data"`)
}

func TestViews_GamesAndNotFound(t *testing.T) {
	t.Parallel()

	out := render(t, "Games/Catalogue/index", map[string]any{
		"games":      []service.Game{{ID: 1, Title: "Wick", Slug: "wick"}, {ID: 2, Title: "Hollow", Slug: "hollow"}},
		"thumbnails": map[int64]service.Screenshot{1: {Image: "wick.png", Caption: "Lit"}},
	})
	assert.Contains(t, out, `<a href="/games/wick"><img src="https://cdn.test/wick.png" alt="Lit">`)
	assert.Contains(t, out, `<a href="/games/hollow"><span>Hollow</span>`)

	out = render(t, "/discussion/post/404", map[string]any{"slug": "<gone>"})
	assert.Contains(t, out, "&lt;gone&gt;")

	out = render(t, "/user/profile/404", map[string]any{"username": "zed"})
	assert.Contains(t, out, `"zed"`)
}

func TestViews_LayoutAndErrorPage(t *testing.T) {
	t.Parallel()

	out := render(t, "Discussion/Blog/index", map[string]any{
		"posts":        []service.Post{{Title: "Devlog", Slug: "devlog"}},
		"page_count":   int64(1),
		"current_page": int64(1),
	})
	assert.True(t, strings.HasPrefix(out, "<!doctype html>"))
	assert.Contains(t, out, "<title>Blog | Candlewax Games</title>")
	assert.Contains(t, out, `<a href="/p/devlog">Devlog</a>`)
	assert.NotContains(t, out, `class="pager"`)

	var buf strings.Builder
	require.NoError(t, view.New(view.WithSiteName("Wick")).ErrorPage(http.StatusBadGateway).Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "<title>Bad Gateway | Wick</title>")
	assert.Contains(t, buf.String(), "Something went wrong on our side.")
	assert.Contains(t, buf.String(), `<a class="brand" href="/">Wick</a>`)
}
