package site_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/candlewaxgames/candlewax"
	"github.com/candlewaxgames/candlewax/pkg/db"
	"github.com/candlewaxgames/candlewax/pkg/logger"
	"github.com/candlewaxgames/candlewax/pkg/session"
	"github.com/candlewaxgames/candlewax/pkg/storage"
	"github.com/candlewaxgames/candlewax/site"
	"github.com/candlewaxgames/candlewax/site/migrations"
)

type capturedMail struct {
	mu    sync.Mutex
	links []string
}

func (m *capturedMail) Send(_ context.Context, _, _ string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	link, _ := data.(map[string]any)["Link"].(string)
	m.links = append(m.links, link)
	return nil
}

func (m *capturedMail) lastLink() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.links[len(m.links)-1]
}

type browser struct {
	t      *testing.T
	client *http.Client
	base   string
}

func newSite(t *testing.T, configure ...func(*site.Config)) (*browser, *capturedMail, *db.Engine) {
	t.Helper()
	ctx := context.Background()

	store, err := db.Open(ctx, db.Config{Driver: "sqlite", URL: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	fsys, err := migrations.FS(store.Dialect)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx, store, fsys, "", logger.NewNope()))

	engine := db.NewEngine(db.WithDialect(store.Dialect))
	require.NoError(t, engine.Connect(store.DB))

	images, err := storage.NewLocal(t.TempDir(), "/uploads")
	require.NoError(t, err)

	mail := &capturedMail{}
	cfg := site.Config{
		SiteURL:    "http://candlewax.test",
		BcryptCost: 4,
	}
	for _, fn := range configure {
		fn(&cfg)
	}
	router := site.New(site.Deps{Engine: engine, Mailer: mail, Storage: images}, cfg)
	app := candlewax.New(
		candlewax.WithDispatcher(router),
		candlewax.WithSession(session.NewMemoryStore()),
	)
	srv := httptest.NewServer(app)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &browser{t: t, client: client, base: srv.URL}, mail, engine
}

func (b *browser) get(path string) (int, string) {
	b.t.Helper()
	resp, err := b.client.Get(b.base + path)
	require.NoError(b.t, err)
	return read(b.t, resp)
}

// post submits form and returns the status and redirect location.
func (b *browser) post(path string, form url.Values) (int, string) {
	b.t.Helper()
	resp, err := b.client.PostForm(b.base+path, form)
	require.NoError(b.t, err)
	code, _ := read(b.t, resp)
	return code, resp.Header.Get("Location")
}

func read(t *testing.T, resp *http.Response) (int, string) {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func register(t *testing.T, b *browser, name string) {
	t.Helper()
	code, loc := b.post("/user/account/register", url.Values{
		"username": {name},
		"email":    {name + "@example.com"},
		"password": {"hunter22"},
		"confirm":  {"hunter22"},
	})
	require.Equal(t, http.StatusSeeOther, code)
	require.Equal(t, "/u/"+name, loc)
}

func TestSite_Pages(t *testing.T) {
	t.Parallel()

	b, _, _ := newSite(t)

	code, body := b.get("/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Small games, made by hand.")

	code, body = b.get("/discussion")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "No posts yet.")

	code, body = b.get("/blog/2")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "<h1>Blog</h1>")

	code, body = b.get("/p/missing")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Post not found")

	code, body = b.get("/u/nobody")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "User not found")

	code, body = b.get("/no/such/page/at/all")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, body, "Page not found")
}

func TestSite_Games(t *testing.T) {
	t.Parallel()

	b, _, engine := newSite(t)
	ctx := context.Background()
	games, err := engine.Create(ctx, "games", db.Columns{
		db.Col("title", "Wick"), db.Col("slug", "wick"), db.Col("description", "A *tiny* flame."),
	})
	require.NoError(t, err)
	_, err = engine.Create(ctx, "game_screenshots", db.Columns{
		db.Col("game_id", games[0].ID()), db.Col("image", "games/wick-1.png"), db.Col("caption", "Lit"),
	})
	require.NoError(t, err)

	code, body := b.get("/games")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `href="/games/wick"`)
	assert.Contains(t, body, `src="/uploads/games/wick-1.png"`)

	code, body = b.get("/games/wick")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "<em>tiny</em>")
	assert.Contains(t, body, "<figcaption>Lit</figcaption>")

	code, body = b.get("/games/unknown")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Page not found")
}

func TestSite_AccountAndDiscussion(t *testing.T) {
	t.Parallel()

	b, mail, _ := newSite(t)

	code, loc := b.post("/discussion/post/store", url.Values{"title": {"x"}, "content": {"y"}})
	assert.Equal(t, http.StatusSeeOther, code)
	assert.Equal(t, "/user/account/login", loc)

	register(t, b, "ann")
	code, body := b.get("/u/ann")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Account created!")
	assert.Contains(t, body, "<h1>ann</h1>")
	assert.Contains(t, body, "/user/account/logout")

	code, loc = b.post("/discussion/post/store", url.Values{"title": {""}, "content": {"body"}})
	assert.Equal(t, http.StatusSeeOther, code)
	assert.Equal(t, "/discussion/post/create", loc)
	_, body = b.get("/discussion/post/create")
	assert.Contains(t, body, "The post must have a title.")
	assert.Contains(t, body, ">body</textarea>")

	code, loc = b.post("/discussion/post/store", url.Values{"title": {"Hello World"}, "content": {"First **post**"}})
	assert.Equal(t, http.StatusSeeOther, code)
	assert.Equal(t, "/p/hello-world", loc)

	code, body = b.get("/p/hello-world")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "<h1>Hello World</h1>")
	assert.Contains(t, body, "<strong>post</strong>")

	_, body = b.get("/discussion")
	assert.Contains(t, body, `href="/p/hello-world"`)

	root := parentID(t, b, "/p/hello-world")
	code, loc = b.post("/discussion/post/storeReply", url.Values{"parent_id": {root}, "content": {"Nice one"}})
	assert.Equal(t, http.StatusSeeOther, code)
	assert.Equal(t, "/p/hello-world", loc)
	_, body = b.get("/p/hello-world")
	assert.Contains(t, body, "Nice one")

	code, loc = b.post("/discussion/post/storeReply", url.Values{"parent_id": {"999"}, "content": {"lost"}})
	assert.Equal(t, http.StatusSeeOther, code)
	assert.Equal(t, "/discussion", loc)

	token := strings.TrimPrefix(mail.lastLink(), "http://candlewax.test/user/account/verify/")
	code, loc = b.post("/user/account/verify/"+token, nil)
	assert.Equal(t, http.StatusSeeOther, code)
	assert.Equal(t, "/user/account/login", loc)
	_, body = b.get("/user/account/login")
	assert.Contains(t, body, "Email verified successfully!")

	code, loc = b.post("/user/account/logout", nil)
	assert.Equal(t, http.StatusSeeOther, code)
	assert.Equal(t, "/user/account/login", loc)
	_, body = b.get("/")
	assert.NotContains(t, body, "/user/account/logout")
}

func TestSite_LoginAndEditAccount(t *testing.T) {
	t.Parallel()

	b, _, _ := newSite(t)
	register(t, b, "ann")
	b.post("/user/account/logout", nil)

	code, body := b.get("/user/account/edit")
	assert.Equal(t, http.StatusFound, code)
	assert.Empty(t, body)

	code, _ = b.post("/user/account/login", url.Values{"email": {"ann@example.com"}, "password": {"wrong-pass"}})
	assert.Equal(t, http.StatusOK, code)

	code, loc := b.post("/user/account/login", url.Values{"email": {"ann@example.com"}, "password": {"hunter22"}})
	assert.Equal(t, http.StatusSeeOther, code)
	assert.Equal(t, "/u/ann", loc)

	code, loc = b.post("/user/account/update", url.Values{
		"username": {"annie"}, "email": {"ann@example.com"}, "password": {"hunter22"},
	})
	assert.Equal(t, http.StatusSeeOther, code)
	assert.Equal(t, "/user/account/edit", loc)

	code, body = b.get("/user/account/edit")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Account details updated.")
	assert.Contains(t, body, `name="username" value="annie"`)

	b.post("/user/account/updatePassword", url.Values{
		"old_password": {"hunter22"}, "new_password": {"correct-horse"}, "new_confirm": {"nope"},
	})
	_, body = b.get("/user/account/edit")
	assert.Contains(t, body, "The password fields must match.")

	b.post("/user/profile/update", url.Values{"bio": {"Speedrunner."}})
	_, body = b.get("/u/annie")
	assert.Contains(t, body, "Speedrunner.")

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
	code, loc = b.upload("/user/profile/update", "avatar.png", png)
	assert.Equal(t, http.StatusSeeOther, code)
	assert.Equal(t, "/user/account/edit", loc)
	_, body = b.get("/u/annie")
	assert.Contains(t, body, `src="/uploads/profile/`)

	b.upload("/user/profile/update", "notes.png", []byte("just some text"))
	_, body = b.get("/user/account/edit")
	assert.Contains(t, body, "The uploaded image was an invalid type or too large.")
}

// upload posts content as the "image" field of a multipart form.
func (b *browser) upload(path, filename string, content []byte) (int, string) {
	b.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", filename)
	require.NoError(b.t, err)
	_, err = part.Write(content)
	require.NoError(b.t, err)
	require.NoError(b.t, w.Close())

	resp, err := b.client.Post(b.base+path, w.FormDataContentType(), &buf)
	require.NoError(b.t, err)
	code, _ := read(b.t, resp)
	return code, resp.Header.Get("Location")
}

// parentID finds the id of the thread at path from the reply form.
func parentID(t *testing.T, b *browser, path string) string {
	t.Helper()
	_, body := b.get(path)
	const marker = `name="parent_id" value="`
	i := strings.Index(body, marker)
	require.GreaterOrEqual(t, i, 0)
	rest := body[i+len(marker):]
	return rest[:strings.Index(rest, `"`)]
}

func TestErrorHandler_RendersLayout(t *testing.T) {
	t.Parallel()

	app := candlewax.New(
		candlewax.WithErrorHandler(site.ErrorHandler()),
		candlewax.WithMiddleware(func(candlewax.HandlerFunc) candlewax.HandlerFunc {
			return func(candlewax.Context) error { return candlewax.ErrForbidden("members only") }
		}),
		candlewax.WithDispatcher(candlewax.NewRouter(candlewax.NewInjector(), candlewax.NewViews())),
	)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "<title>Forbidden | Candlewax Games</title>")
	assert.Contains(t, rec.Body.String(), "We could not handle that request.")
}

func TestSite_DefaultModuleKeepsNotFoundPage(t *testing.T) {
	t.Parallel()

	b, _, _ := newSite(t, func(cfg *site.Config) { cfg.DefaultModule = "Discussion" })

	for _, path := range []string{"/made/up/nowhere", "/"} {
		code, body := b.get(path)
		assert.Equal(t, http.StatusNotFound, code, path)
		assert.Contains(t, body, "<!doctype html>", path)
		assert.Contains(t, body, "Page not found", path)
	}
}
