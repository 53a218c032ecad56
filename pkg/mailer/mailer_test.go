package mailer_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/candlewaxgames/candlewax/pkg/mailer"
)

type recordingSender struct {
	err  error
	sent []*mailer.Email
}

func (s *recordingSender) Send(_ context.Context, email *mailer.Email) error {
	s.sent = append(s.sent, email)
	return s.err
}

var templates = fstest.MapFS{
	"layouts/base.html": {Data: []byte(`<html><body>{{.Content}}</body></html>`)},
	"verify.md":         {Data: []byte("---\nsubject: Verify your email, {{.Username}}\n---\nHi **{{.Username}}**, open {{.Link}}\n")},
	"plain.md":          {Data: []byte("No frontmatter here.")},
	"broken.md":         {Data: []byte("---\nsubject: never closed\n")},
}

func TestMailer_Send(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	m := mailer.New(sender, mailer.NewRenderer(templates), mailer.Config{})

	err := m.Send(context.Background(), "ann@example.com", "verify.md", map[string]string{
		"Username": "ann",
		"Link":     "https://example.com/verify?token=abc",
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	email := sender.sent[0]
	assert.Equal(t, []string{"ann@example.com"}, email.To)
	assert.Equal(t, "Verify your email, ann", email.Subject)
	assert.Contains(t, email.HTML, "<html><body><p>Hi <strong>ann</strong>")
	assert.Contains(t, email.Text, "Hi **ann**")
}

func TestMailer_SendFallbackSubject(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	m := mailer.New(sender, mailer.NewRenderer(templates), mailer.Config{FallbackSubject: "Candlewax Games"})

	require.NoError(t, m.Send(context.Background(), "ann@example.com", "plain.md", nil))
	assert.Equal(t, "Candlewax Games", sender.sent[0].Subject)
}

func TestMailer_SendErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	m := mailer.New(&recordingSender{}, mailer.NewRenderer(templates), mailer.Config{})
	assert.ErrorIs(t, m.Send(ctx, "", "verify.md", nil), mailer.ErrNoRecipient)
	assert.ErrorIs(t, m.Send(ctx, "a@example.com", "missing.md", nil), mailer.ErrTemplateNotFound)
	assert.ErrorIs(t, m.Send(ctx, "a@example.com", "broken.md", nil), mailer.ErrInvalidFrontmatter)

	noLayout := mailer.New(&recordingSender{}, mailer.NewRenderer(templates), mailer.Config{Layout: "other.html"})
	assert.ErrorIs(t, noLayout.Send(ctx, "a@example.com", "plain.md", nil), mailer.ErrLayoutNotFound)

	failing := mailer.New(&recordingSender{err: errors.New("rejected")}, mailer.NewRenderer(templates), mailer.Config{})
	assert.ErrorIs(t, failing.Send(ctx, "a@example.com", "plain.md", nil), mailer.ErrSendFailed)
}

func TestMailer_SendRaw(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := mailer.New(&recordingSender{}, nil, mailer.Config{})

	assert.ErrorIs(t, m.SendRaw(ctx, &mailer.Email{}), mailer.ErrNoRecipient)
	assert.ErrorIs(t, m.SendRaw(ctx, &mailer.Email{To: []string{"a"}}), mailer.ErrNoSubject)
	assert.ErrorIs(t, m.SendRaw(ctx, &mailer.Email{To: []string{"a"}, Subject: "s"}), mailer.ErrNoContent)
	assert.NoError(t, m.SendRaw(ctx, &mailer.Email{To: []string{"a"}, Subject: "s", HTML: "<p>x</p>"}))
}

func TestParseTemplate(t *testing.T) {
	t.Parallel()

	meta, body, err := mailer.ParseTemplate([]byte("---\nsubject: Hello\npriority: 2\n---\nBody\n"))
	require.NoError(t, err)
	assert.Equal(t, "Hello", meta["subject"])
	assert.Equal(t, 2, meta["priority"])
	assert.Equal(t, "Body\n", body)

	meta, body, err = mailer.ParseTemplate([]byte("Just body"))
	require.NoError(t, err)
	assert.Empty(t, meta)
	assert.Equal(t, "Just body", body)

	_, _, err = mailer.ParseTemplate([]byte("---\nsubject: [unclosed\n---\n"))
	assert.ErrorIs(t, err, mailer.ErrInvalidFrontmatter)
}

func TestLogSender(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := mailer.LogSender{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	require.NoError(t, s.Send(context.Background(), &mailer.Email{To: []string{"a@example.com"}, Subject: "Hi"}))
	assert.Contains(t, buf.String(), "subject=Hi")

	assert.ErrorIs(t, mailer.LogSender{}.Send(context.Background(), &mailer.Email{}), mailer.ErrSendFailed)
}

func TestAddress(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Candlewax <hi@example.com>", mailer.Address("Candlewax", "hi@example.com"))
	assert.Equal(t, "hi@example.com", mailer.Address("", "hi@example.com"))
}
