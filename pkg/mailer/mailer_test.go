package mailer_test

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saasfly/saasfly/pkg/mailer"
)

var testFS = fstest.MapFS{
	"layouts/base.html": {Data: []byte(`<html><body>{{.Content}}</body></html>`)},
	"welcome.md": {Data: []byte(`---
Subject: Welcome to {{.Site}}
---
Hello **{{.Name}}**

[Open]({{.URL}} "button")
`)},
	"plain.md":  {Data: []byte("No frontmatter for {{.Name}}\n")},
	"broken.md": {Data: []byte("---\nSubject: x\nno closing\n")},
}

type recorder struct {
	sent []*mailer.Email
	err  error
}

func (r *recorder) Send(_ context.Context, e *mailer.Email) error {
	r.sent = append(r.sent, e)
	return r.err
}

func newMailer(s mailer.Sender) *mailer.Mailer {
	return mailer.New(s, mailer.NewRenderer(testFS, mailer.RendererConfig{}), mailer.Config{
		FallbackSubject: "Notification",
		DefaultLayout:   "base.html",
	})
}

type data struct {
	Site, Name, URL string
}

func TestMailer_Send(t *testing.T) {
	t.Parallel()

	t.Run("renders template and subject from frontmatter", func(t *testing.T) {
		t.Parallel()
		rec := &recorder{}
		err := newMailer(rec).Send(context.Background(), mailer.SendParams{
			To:       "u@example.com",
			Template: "welcome.md",
			Data:     data{Site: "Saasfly", Name: "Ann", URL: "https://x.test/a?b=1"},
			Headers:  map[string]string{"X-Entity-Ref-ID": "1"},
		})
		require.NoError(t, err)
		require.Len(t, rec.sent, 1)

		e := rec.sent[0]
		assert.Equal(t, []string{"u@example.com"}, e.To)
		assert.Equal(t, "Welcome to Saasfly", e.Subject)
		assert.Contains(t, e.HTML, "<html><body>")
		assert.Contains(t, e.HTML, "<strong>Ann</strong>")
		assert.Contains(t, e.HTML, `class="button"`)
		assert.Contains(t, e.HTML, `href="https://x.test/a?b=1"`)
		assert.NotContains(t, e.HTML, `title="button"`)
		assert.Contains(t, e.Text, "Hello **Ann**")
		assert.Equal(t, "1", e.Headers["X-Entity-Ref-ID"])
	})

	t.Run("explicit subject wins", func(t *testing.T) {
		t.Parallel()
		rec := &recorder{}
		err := newMailer(rec).Send(context.Background(), mailer.SendParams{
			To: "u@example.com", Template: "welcome.md", Subject: "Hi {{.Name}}", Data: data{Name: "Bo"},
		})
		require.NoError(t, err)
		assert.Equal(t, "Hi Bo", rec.sent[0].Subject)
	})

	t.Run("fallback subject", func(t *testing.T) {
		t.Parallel()
		rec := &recorder{}
		err := newMailer(rec).Send(context.Background(), mailer.SendParams{
			To: "u@example.com", Template: "plain.md", Data: data{Name: "Bo"},
		})
		require.NoError(t, err)
		assert.Equal(t, "Notification", rec.sent[0].Subject)
	})

	t.Run("missing recipient", func(t *testing.T) {
		t.Parallel()
		err := newMailer(&recorder{}).Send(context.Background(), mailer.SendParams{Template: "plain.md"})
		assert.ErrorIs(t, err, mailer.ErrNoRecipient)
	})

	t.Run("missing template", func(t *testing.T) {
		t.Parallel()
		err := newMailer(&recorder{}).Send(context.Background(), mailer.SendParams{To: "u@x.y", Template: "nope.md"})
		assert.ErrorIs(t, err, mailer.ErrTemplateNotFound)
	})

	t.Run("missing layout", func(t *testing.T) {
		t.Parallel()
		err := newMailer(&recorder{}).Send(context.Background(), mailer.SendParams{
			To: "u@x.y", Template: "plain.md", Layout: "other.html",
		})
		assert.ErrorIs(t, err, mailer.ErrLayoutNotFound)
	})

	t.Run("invalid frontmatter", func(t *testing.T) {
		t.Parallel()
		err := newMailer(&recorder{}).Send(context.Background(), mailer.SendParams{To: "u@x.y", Template: "broken.md"})
		assert.ErrorIs(t, err, mailer.ErrInvalidFrontmatter)
	})

	t.Run("sender failure", func(t *testing.T) {
		t.Parallel()
		rec := &recorder{err: errors.New("boom")}
		err := newMailer(rec).Send(context.Background(), mailer.SendParams{To: "u@x.y", Template: "plain.md"})
		assert.ErrorIs(t, err, mailer.ErrSendFailed)
	})
}

func TestMailer_SendRaw(t *testing.T) {
	t.Parallel()

	m := newMailer(&recorder{})
	ctx := context.Background()
	assert.ErrorIs(t, m.SendRaw(ctx, &mailer.Email{}), mailer.ErrNoRecipient)
	assert.ErrorIs(t, m.SendRaw(ctx, &mailer.Email{To: []string{"a@b.c"}}), mailer.ErrNoSubject)
	assert.ErrorIs(t, m.SendRaw(ctx, &mailer.Email{To: []string{"a@b.c"}, Subject: "s"}), mailer.ErrNoContent)
	assert.NoError(t, m.SendRaw(ctx, &mailer.Email{To: []string{"a@b.c"}, Subject: "s", HTML: "<p/>"}))
}

func TestParseTemplate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		meta    map[string]any
		body    string
		wantErr bool
	}{
		{name: "no frontmatter", in: "body\n", meta: map[string]any{}, body: "body\n"},
		{name: "frontmatter", in: "---\nSubject: Hi\n---\nbody", meta: map[string]any{"Subject": "Hi"}, body: "body"},
		{name: "crlf", in: "---\r\nSubject: Hi\r\n---\r\nbody", meta: map[string]any{"Subject": "Hi"}, body: "body"},
		{name: "empty frontmatter", in: "---\n---\nbody", meta: map[string]any{}, body: "body"},
		{name: "unterminated", in: "---\nSubject: Hi\n", wantErr: true},
		{name: "bad yaml", in: "---\n: [\n---\nbody", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := mailer.ParseTemplate([]byte(tt.in))
			if tt.wantErr {
				assert.ErrorIs(t, err, mailer.ErrInvalidFrontmatter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.meta, got.Metadata)
			assert.Equal(t, tt.body, got.Body)
		})
	}
}

func TestRecipient(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "a@b.c", mailer.Recipient("", "a@b.c"))
	assert.Equal(t, "Ann <a@b.c>", mailer.Recipient("Ann", "a@b.c"))
}

func TestLogSender(t *testing.T) {
	t.Parallel()
	assert.NoError(t, mailer.LogSender{}.Send(context.Background(), &mailer.Email{To: []string{"a@b.c"}}))
}
