package auth

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saasfly/saasfly/internal/identity"
	"github.com/saasfly/saasfly/pkg/tokenstore"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newLinks(t *testing.T) *MagicLinks {
	t.Helper()
	store := tokenstore.NewMemory(time.Minute)
	t.Cleanup(func() { _ = store.Close() })
	links, err := NewMagicLinks(testSecret, "saasfly", 0, store)
	require.NoError(t, err)
	return links
}

func TestNewMagicLinks(t *testing.T) {
	t.Parallel()

	_, err := NewMagicLinks("", "saasfly", 0, tokenstore.NewMemory(0))
	require.ErrorIs(t, err, ErrMissingSecret)
	_, err = NewMagicLinks(testSecret, "saasfly", 0, nil)
	require.ErrorIs(t, err, ErrMissingStore)
}

func TestMagicLinks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("redeemable once", func(t *testing.T) {
		t.Parallel()
		links := newLinks(t)
		token, err := links.Issue(ctx, "ann@example.com", "/en/billing")
		require.NoError(t, err)

		link, err := links.Consume(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, &Link{Email: "ann@example.com", CallbackURL: "/en/billing"}, link)

		_, err = links.Consume(ctx, token)
		require.ErrorIs(t, err, ErrLinkUsed)
	})

	t.Run("expired", func(t *testing.T) {
		t.Parallel()
		links := newLinks(t)
		token, err := links.Issue(ctx, "ann@example.com", "")
		require.NoError(t, err)

		links.now = func() time.Time { return time.Now().Add(DefaultLinkTTL + time.Minute) }
		_, err = links.Consume(ctx, token)
		require.ErrorIs(t, err, ErrInvalidLink)
	})

	t.Run("garbage", func(t *testing.T) {
		t.Parallel()
		links := newLinks(t)
		_, err := links.Consume(ctx, "")
		require.ErrorIs(t, err, ErrInvalidLink)
		_, err = links.Consume(ctx, "not.a.jwt")
		require.ErrorIs(t, err, ErrInvalidLink)
	})

	t.Run("session tokens are not links", func(t *testing.T) {
		t.Parallel()
		iss, err := identity.NewIssuer(identity.SessionConfig{Secret: testSecret, Issuer: "saasfly"}, nil)
		require.NoError(t, err)
		session, _, err := iss.Issue(identity.Identity{ID: "u1", Email: "ann@example.com"})
		require.NoError(t, err)

		_, err = newLinks(t).Consume(ctx, session)
		require.ErrorIs(t, err, ErrInvalidLink)
	})

	t.Run("links are not session tokens", func(t *testing.T) {
		t.Parallel()
		token, err := newLinks(t).Issue(ctx, "ann@example.com", "")
		require.NoError(t, err)
		iss, err := identity.NewIssuer(identity.SessionConfig{Secret: testSecret, Issuer: "saasfly"}, nil)
		require.NoError(t, err)

		_, err = iss.Verify(ctx, token)
		require.ErrorIs(t, err, identity.ErrInvalidToken)
	})
}

func TestSameOrigin(t *testing.T) {
	t.Parallel()

	base, _ := url.Parse("https://saasfly.io")
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "", ok: false},
		{in: "/en/dashboard", want: "/en/dashboard", ok: true},
		{in: "/en/billing?x=1", want: "/en/billing?x=1", ok: true},
		{in: "https://saasfly.io/zh/dashboard", want: "/zh/dashboard", ok: true},
		{in: "https://evil.test/en", ok: false},
		{in: "http://saasfly.io/en", ok: false},
		{in: "//evil.test/en", ok: false},
		{in: "/\\evil.test", ok: false},
		{in: "en/dashboard", ok: false},
		{in: "javascript:alert(1)", ok: false},
	}
	for _, tt := range tests {
		got, ok := sameOrigin(base, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
