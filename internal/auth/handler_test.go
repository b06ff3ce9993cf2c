package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/saasfly/saasfly/internal/account"
	"github.com/saasfly/saasfly/internal/identity"
	"github.com/saasfly/saasfly/internal/web"
	"github.com/saasfly/saasfly/pkg/cookie"
	"github.com/saasfly/saasfly/pkg/locale"
	"github.com/saasfly/saasfly/pkg/mailer"
	"github.com/saasfly/saasfly/pkg/oauth"
	"github.com/saasfly/saasfly/pkg/tokenstore"
)

type fakeUsers struct {
	mu      sync.Mutex
	users   map[string]*account.User
	signIns []account.User
	err     error
}

func (f *fakeUsers) UserByEmail(_ context.Context, email string) (*account.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[email]; ok {
		return u, nil
	}
	return nil, account.ErrUserNotFound
}

func (f *fakeUsers) SignIn(_ context.Context, u account.User) (*account.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.signIns = append(f.signIns, u)
	if existing, ok := f.users[u.Email]; ok {
		return existing, nil
	}
	u.ID = "user-" + u.Email
	f.users[u.Email] = &u
	return &u, nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mailer.SendParams
	err  error
}

func (f *fakeMailer) Send(_ context.Context, p mailer.SendParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, p)
	return f.err
}

type fakeOAuth struct {
	name    string
	info    *oauth.UserInfo
	infoErr error
}

func (f *fakeOAuth) Name() string { return f.name }

func (f *fakeOAuth) AuthCodeURL(state string, _ ...oauth2.AuthCodeOption) string {
	return "https://idp.test/authorize?state=" + url.QueryEscape(state)
}

func (f *fakeOAuth) Exchange(_ context.Context, code, _ string) (*oauth2.Token, error) {
	if code != "good-code" {
		return nil, oauth.ErrExchangeFailed
	}
	return &oauth2.Token{AccessToken: "at"}, nil
}

func (f *fakeOAuth) FetchUserInfo(context.Context, *oauth2.Token) (*oauth.UserInfo, error) {
	return f.info, f.infoErr
}

type fixture struct {
	app    *web.App
	users  *fakeUsers
	mail   *fakeMailer
	issuer *identity.Issuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := tokenstore.NewMemory(time.Minute)
	t.Cleanup(func() { _ = store.Close() })

	issuer, err := identity.NewIssuer(identity.SessionConfig{Secret: testSecret, Issuer: "saasfly"}, store)
	require.NoError(t, err)
	links, err := NewMagicLinks(testSecret, "saasfly", 0, store)
	require.NoError(t, err)
	locales, err := locale.New([]string{"en", "zh"}, "en")
	require.NoError(t, err)

	verified := time.Now()
	f := &fixture{
		users: &fakeUsers{users: map[string]*account.User{
			"known@example.com": {ID: "u-known", Name: "Known", Email: "known@example.com", EmailVerified: &verified},
			"fresh@example.com": {ID: "u-fresh", Email: "fresh@example.com"},
		}},
		mail:   &fakeMailer{},
		issuer: issuer,
	}
	registry := oauth.NewRegistry(
		&fakeOAuth{name: "google", info: &oauth.UserInfo{ID: "g1", Email: "ann@example.com", Name: "Ann", Picture: "https://img"}},
		&fakeOAuth{name: "github", infoErr: oauth.ErrEmailNotVerified},
	)

	h, err := NewHandler(
		Config{BaseURL: "https://saasfly.io/", SiteName: "Saasfly"},
		f.users, issuer, locales,
		cookie.New(cookie.WithSecret(testSecret)),
		WithOAuth(registry),
		WithMagicLinks(links, f.mail),
		WithResolver(identity.NewSessionProvider(issuer, identity.ParseAdminList("known@example.com"), nil)),
	)
	require.NoError(t, err)
	f.app = web.New(web.WithHandlers(h))
	return f
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.app.ServeHTTP(rec, req)
	return rec
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// startOAuth runs the sign-in redirect and returns the state cookie and value.
func (f *fixture) startOAuth(t *testing.T, provider, callbackURL string) (*http.Cookie, string) {
	t.Helper()
	target := "/api/auth/signin/" + provider
	if callbackURL != "" {
		target += "?callbackUrl=" + url.QueryEscape(callbackURL)
	}
	rec := f.do(httptest.NewRequest(http.MethodGet, target, nil))
	require.Equal(t, http.StatusFound, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "idp.test", loc.Host)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)

	ck := findCookie(rec, stateCookie)
	require.NotNil(t, ck)
	assert.True(t, ck.HttpOnly)
	return ck, state
}

func (f *fixture) callback(provider, query string, ck *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/auth/callback/"+provider+"?"+query, nil)
	if ck != nil {
		req.AddCookie(ck)
	}
	return f.do(req)
}

func TestOAuthSignIn(t *testing.T) {
	t.Parallel()

	t.Run("unknown provider", func(t *testing.T) {
		t.Parallel()
		rec := newFixture(t).do(httptest.NewRequest(http.MethodGet, "/api/auth/signin/twitter", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("full flow", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ck, state := f.startOAuth(t, "google", "")

		rec := f.callback("google", "code=good-code&state="+state, ck)
		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/en/dashboard", rec.Header().Get("Location"))

		session := findCookie(rec, identity.DefaultSessionCookie)
		require.NotNil(t, session)
		id, err := f.issuer.Verify(context.Background(), session.Value)
		require.NoError(t, err)
		assert.Equal(t, "user-ann@example.com", id.ID)
		assert.Equal(t, "Ann", id.Name)

		require.Len(t, f.users.signIns, 1)
		assert.NotNil(t, f.users.signIns[0].EmailVerified)
		assert.Equal(t, "https://img", f.users.signIns[0].Image)

		cleared := findCookie(rec, stateCookie)
		require.NotNil(t, cleared)
		assert.Negative(t, cleared.MaxAge)
	})

	t.Run("same-origin callback url is honoured", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ck, state := f.startOAuth(t, "google", "https://saasfly.io/zh/dashboard/billing")
		rec := f.callback("google", "code=good-code&state="+state, ck)
		assert.Equal(t, "/zh/dashboard/billing", rec.Header().Get("Location"))
	})

	t.Run("foreign callback url is dropped", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ck, state := f.startOAuth(t, "google", "https://evil.test/")
		rec := f.callback("google", "code=good-code&state="+state, ck)
		assert.Equal(t, "/en/dashboard", rec.Header().Get("Location"))
	})
}

func TestOAuthCallbackFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		provider string
		query    func(state string) string
		noCookie bool
		want     string
	}{
		{
			name:     "missing state cookie",
			provider: "google",
			query:    func(s string) string { return "code=good-code&state=" + s },
			noCookie: true,
			want:     "/en/login?error=OAuthCallback",
		},
		{
			name:     "state mismatch",
			provider: "google",
			query:    func(string) string { return "code=good-code&state=forged" },
			want:     "/en/login?error=OAuthCallback",
		},
		{
			name:     "provider error",
			provider: "google",
			query:    func(s string) string { return "error=access_denied&state=" + s },
			want:     "/en/login?error=OAuthCallback",
		},
		{
			name:     "bad code",
			provider: "google",
			query:    func(s string) string { return "code=bad&state=" + s },
			want:     "/en/login?error=OAuthCallback",
		},
		{
			name:     "unverified email",
			provider: "github",
			query:    func(s string) string { return "code=good-code&state=" + s },
			want:     "/en/login?error=EmailNotVerified",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			ck, state := f.startOAuth(t, tt.provider, "")
			if tt.noCookie {
				ck = nil
			}
			rec := f.callback(tt.provider, tt.query(state), ck)
			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, tt.want, rec.Header().Get("Location"))
			assert.Nil(t, findCookie(rec, identity.DefaultSessionCookie))
			assert.Empty(t, f.users.signIns)
		})
	}

	t.Run("state from another provider", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ck, state := f.startOAuth(t, "github", "")
		rec := f.callback("google", "code=good-code&state="+state, ck)
		assert.Equal(t, "/en/login?error=OAuthCallback", rec.Header().Get("Location"))
	})

	t.Run("storage failure", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.users.err = errors.New("db down")
		ck, state := f.startOAuth(t, "google", "")
		rec := f.callback("google", "code=good-code&state="+state, ck)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func emailSignIn(f *fixture, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signin/email", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return f.do(req)
}

func TestEmailSignIn(t *testing.T) {
	t.Parallel()

	t.Run("invalid email", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		for _, body := range []string{`{"email":"nope"}`, `{}`, `not json`} {
			rec := emailSignIn(f, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, body)
			assert.JSONEq(t, `{"error":"Invalid email"}`, rec.Body.String())
		}
		assert.Empty(t, f.mail.sent)
	})

	t.Run("verified user gets a sign-in link", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		rec := emailSignIn(f, `{"email":" Known@Example.com "}`)
		require.Equal(t, http.StatusOK, rec.Code)

		require.Len(t, f.mail.sent, 1)
		sent := f.mail.sent[0]
		assert.Equal(t, "known@example.com", sent.To)
		assert.Equal(t, "Sign-in link for Saasfly", sent.Subject)
		assert.Equal(t, MagicLinkTemplate, sent.Template)
		assert.NotEmpty(t, sent.Headers["X-Entity-Ref-ID"])

		data := sent.Data.(magicLinkData)
		assert.Equal(t, "login", data.MailType)
		assert.Equal(t, "Known", data.FirstName)
		assert.True(t, strings.HasPrefix(data.ActionURL, "https://saasfly.io/api/auth/callback/email?token="))
	})

	t.Run("unverified and unknown users get an activation link", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		emailSignIn(f, `{"email":"fresh@example.com"}`)
		emailSignIn(f, `{"email":"new@example.com"}`)

		require.Len(t, f.mail.sent, 2)
		for _, sent := range f.mail.sent {
			assert.Equal(t, "Activate your account", sent.Subject)
			assert.Equal(t, "register", sent.Data.(magicLinkData).MailType)
		}
	})

	t.Run("send failures are not surfaced", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.mail.err = errors.New("smtp down")
		rec := emailSignIn(f, `{"email":"known@example.com"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestEmailCallback(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	emailSignIn(f, `{"email":"new@example.com","callbackUrl":"/en/dashboard/settings"}`)
	require.Len(t, f.mail.sent, 1)

	action, err := url.Parse(f.mail.sent[0].Data.(magicLinkData).ActionURL)
	require.NoError(t, err)

	rec := f.do(httptest.NewRequest(http.MethodGet, action.RequestURI(), nil))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/en/dashboard/settings", rec.Header().Get("Location"))
	require.NotNil(t, findCookie(rec, identity.DefaultSessionCookie))

	require.Len(t, f.users.signIns, 1)
	assert.Equal(t, "new@example.com", f.users.signIns[0].Email)
	assert.NotNil(t, f.users.signIns[0].EmailVerified)

	again := f.do(httptest.NewRequest(http.MethodGet, action.RequestURI(), nil))
	assert.Equal(t, "/en/login?error=Verification", again.Header().Get("Location"))
	assert.Nil(t, findCookie(again, identity.DefaultSessionCookie))
}

func TestSessionAndSignOut(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/auth/session", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())

	token, _, err := f.issuer.Issue(identity.Identity{ID: "u-known", Email: "known@example.com", Name: "Known"})
	require.NoError(t, err)
	withSession := func(method, target string) *http.Request {
		req := httptest.NewRequest(method, target, nil)
		req.AddCookie(&http.Cookie{Name: identity.DefaultSessionCookie, Value: token})
		return req
	}

	rec = f.do(withSession(http.MethodGet, "/api/auth/session"))
	var body struct {
		User identity.Identity `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "u-known", body.User.ID)
	assert.True(t, body.User.IsAdmin)

	rec = f.do(withSession(http.MethodPost, "/api/auth/signout"))
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := findCookie(rec, identity.DefaultSessionCookie)
	require.NotNil(t, cleared)
	assert.Negative(t, cleared.MaxAge)

	_, err = f.issuer.Verify(context.Background(), token)
	require.ErrorIs(t, err, identity.ErrRevokedToken)

	rec = f.do(withSession(http.MethodGet, "/api/auth/session"))
	assert.JSONEq(t, `{}`, rec.Body.String())
}

func TestEmailSignInDisabled(t *testing.T) {
	t.Parallel()

	locales, err := locale.New([]string{"en"}, "en")
	require.NoError(t, err)
	issuer, err := identity.NewIssuer(identity.SessionConfig{Secret: testSecret}, nil)
	require.NoError(t, err)
	h, err := NewHandler(Config{BaseURL: "https://saasfly.io"}, &fakeUsers{}, issuer, locales, cookie.New())
	require.NoError(t, err)
	app := web.New(web.WithHandlers(h))

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/signin/email", strings.NewReader(`{"email":"a@b.co"}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/signin/google", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMagicLinkEmailRenders(t *testing.T) {
	t.Parallel()

	r := mailer.NewRenderer(Emails, mailer.RendererConfig{TemplateDir: "emails", LayoutDir: "emails/layouts"})
	res, err := r.Render("base.html", MagicLinkTemplate, magicLinkData{
		FirstName: "Ann",
		ActionURL: "https://saasfly.io/api/auth/callback/email?token=abc",
		MailType:  "login",
		SiteName:  "Saasfly",
	})
	require.NoError(t, err)
	assert.Contains(t, res.HTML, "Hi Ann,")
	assert.Contains(t, res.HTML, "Welcome back to Saasfly")
	assert.Contains(t, res.HTML, `class="button"`)
	assert.Contains(t, res.HTML, "Sign in</a>")
}
