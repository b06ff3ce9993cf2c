package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/saasfly/saasfly/internal/account"
	"github.com/saasfly/saasfly/internal/identity"
	"github.com/saasfly/saasfly/internal/route"
	"github.com/saasfly/saasfly/internal/web"
	"github.com/saasfly/saasfly/pkg/cookie"
	"github.com/saasfly/saasfly/pkg/locale"
	"github.com/saasfly/saasfly/pkg/mailer"
	"github.com/saasfly/saasfly/pkg/oauth"
)

const (
	stateCookie = "saasfly.oauth-state"
	stateMaxAge = 10 * 60
)

// Sign-in error codes passed to the login page as ?error=.
const (
	ErrorOAuthCallback    = "OAuthCallback"
	ErrorEmailNotVerified = "EmailNotVerified"
	ErrorVerification     = "Verification"
)

// Users is the account storage the handler needs.
type Users interface {
	UserByEmail(ctx context.Context, email string) (*account.User, error)
	SignIn(ctx context.Context, u account.User) (*account.User, error)
}

// Sessions issues and revokes session tokens. *identity.Issuer implements it.
type Sessions interface {
	Issue(id identity.Identity) (string, time.Time, error)
	Revoke(ctx context.Context, token string) error
	CookieName() string
}

// Mailer sends templated email. *mailer.Mailer implements it.
type Mailer interface {
	Send(ctx context.Context, params mailer.SendParams) error
}

// Config holds site settings used in links and emails.
type Config struct {
	BaseURL  string
	SiteName string
}

// Handler serves /api/auth.
type Handler struct {
	cfg      Config
	base     *url.URL
	users    Users
	sessions Sessions
	locales  *locale.Negotiator
	cookies  *cookie.Manager
	resolver identity.Provider
	oauth    *oauth.Registry
	links    *MagicLinks
	mail     Mailer
	validate *validator.Validate
	now      func() time.Time
}

// Option configures a Handler.
type Option func(*Handler)

// WithOAuth enables provider sign-in.
func WithOAuth(reg *oauth.Registry) Option {
	return func(h *Handler) { h.oauth = reg }
}

// WithMagicLinks enables email sign-in.
func WithMagicLinks(links *MagicLinks, m Mailer) Option {
	return func(h *Handler) { h.links, h.mail = links, m }
}

// WithResolver sets the provider used by the session endpoint.
func WithResolver(p identity.Provider) Option {
	return func(h *Handler) { h.resolver = p }
}

// NewHandler creates the handler. cookies must be able to sign; the OAuth
// state cookie depends on it.
func NewHandler(cfg Config, users Users, sessions Sessions, locales *locale.Negotiator, cookies *cookie.Manager, opts ...Option) (*Handler, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	h := &Handler{
		cfg:      cfg,
		base:     base,
		users:    users,
		sessions: sessions,
		locales:  locales,
		cookies:  cookies,
		resolver: identity.Anonymous,
		validate: validator.New(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Routes implements web.Handler.
func (h *Handler) Routes(r web.Router) {
	r.Route("/api/auth", func(r web.Router) {
		r.GET("/session", h.session)
		r.POST("/signout", h.signOut)
		r.POST("/signin/email", h.emailSignIn)
		r.GET("/callback/email", h.emailCallback)
		r.GET("/signin/{provider}", h.oauthSignIn)
		r.GET("/callback/{provider}", h.oauthCallback)
	})
}

type sessionResponse struct {
	User    *identity.Identity `json:"user"`
	Expires string             `json:"expires,omitempty"`
}

func (h *Handler) session(c web.Context) error {
	id := c.Identity()
	if id == nil {
		id = h.resolver.Resolve(c, c.Request())
	}
	if id == nil {
		return c.JSON(http.StatusOK, struct{}{})
	}
	return c.JSON(http.StatusOK, sessionResponse{User: id})
}

func (h *Handler) signOut(c web.Context) error {
	name := h.sessions.CookieName()
	if token, err := c.Cookie(name); err == nil && token != "" {
		if err := h.sessions.Revoke(c, token); err != nil {
			return web.ErrInternal("Failed to sign out", web.WithError(err))
		}
	}
	h.cookies.Delete(c.Response(), name)
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

type oauthState struct {
	State       string `json:"s"`
	Provider    string `json:"p"`
	CallbackURL string `json:"cb,omitempty"`
}

func (h *Handler) oauthSignIn(c web.Context) error {
	p, err := h.oauth.Lookup(c.Param("provider"))
	if err != nil {
		return c.Error(http.StatusNotFound, "Unknown provider")
	}

	st := oauthState{State: rand.Text(), Provider: p.Name()}
	st.CallbackURL, _ = sameOrigin(h.base, c.Query("callbackUrl"))
	if err := h.cookies.SetSignedJSON(c.Response(), stateCookie, st, stateMaxAge); err != nil {
		return web.ErrInternal("Failed to start sign-in", web.WithError(err))
	}
	return c.Redirect(http.StatusFound, p.AuthCodeURL(st.State))
}

func (h *Handler) oauthCallback(c web.Context) error {
	p, err := h.oauth.Lookup(c.Param("provider"))
	if err != nil {
		return c.Error(http.StatusNotFound, "Unknown provider")
	}
	loc := h.locale(c)

	var st oauthState
	stateErr := h.cookies.GetSignedJSON(c.Request(), stateCookie, &st)
	h.cookies.Delete(c.Response(), stateCookie)
	switch {
	case stateErr != nil:
		return h.fail(c, loc, ErrorOAuthCallback, stateErr)
	case st.Provider != p.Name() || subtle.ConstantTimeCompare([]byte(st.State), []byte(c.Query("state"))) != 1:
		return h.fail(c, loc, ErrorOAuthCallback, errors.New("state mismatch"))
	case c.Query("error") != "":
		return h.fail(c, loc, ErrorOAuthCallback, errors.New(c.Query("error")))
	}

	token, err := p.Exchange(c, c.Query("code"), "")
	if err != nil {
		return h.fail(c, loc, ErrorOAuthCallback, err)
	}
	info, err := p.FetchUserInfo(c, token)
	if errors.Is(err, oauth.ErrEmailNotVerified) {
		return h.fail(c, loc, ErrorEmailNotVerified, err)
	}
	if err != nil {
		return h.fail(c, loc, ErrorOAuthCallback, err)
	}

	now := h.now()
	user, err := h.users.SignIn(c, account.User{
		Name:          info.Name,
		Email:         info.Email,
		Image:         info.Picture,
		EmailVerified: &now,
	})
	if err != nil {
		return web.ErrInternal("Failed to sign in", web.WithError(err))
	}
	return h.startSession(c, user, st.CallbackURL, loc)
}

type emailSignInRequest struct {
	Email       string `json:"email"`
	CallbackURL string `json:"callbackUrl"`
}

func (h *Handler) emailSignIn(c web.Context) error {
	if h.links == nil {
		return c.Error(http.StatusNotFound, "Email sign-in is not enabled")
	}

	var req emailSignInRequest
	if err := json.NewDecoder(io.LimitReader(c.Request().Body, 1<<14)).Decode(&req); err != nil {
		return c.Error(http.StatusBadRequest, "Invalid email")
	}
	email := account.NormalizeEmail(req.Email)
	if err := h.validate.Var(email, "required,email"); err != nil {
		return c.Error(http.StatusBadRequest, "Invalid email")
	}

	cb, _ := sameOrigin(h.base, req.CallbackURL)
	token, err := h.links.Issue(c, email, cb)
	if err != nil {
		return web.ErrInternal("Failed to create sign-in link", web.WithError(err))
	}

	user, err := h.users.UserByEmail(c, email)
	if err != nil && !errors.Is(err, account.ErrUserNotFound) {
		c.LogWarn("lookup user for magic link", slog.Any("error", err))
	}
	data := magicLinkData{
		ActionURL: h.url("/api/auth/callback/email?token=" + url.QueryEscape(token)),
		MailType:  "register",
		SiteName:  h.cfg.SiteName,
	}
	subject := "Activate your account"
	if user.Verified() {
		data.MailType = "login"
		subject = "Sign-in link for " + h.cfg.SiteName
	}
	if user != nil {
		data.FirstName = user.Name
	}

	err = h.mail.Send(c, mailer.SendParams{
		To:       email,
		Template: MagicLinkTemplate,
		Subject:  subject,
		Data:     data,
		// Keeps Gmail from threading separate sign-in emails.
		Headers: map[string]string{"X-Entity-Ref-ID": strconv.FormatInt(h.now().UnixMilli(), 10)},
		Tags:    map[string]string{"category": "magic-link"},
	})
	if err != nil {
		c.LogError("send magic link", slog.Any("error", err))
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) emailCallback(c web.Context) error {
	if h.links == nil {
		return c.Error(http.StatusNotFound, "Email sign-in is not enabled")
	}
	loc := h.locale(c)

	link, err := h.links.Consume(c, c.Query("token"))
	if err != nil {
		return h.fail(c, loc, ErrorVerification, err)
	}

	now := h.now()
	user, err := h.users.SignIn(c, account.User{Email: link.Email, EmailVerified: &now})
	if err != nil {
		return web.ErrInternal("Failed to sign in", web.WithError(err))
	}
	return h.startSession(c, user, link.CallbackURL, loc)
}

func (h *Handler) startSession(c web.Context, u *account.User, callbackURL, loc string) error {
	token, exp, err := h.sessions.Issue(identity.Identity{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Image: u.Image,
	})
	if err != nil {
		return web.ErrInternal("Failed to sign in", web.WithError(err))
	}
	h.cookies.Set(c.Response(), h.sessions.CookieName(), token, int(exp.Sub(h.now()).Seconds()))

	target := callbackURL
	if target == "" {
		target = "/" + loc + "/" + route.DashboardPage
	}
	return c.Redirect(http.StatusFound, target)
}

func (h *Handler) fail(c web.Context, loc, code string, err error) error {
	c.LogWarn("sign-in failed", slog.String("code", code), slog.Any("error", err))
	return c.Redirect(http.StatusFound, "/"+loc+"/"+route.SessionLoginPage+"?error="+code)
}

func (h *Handler) locale(c web.Context) string {
	if l := c.Locale(); l != "" {
		return l
	}
	return h.locales.Negotiate(c.Header("Accept-Language"))
}

func (h *Handler) url(path string) string {
	return strings.TrimRight(h.cfg.BaseURL, "/") + path
}
