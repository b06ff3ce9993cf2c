package middlewares

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/saasfly/saasfly/internal/identity"
	"github.com/saasfly/saasfly/internal/route"
	"github.com/saasfly/saasfly/internal/web"
	"github.com/saasfly/saasfly/pkg/locale"
)

// Action is what the gate does with a request.
type Action int

const (
	Pass Action = iota
	Redirect
	Unauthorized
)

func (a Action) String() string {
	switch a {
	case Redirect:
		return "redirect"
	case Unauthorized:
		return "unauthorized"
	default:
		return "pass"
	}
}

// Decision is the outcome of evaluating one request.
type Decision struct {
	Action   Action
	Location string
	// Identity is set once identity resolution has run and found a caller.
	Identity *identity.Identity
	// Locale is the path locale, or the negotiated one for unprefixed paths.
	Locale string
}

// Gate is the request policy run before routing.
type Gate struct {
	rules    *route.Rules
	locales  *locale.Negotiator
	provider identity.Provider
}

// NewGate creates a gate. A nil provider treats every caller as anonymous.
func NewGate(rules *route.Rules, locales *locale.Negotiator, provider identity.Provider) *Gate {
	if provider == nil {
		provider = identity.Anonymous
	}
	return &Gate{rules: rules, locales: locales, provider: provider}
}

// Evaluate applies the rules in order. Later rules are reached only when
// earlier ones did not decide.
func (g *Gate) Evaluate(ctx context.Context, r *http.Request) Decision {
	path := r.URL.Path

	if g.rules.IsSkip(path) || g.rules.IsWebhook(path) {
		return Decision{Action: Pass}
	}

	loc, prefixed := g.locales.FromPath(path)
	if !prefixed {
		loc = g.locales.Negotiate(r.Header.Get("Accept-Language"))
	}
	d := Decision{Action: Pass, Locale: loc}

	if !prefixed && !g.rules.IsNoRedirect(path) {
		d.Action = Redirect
		d.Location = withQuery(g.locales.Prefix(r.URL.EscapedPath(), loc), r.URL.RawQuery)
		return d
	}

	if g.rules.IsPublic(path) {
		return d
	}

	d.Identity = g.provider.Resolve(ctx, r)
	authed := d.Identity != nil

	if g.rules.IsSessionAPI(path) && authed {
		return d
	}

	if g.rules.IsAdmin(path) {
		if !authed || !d.Identity.IsAdmin {
			d.Action = Redirect
			d.Location = route.AdminLoginPath
		}
		return d
	}

	if g.rules.IsAuthPage(path) {
		if authed {
			d.Action = Redirect
			d.Location = "/" + loc + "/" + route.DashboardPage
		}
		return d
	}

	if !authed {
		if g.rules.IsAPI(path) {
			d.Action = Unauthorized
			return d
		}
		d.Action = Redirect
		d.Location = "/" + loc + "/" + g.rules.LoginPage() + "?from=" + encodeComponent(withQuery(r.URL.EscapedPath(), r.URL.RawQuery))
	}
	return d
}

// encodeComponent escapes s for use as a query value, with spaces as %20 so
// browser-side decodeURIComponent returns s unchanged.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func withQuery(path, rawQuery string) string {
	if rawQuery == "" {
		return path
	}
	return path + "?" + rawQuery
}

// Middleware adapts the gate to the web stack. Passing requests carry the
// resolved locale and identity in their context.
func (g *Gate) Middleware() web.Middleware {
	return func(next web.HandlerFunc) web.HandlerFunc {
		return func(c web.Context) error {
			d := g.Evaluate(c, c.Request())

			switch d.Action {
			case Redirect:
				c.LogInfo("gate redirect",
					slog.String("path", c.Request().URL.Path),
					slog.String("location", d.Location),
				)
				return c.Redirect(http.StatusTemporaryRedirect, d.Location)
			case Unauthorized:
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			}

			if d.Locale != "" {
				c.Set(web.LocaleKey{}, d.Locale)
			}
			if d.Identity != nil {
				c.Set(identity.ContextKey(), d.Identity)
			}
			return next(c)
		}
	}
}
