package route

import (
	"regexp"
	"strings"
)

// Kind is the category of a path.
type Kind int

const (
	Protected Kind = iota
	Skip
	Public
	Admin
	AuthPage
)

func (k Kind) String() string {
	switch k {
	case Skip:
		return "skip"
	case Public:
		return "public"
	case Admin:
		return "admin"
	case AuthPage:
		return "auth-page"
	default:
		return "protected"
	}
}

// Login pages of the two identity presets.
const (
	SessionLoginPage = "login"
	ClerkLoginPage   = "login-clerk"
)

// AdminLoginPath is where callers without admin rights are sent.
const AdminLoginPath = "/admin/login"

// DashboardPage is where signed-in callers visiting an auth page are sent.
const DashboardPage = "dashboard"

type matcher func(p string) bool

func pattern(expr string) matcher {
	return regexp.MustCompile(expr).MatchString
}

func prefix(p string) matcher {
	return func(s string) bool { return strings.HasPrefix(s, p) }
}

func anyOf(ms []matcher, p string) bool {
	for _, m := range ms {
		if m(p) {
			return true
		}
	}
	return false
}

// Rules holds the compiled matchers of one deployment. It is immutable
// and safe for concurrent use.
type Rules struct {
	loginPage  string
	skip       []matcher
	webhook    []matcher
	noRedirect []matcher
	public     []matcher
	sessionAPI []matcher
	admin      []matcher
	authPage   []matcher
	api        []matcher
}

// Pages reachable without an identity, with or without a locale prefix.
var sessionPublicPages = []string{
	"sign-in", "sign-up", "signin", "terms", "privacy",
	"docs", "blog", "pricing", "image-to-prompt",
}

var clerkPublicPages = []string{
	"signin", "terms", "privacy", "docs", "blog", "pricing", "image-to-prompt",
}

// SessionRules returns the preset used with self-issued session tokens.
func SessionRules(locales []string) *Rules {
	return newRules(locales, sessionPublicPages, SessionLoginPage, []string{"login", "register"})
}

// ClerkRules returns the preset used with Clerk session tokens.
func ClerkRules(locales []string) *Rules {
	return newRules(locales, clerkPublicPages, ClerkLoginPage, []string{"login", "register", "login-clerk"})
}

func newRules(locales, pages []string, loginPage string, authPages []string) *Rules {
	loc := alternation(locales)
	return &Rules{
		loginPage: loginPage,
		skip: []matcher{
			pattern(`^/(images|_next|static)/`),
			pattern(`^/(favicon\.ico|robots\.txt|sitemap\.xml)$`),
			pattern(`^/health/(live|ready)$`),
			isAssetFile,
		},
		webhook:    []matcher{prefix("/api/webhooks/")},
		noRedirect: []matcher{pattern(`^/(api|trpc|admin)(/.*)?$`)},
		public: []matcher{
			pattern(`^/$`),
			pattern(`^/(` + loc + `)/?$`),
			pattern(`^(/(` + loc + `))?/(` + alternation(pages) + `)(/.*)?$`),
			pattern(`^/api/(auth|coze)(/.*)?$`),
		},
		sessionAPI: []matcher{prefix("/api/trpc/")},
		admin:      []matcher{pattern(`^/admin/dashboard(/.*)?$`)},
		authPage:   []matcher{pattern(`^/[a-zA-Z]{2,}/(` + alternation(authPages) + `)(/.*)?$`)},
		api:        []matcher{pattern(`^/(api|trpc)(/.*)?$`)},
	}
}

func alternation(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(quoted, "|")
}

var (
	assetExt   = regexp.MustCompile(`\.(html?|css|js|jpe?g|webp|png|gif|svg|ttf|woff2?|ico|csv|docx?|xlsx?|zip|webmanifest)$`)
	gatedTrees = regexp.MustCompile(`^/(api|trpc|admin)(/|$)`)
)

// isAssetFile matches static files by extension. Dots elsewhere, such as
// "customer.queryCustomer" or "john.doe", do not make a path an asset, and
// nothing under /api, /trpc or /admin is ever one.
func isAssetFile(p string) bool {
	return assetExt.MatchString(p) && !gatedTrees.MatchString(p)
}

// Classify returns the category of p. Webhook paths count as Skip.
func (r *Rules) Classify(p string) Kind {
	switch {
	case r.IsSkip(p) || r.IsWebhook(p):
		return Skip
	case r.IsPublic(p):
		return Public
	case r.IsAdmin(p):
		return Admin
	case r.IsAuthPage(p):
		return AuthPage
	default:
		return Protected
	}
}

// LoginPage is the login page segment, without locale.
func (r *Rules) LoginPage() string { return r.loginPage }

func (r *Rules) IsSkip(p string) bool       { return anyOf(r.skip, p) }
func (r *Rules) IsWebhook(p string) bool    { return anyOf(r.webhook, p) }
func (r *Rules) IsNoRedirect(p string) bool { return anyOf(r.noRedirect, p) }
func (r *Rules) IsPublic(p string) bool     { return anyOf(r.public, p) }
func (r *Rules) IsSessionAPI(p string) bool { return anyOf(r.sessionAPI, p) }
func (r *Rules) IsAdmin(p string) bool      { return anyOf(r.admin, p) }
func (r *Rules) IsAuthPage(p string) bool   { return anyOf(r.authPage, p) }

// IsAPI reports whether p is served as JSON rather than a page.
func (r *Rules) IsAPI(p string) bool { return anyOf(r.api, p) }
