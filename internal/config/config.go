// Package config loads process configuration from the environment once at
// startup.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/saasfly/saasfly/internal/billing"
	"github.com/saasfly/saasfly/internal/coze"
	"github.com/saasfly/saasfly/internal/identity"
	"github.com/saasfly/saasfly/pkg/cookie"
	"github.com/saasfly/saasfly/pkg/db"
	"github.com/saasfly/saasfly/pkg/logger"
	"github.com/saasfly/saasfly/pkg/mailer"
	"github.com/saasfly/saasfly/pkg/mailer/resend"
	"github.com/saasfly/saasfly/pkg/oauth"
	"github.com/saasfly/saasfly/pkg/redis"
)

// Identity provider names accepted in IDENTITY_PROVIDER.
const (
	ProviderSession = "session"
	ProviderClerk   = "clerk"
)

var (
	ErrInvalidProvider = errors.New("config: IDENTITY_PROVIDER must be session or clerk")
	ErrInvalidLocale   = errors.New("config: DEFAULT_LOCALE must be one of LOCALES")
	ErrInvalidBaseURL  = errors.New("config: BASE_URL must be an absolute http(s) URL")
	ErrMissingSecret   = errors.New("config: AUTH_SECRET is required for session deployments")
	ErrWeakSecret      = errors.New("config: AUTH_SECRET must be at least 32 characters")
	ErrMissingClerkKey = errors.New("config: CLERK_PEM_PUBLIC_KEY is required for clerk deployments")
)

// Config is the full process configuration.
type Config struct {
	Addr            string        `env:"ADDR" envDefault:":3000"`
	BaseURL         string        `env:"BASE_URL" envDefault:"http://localhost:3000"`
	SiteName        string        `env:"SITE_NAME" envDefault:"Saasfly"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	Locales       []string `env:"LOCALES" envSeparator:"," envDefault:"en,zh,ko,ja"`
	DefaultLocale string   `env:"DEFAULT_LOCALE" envDefault:"en"`

	IdentityProvider string             `env:"IDENTITY_PROVIDER" envDefault:"session"`
	Admins           identity.AdminList `env:"ADMIN_EMAIL"`

	Logger  logger.Config
	DB      db.Config
	Redis   redis.Config
	Session identity.SessionConfig
	Clerk   identity.ClerkConfig
	Google  oauth.GoogleConfig
	GitHub  oauth.GitHubConfig
	Resend  resend.Config
	Mailer  mailer.Config
	Stripe  billing.Config
	Coze    coze.Config
}

// Load reads the process environment.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads vars instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.IdentityProvider = strings.ToLower(strings.TrimSpace(c.IdentityProvider))
	switch c.IdentityProvider {
	case ProviderSession:
		if c.Session.Secret == "" {
			return ErrMissingSecret
		}
		if len(c.Session.Secret) < cookie.MinSecretLength {
			return ErrWeakSecret
		}
	case ProviderClerk:
		if c.Clerk.PublicKey == "" {
			return ErrMissingClerkKey
		}
	default:
		return ErrInvalidProvider
	}

	if !slices.Contains(c.Locales, c.DefaultLocale) {
		return ErrInvalidLocale
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return nil
}

// SecureCookies reports whether cookies should carry the Secure flag.
func (c Config) SecureCookies() bool { return strings.HasPrefix(c.BaseURL, "https://") }

// SessionMode reports whether this deployment signs its own session tokens.
func (c Config) SessionMode() bool { return c.IdentityProvider == ProviderSession }
