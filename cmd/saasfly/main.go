package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/saasfly/saasfly/internal/account"
	"github.com/saasfly/saasfly/internal/auth"
	"github.com/saasfly/saasfly/internal/billing"
	"github.com/saasfly/saasfly/internal/config"
	"github.com/saasfly/saasfly/internal/coze"
	"github.com/saasfly/saasfly/internal/identity"
	"github.com/saasfly/saasfly/internal/route"
	"github.com/saasfly/saasfly/internal/rpc"
	"github.com/saasfly/saasfly/internal/web"
	"github.com/saasfly/saasfly/middlewares"
	"github.com/saasfly/saasfly/pkg/cookie"
	"github.com/saasfly/saasfly/pkg/db"
	"github.com/saasfly/saasfly/pkg/locale"
	"github.com/saasfly/saasfly/pkg/logger"
	"github.com/saasfly/saasfly/pkg/mailer"
	"github.com/saasfly/saasfly/pkg/mailer/resend"
	"github.com/saasfly/saasfly/pkg/oauth"
	"github.com/saasfly/saasfly/pkg/redis"
	"github.com/saasfly/saasfly/pkg/tokenstore"
)

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("saasfly stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Logger, middlewares.RequestIDExtractor(), identity.UserIDExtractor())

	pool, err := db.Open(ctx, cfg.DB)
	if err != nil {
		return err
	}
	hooks := []web.RunOption{web.ShutdownTimeout(cfg.ShutdownTimeout), web.ShutdownHook(func(context.Context) error { pool.Close(); return nil })}
	if cfg.DB.AutoMigrate {
		if err := db.Migrate(ctx, pool, account.Migrations, account.MigrationsDir, cfg.DB.MigrationsTable, log); err != nil {
			return err
		}
	}
	repo := account.NewRepository(pool)
	health := []web.HealthOption{web.WithReadinessCheck("postgres", db.Healthcheck(pool))}

	var store tokenstore.Store
	if cfg.Redis.Enabled() {
		rdb, err := redis.Open(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		store = tokenstore.NewRedis(rdb, tokenstore.WithPrefix("saasfly:"))
		health = append(health, web.WithReadinessCheck("redis", redis.Healthcheck(rdb)))
		hooks = append(hooks, web.ShutdownHook(func(context.Context) error { return rdb.Close() }))
	} else {
		mem := tokenstore.NewMemory(time.Minute)
		store = mem
		hooks = append(hooks, web.ShutdownHook(func(context.Context) error { return mem.Close() }))
		log.Warn("REDIS_URL not set, token revocation and magic links are local to this process")
	}

	locales, err := locale.New(cfg.Locales, cfg.DefaultLocale)
	if err != nil {
		return err
	}

	var (
		provider identity.Provider
		rules    *route.Rules
		handlers []web.Handler
	)
	switch cfg.IdentityProvider {
	case config.ProviderClerk:
		cp, err := identity.NewClerkProvider(cfg.Clerk, cfg.Admins, log)
		if err != nil {
			return err
		}
		provider, rules = cp, route.ClerkRules(cfg.Locales)
	default:
		issuer, err := identity.NewIssuer(cfg.Session, store)
		if err != nil {
			return err
		}
		provider, rules = identity.NewSessionProvider(issuer, cfg.Admins, log), route.SessionRules(cfg.Locales)

		ah, err := newAuthHandler(cfg, repo, issuer, store, locales, provider, log)
		if err != nil {
			return err
		}
		handlers = append(handlers, ah)
	}

	rpcRouter := rpc.NewRouter(rpc.NewContextBuilder(provider), rpc.WithLogger(log))
	account.NewProcedures(repo, log).Register(rpcRouter)
	handlers = append(handlers, rpcRouter)

	if cfg.Stripe.Enabled() {
		sp, err := billing.NewStripe(cfg.Stripe, &http.Client{Timeout: 30 * time.Second})
		if err != nil {
			return err
		}
		svc := billing.NewService(repo, sp, cfg.BaseURL, cfg.Stripe.ReturnPath, log)
		handlers = append(handlers, billing.NewHandler(svc, provider))
	} else {
		log.Info("STRIPE_API_KEY not set, billing endpoint disabled")
	}

	if cfg.Coze.Enabled() {
		cc, err := coze.NewClient(cfg.Coze)
		if err != nil {
			return err
		}
		handlers = append(handlers, coze.NewHandler(cc))
	} else {
		log.Info("COZE_API_TOKEN or COZE_WORKFLOW_ID not set, image prompt endpoints disabled")
	}

	gate := middlewares.NewGate(rules, locales, provider)
	app := web.New(
		web.WithLogger(log),
		web.WithMiddleware(
			middlewares.RequestID(),
			middlewares.Recover(),
			gate.Middleware(),
		),
		web.WithHandlers(handlers...),
		web.WithHealthChecks(health...),
	)

	log.Info("starting server",
		slog.String("addr", cfg.Addr),
		slog.String("identity_provider", cfg.IdentityProvider),
	)
	hooks = append(hooks, web.ShutdownHook(logger.Flush))
	return app.Run(ctx, cfg.Addr, hooks...)
}

func newAuthHandler(
	cfg config.Config,
	repo *account.Repository,
	issuer *identity.Issuer,
	store tokenstore.Store,
	locales *locale.Negotiator,
	provider identity.Provider,
	log *slog.Logger,
) (*auth.Handler, error) {
	var providers []oauth.Provider
	if cfg.Google.Enabled() {
		gc := cfg.Google
		if gc.RedirectURL == "" {
			gc.RedirectURL = cfg.BaseURL + "/api/auth/callback/" + oauth.GoogleProviderName
		}
		p, err := oauth.NewGoogleProvider(gc)
		if err != nil {
			return nil, fmt.Errorf("google oauth: %w", err)
		}
		providers = append(providers, p)
	}
	if cfg.GitHub.Enabled() {
		gc := cfg.GitHub
		if gc.RedirectURL == "" {
			gc.RedirectURL = cfg.BaseURL + "/api/auth/callback/" + oauth.GitHubProviderName
		}
		p, err := oauth.NewGitHubProvider(gc)
		if err != nil {
			return nil, fmt.Errorf("github oauth: %w", err)
		}
		providers = append(providers, p)
	}

	opts := []auth.Option{
		auth.WithOAuth(oauth.NewRegistry(providers...)),
		auth.WithResolver(provider),
	}

	// Email sign-in is offered whenever a sender address is configured. Without
	// an API key the links are logged instead of sent.
	if cfg.Resend.SenderEmail != "" {
		links, err := auth.NewMagicLinks(cfg.Session.Secret, cfg.Session.Issuer, auth.DefaultLinkTTL, store)
		if err != nil {
			return nil, err
		}
		var sender mailer.Sender = mailer.LogSender{Logger: log}
		if cfg.Resend.Enabled() {
			sender = resend.New(cfg.Resend)
		}
		renderer := mailer.NewRenderer(auth.Emails, mailer.RendererConfig{TemplateDir: "emails", LayoutDir: "emails/layouts"})
		opts = append(opts, auth.WithMagicLinks(links, mailer.New(sender, renderer, cfg.Mailer)))
	}

	cookies := cookie.New(
		cookie.WithSecret(cfg.Session.Secret),
		cookie.WithSecure(cfg.SecureCookies()),
	)
	return auth.NewHandler(auth.Config{BaseURL: cfg.BaseURL, SiteName: cfg.SiteName},
		repo, issuer, locales, cookies, opts...)
}
