package web

import (
	"context"
	"log/slog"
	"time"

	"github.com/saasfly/saasfly/pkg/health"
)

// Option configures the application.
type Option func(*App)

// WithMiddleware appends global middleware. It runs before routing, so
// unmatched paths pass through it too.
func WithMiddleware(mw ...Middleware) Option {
	return func(a *App) {
		a.middlewares = append(a.middlewares, mw...)
	}
}

// WithHandlers registers route owners.
func WithHandlers(h ...Handler) Option {
	return func(a *App) {
		a.handlers = append(a.handlers, h...)
	}
}

// WithLogger sets the application logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// HealthOption adds a readiness check.
type HealthOption func(health.Checks)

// WithHealthChecks mounts /health/live and /health/ready. Readiness fails
// when any of the given checks fails.
func WithHealthChecks(opts ...HealthOption) Option {
	return func(a *App) {
		a.checks = make(health.Checks, len(opts))
		for _, opt := range opts {
			opt(a.checks)
		}
	}
}

// WithReadinessCheck names a dependency the instance cannot serve without.
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return func(c health.Checks) {
		if fn != nil {
			c[name] = fn
		}
	}
}

// RunOption configures the server runtime.
type RunOption func(*runConfig)

type runConfig struct {
	logger          *slog.Logger
	shutdownHooks   []func(context.Context) error
	shutdownTimeout time.Duration
}

// ShutdownTimeout bounds graceful shutdown, hooks included.
// Defaults to 30 seconds.
func ShutdownTimeout(d time.Duration) RunOption {
	return func(c *runConfig) {
		if d > 0 {
			c.shutdownTimeout = d
		}
	}
}

// ShutdownHook registers a cleanup function run after the server stops.
// Hooks run in registration order.
func ShutdownHook(fn func(context.Context) error) RunOption {
	return func(c *runConfig) {
		if fn != nil {
			c.shutdownHooks = append(c.shutdownHooks, fn)
		}
	}
}
