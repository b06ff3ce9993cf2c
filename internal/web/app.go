package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/saasfly/saasfly/pkg/health"
	"github.com/saasfly/saasfly/pkg/logger"
)

// Default server timeouts.
const (
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20
	defaultShutdownTimeout   = 30 * time.Second
)

const (
	livenessPath  = "/health/live"
	readinessPath = "/health/ready"
)

// App owns the router, the middleware chain and the error handler.
// App is immutable after New returns.
type App struct {
	router      chi.Router
	logger      *slog.Logger
	checks      health.Checks // nil when health routes are off
	middlewares []Middleware
	handlers    []Handler
}

// New creates an application with the given options.
func New(opts ...Option) *App {
	a := &App{
		router: chi.NewRouter(),
		logger: logger.NewNope(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.setupRoutes()
	return a
}

// ServeHTTP makes App an http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Run serves on addr until ctx ends or the process is signalled, then
// shuts down gracefully.
func (a *App) Run(ctx context.Context, addr string, opts ...RunOption) error {
	cfg := &runConfig{logger: a.logger, shutdownTimeout: defaultShutdownTimeout}
	for _, opt := range opts {
		opt(cfg)
	}
	return runServer(ctx, a, addr, cfg)
}

func (a *App) setupRoutes() {
	for _, mw := range a.middlewares {
		a.router.Use(a.adaptMiddleware(mw))
	}

	a.router.NotFound(a.endpoint(func(Context) error { return ErrNotFound("Not Found") }))
	a.router.MethodNotAllowed(a.endpoint(func(Context) error {
		return NewHTTPError(http.StatusMethodNotAllowed, "Method Not Allowed")
	}))

	if a.checks != nil {
		a.router.Get(livenessPath, health.LivenessHandler())
		a.router.Get(readinessPath, health.ReadinessHandler(a.checks, health.WithLogger(a.logger)))
	}

	r := &chiRouter{mux: a.router, app: a}
	for _, h := range a.handlers {
		h.Routes(r)
	}
}

// endpoint adapts h to net/http, rendering returned errors.
func (a *App) endpoint(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := NewContext(w, r, a.logger)
		if err := h(c); err != nil {
			a.handleError(c, err)
		}
	}
}

// adaptMiddleware converts a Middleware into chi middleware.
// Values stored with Context.Set before next is called travel with the request.
func (a *App) adaptMiddleware(mw Middleware) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nextFunc := func(c Context) error {
				next.ServeHTTP(c.Response(), c.Request())
				return nil
			}
			c := NewContext(w, r, a.logger)
			if err := mw(nextFunc)(c); err != nil {
				a.handleError(c, err)
			}
		})
	}
}

func (a *App) handleError(c Context, err error) {
	if c.Written() {
		return
	}
	if herr := DefaultErrorHandler(c, err); herr != nil {
		a.logger.ErrorContext(c, "error handler failed", slog.Any("error", herr))
		if !c.Written() {
			http.Error(c.Response(), "Internal Server Error", http.StatusInternalServerError)
		}
	}
}
