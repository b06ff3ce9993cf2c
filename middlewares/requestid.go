package middlewares

import (
	"context"

	"github.com/google/uuid"

	"github.com/saasfly/saasfly/internal/web"
	"github.com/saasfly/saasfly/pkg/logger"
)

// RequestIDHeader is read from requests and echoed on responses.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// maxRequestIDLength bounds ids accepted from upstream proxies.
const maxRequestIDLength = 128

// RequestIDOption configures the RequestID middleware.
type RequestIDOption func(*requestIDConfig)

type requestIDConfig struct {
	generate func() string
	trust    bool
}

// WithRequestIDGenerator replaces uuid.NewString.
func WithRequestIDGenerator(gen func() string) RequestIDOption {
	return func(c *requestIDConfig) {
		if gen != nil {
			c.generate = gen
		}
	}
}

// WithUntrustedRequestID ignores ids sent by clients.
func WithUntrustedRequestID() RequestIDOption {
	return func(c *requestIDConfig) { c.trust = false }
}

// RequestID tags every request with an id, reusing the incoming
// X-Request-ID when present, and echoes it on the response.
func RequestID(opts ...RequestIDOption) web.Middleware {
	cfg := &requestIDConfig{generate: uuid.NewString, trust: true}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next web.HandlerFunc) web.HandlerFunc {
		return func(c web.Context) error {
			id := ""
			if cfg.trust {
				id = c.Header(RequestIDHeader)
				if len(id) > maxRequestIDLength {
					id = ""
				}
			}
			if id == "" {
				id = cfg.generate()
			}
			c.Set(requestIDKey{}, id)
			c.SetHeader(RequestIDHeader, id)
			return next(c)
		}
	}
}

// GetRequestID returns the request id stored in ctx, or "".
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}

// RequestIDExtractor adds request_id to every log record.
func RequestIDExtractor() logger.ContextExtractor {
	return logger.StringExtractor(requestIDKey{}, "request_id")
}
