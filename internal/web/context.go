package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/saasfly/saasfly/internal/identity"
	"github.com/saasfly/saasfly/pkg/logger"
)

// LocaleKey is the context key for the locale resolved by the request gate.
type LocaleKey struct{}

// Context is handed to every handler and middleware. It is also a
// context.Context backed by the request context, so it can be passed to
// repositories and clients directly.
type Context interface {
	context.Context

	Request() *http.Request
	Param(name string) string
	Query(name string) string
	Header(name string) string
	Cookie(name string) (string, error)

	Response() http.ResponseWriter
	SetHeader(name, value string)
	JSON(code int, v any) error
	String(code int, s string) error
	NoContent(code int) error
	Redirect(code int, url string) error

	// Written reports whether the status line has been sent.
	Written() bool

	// Error builds an HTTPError for the handler to return. Nothing is written.
	Error(code int, message string, opts ...HTTPErrorOption) *HTTPError

	LogInfo(msg string, attrs ...any)
	LogWarn(msg string, attrs ...any)
	LogError(msg string, attrs ...any)

	// Set attaches a value to the request context for handlers further down.
	Set(key, value any)

	// Get returns a value attached with Set, or nil.
	Get(key any) any

	// Identity is the caller resolved by the gate, nil for anonymous callers.
	Identity() *identity.Identity

	// Locale is the locale resolved by the gate, empty when none was.
	Locale() string
}

type reqCtx struct {
	r   *http.Request
	w   *ResponseWriter
	log *slog.Logger
}

// NewContext wraps a request and response. A nil logger discards output.
func NewContext(w http.ResponseWriter, r *http.Request, log *slog.Logger) Context {
	if log == nil {
		log = logger.NewNope()
	}
	rw, ok := w.(*ResponseWriter)
	if !ok {
		rw = NewResponseWriter(w)
	}
	return &reqCtx{r: r, w: rw, log: log}
}

func (c *reqCtx) Deadline() (time.Time, bool) { return c.r.Context().Deadline() }
func (c *reqCtx) Done() <-chan struct{}       { return c.r.Context().Done() }
func (c *reqCtx) Err() error                  { return c.r.Context().Err() }
func (c *reqCtx) Value(key any) any           { return c.r.Context().Value(key) }

func (c *reqCtx) Request() *http.Request    { return c.r }
func (c *reqCtx) Param(name string) string  { return chi.URLParam(c.r, name) }
func (c *reqCtx) Query(name string) string  { return c.r.URL.Query().Get(name) }
func (c *reqCtx) Header(name string) string { return c.r.Header.Get(name) }

func (c *reqCtx) Cookie(name string) (string, error) {
	ck, err := c.r.Cookie(name)
	if err != nil {
		return "", err
	}
	return ck.Value, nil
}

func (c *reqCtx) Response() http.ResponseWriter { return c.w }
func (c *reqCtx) SetHeader(name, value string)  { c.w.Header().Set(name, value) }
func (c *reqCtx) Written() bool                 { return c.w.Written() }

func (c *reqCtx) JSON(code int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.write(code, "application/json; charset=utf-8", append(body, '\n'))
}

func (c *reqCtx) String(code int, s string) error {
	return c.write(code, "text/plain; charset=utf-8", []byte(s))
}

func (c *reqCtx) NoContent(code int) error {
	c.w.WriteHeader(code)
	return nil
}

func (c *reqCtx) Redirect(code int, url string) error {
	http.Redirect(c.w, c.r, url, code)
	return nil
}

func (c *reqCtx) write(code int, contentType string, body []byte) error {
	c.w.Header().Set("Content-Type", contentType)
	c.w.WriteHeader(code)
	_, err := c.w.Write(body)
	return err
}

func (c *reqCtx) Error(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(code, message, opts...)
}

func (c *reqCtx) LogInfo(msg string, attrs ...any) {
	c.log.InfoContext(c.r.Context(), msg, attrs...)
}

func (c *reqCtx) LogWarn(msg string, attrs ...any) {
	c.log.WarnContext(c.r.Context(), msg, attrs...)
}

func (c *reqCtx) LogError(msg string, attrs ...any) {
	c.log.ErrorContext(c.r.Context(), msg, attrs...)
}

func (c *reqCtx) Set(key, value any) {
	c.r = c.r.WithContext(context.WithValue(c.r.Context(), key, value))
}

func (c *reqCtx) Get(key any) any { return c.r.Context().Value(key) }

func (c *reqCtx) Identity() *identity.Identity {
	return identity.FromContext(c.r.Context())
}

func (c *reqCtx) Locale() string {
	loc, _ := c.Get(LocaleKey{}).(string)
	return loc
}
