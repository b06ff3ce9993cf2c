package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/saasfly/saasfly/internal/web"
	"github.com/saasfly/saasfly/pkg/logger"
)

// DefaultEndpoint is where procedures are served.
const DefaultEndpoint = "/api/trpc/edge"

const maxBodySize = 1 << 20

// Router dispatches calls to registered procedures.
// Register everything before serving; lookups are not synchronized.
type Router struct {
	endpoint string
	procs    map[string]Procedure
	builder  *ContextBuilder
	logger   *slog.Logger
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithEndpoint changes the mount path.
func WithEndpoint(p string) RouterOption {
	return func(r *Router) {
		if p != "" {
			r.endpoint = p
		}
	}
}

// WithLogger sets the logger for failed calls.
func WithLogger(l *slog.Logger) RouterOption {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRouter creates an empty router.
func NewRouter(builder *ContextBuilder, opts ...RouterOption) *Router {
	if builder == nil {
		builder = NewContextBuilder(nil)
	}
	r := &Router{
		endpoint: DefaultEndpoint,
		procs:    make(map[string]Procedure),
		builder:  builder,
		logger:   logger.NewNope(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds p under path. It panics on duplicates.
func (r *Router) Register(path string, p Procedure) {
	if _, dup := r.procs[path]; dup {
		panic(fmt.Sprintf("rpc: procedure %q registered twice", path))
	}
	r.procs[path] = p
}

// RegisterAll adds every procedure of procs as "<prefix>.<name>".
func (r *Router) RegisterAll(prefix string, procs map[string]Procedure) {
	for name, p := range procs {
		if prefix != "" {
			name = prefix + "." + name
		}
		r.Register(name, p)
	}
}

// Call runs a procedure directly, applying the same authorization and
// input checks as HTTP calls.
func (r *Router) Call(ctx context.Context, rc *Context, path string, input json.RawMessage) (any, error) {
	p, ok := r.procs[path]
	if !ok {
		return nil, NewError(CodeNotFound, fmt.Sprintf("No procedure found on path %q", path))
	}
	return r.invoke(ctx, rc, p, input)
}

func (r *Router) invoke(ctx context.Context, rc *Context, p Procedure, input json.RawMessage) (any, error) {
	if rc == nil {
		rc = NewContext(nil, nil)
	}
	if p.authed && !rc.Authenticated() {
		return nil, NewError(CodeUnauthorized, "UNAUTHORIZED")
	}
	return p.call(ctx, rc, input)
}

// Routes mounts GET and POST <endpoint>/{path}.
func (r *Router) Routes(wr web.Router) {
	wr.GET(r.endpoint+"/{path}", r.serve)
	wr.POST(r.endpoint+"/{path}", r.serve)
}

type resultEnvelope struct {
	Result struct {
		Data any `json:"data"`
	} `json:"result"`
}

type errorData struct {
	Code            Code             `json:"code"`
	HTTPStatus      int              `json:"httpStatus"`
	Path            string           `json:"path,omitempty"`
	ValidationError *ValidationError `json:"validationError"`
}

type errorEnvelope struct {
	Error struct {
		Message string    `json:"message"`
		Code    int       `json:"code"`
		Data    errorData `json:"data"`
	} `json:"error"`
}

func (r *Router) serve(c web.Context) error {
	path := c.Param("path")
	if c.Query("batch") != "" {
		return r.writeError(c, path, NewError(CodeBadRequest, "Batching is not supported"))
	}

	p, ok := r.procs[path]
	if !ok {
		return r.writeError(c, path, NewError(CodeNotFound, fmt.Sprintf("No procedure found on path %q", path)))
	}

	var raw json.RawMessage
	switch {
	case c.Request().Method == http.MethodGet && p.kind == KindQuery:
		raw = json.RawMessage(c.Query("input"))
	case c.Request().Method == http.MethodPost && p.kind == KindMutation:
		body, err := io.ReadAll(http.MaxBytesReader(c.Response(), c.Request().Body, maxBodySize))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return r.writeError(c, path, NewError(CodeBadRequest, "Request body too large").WithCause(err))
			}
			return r.writeError(c, path, NewError(CodeParseError, "Failed to read request body").WithCause(err))
		}
		raw = body
	default:
		return r.writeError(c, path, NewError(CodeMethodNotSupported,
			fmt.Sprintf("Unsupported %s-request to %s procedure at path %q", c.Request().Method, p.kind, path)))
	}

	out, err := r.invoke(c, r.builder.Build(c.Request()), p, raw)
	if err != nil {
		return r.writeError(c, path, err)
	}

	var env resultEnvelope
	env.Result.Data = out
	return c.JSON(http.StatusOK, env)
}

func (r *Router) writeError(c web.Context, path string, err error) error {
	e := AsError(err)
	status := e.Code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		r.logger.ErrorContext(c, "rpc call failed",
			slog.String("path", path),
			slog.Any("error", err),
		)
	}

	var env errorEnvelope
	env.Error.Message = e.Message
	env.Error.Code = e.Code.RPCCode()
	env.Error.Data = errorData{
		Code:            e.Code,
		HTTPStatus:      status,
		Path:            path,
		ValidationError: e.Validation,
	}
	return c.JSON(status, env)
}
