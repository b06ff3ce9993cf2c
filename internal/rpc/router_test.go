package rpc_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saasfly/saasfly/internal/identity"
	"github.com/saasfly/saasfly/internal/rpc"
	"github.com/saasfly/saasfly/internal/web"
)

type greetInput struct {
	Name string `json:"name" validate:"required,max=8"`
}

type greetOutput struct {
	Message string `json:"message"`
}

func newTestRouter(t *testing.T, p identity.Provider) (*rpc.Router, *int) {
	t.Helper()

	calls := new(int)
	r := rpc.NewRouter(rpc.NewContextBuilder(p))
	r.RegisterAll("greet", map[string]rpc.Procedure{
		"hello": rpc.Query(func(_ context.Context, rc *rpc.Context, in greetInput) (greetOutput, error) {
			*calls++
			return greetOutput{Message: "hello " + in.Name + " from " + rc.UserID}, nil
		}, rpc.Authed()),
		"public": rpc.Query(func(context.Context, *rpc.Context, struct{}) (string, error) {
			return "ok", nil
		}),
		"save": rpc.Mutation(func(context.Context, *rpc.Context, greetInput) (any, error) {
			return nil, rpc.NewError(rpc.CodeForbidden, "")
		}, rpc.Authed()),
		"broken": rpc.Mutation(func(context.Context, *rpc.Context, struct{}) (any, error) {
			return nil, errors.New("database is gone")
		}),
	})
	return r, calls
}

var anyUser = identity.ProviderFunc(func(_ context.Context, r *http.Request) *identity.Identity {
	if r.Header.Get("Authorization") == "" {
		return nil
	}
	return &identity.Identity{ID: "u1"}
})

func TestCall(t *testing.T) {
	t.Parallel()

	r, calls := newTestRouter(t, nil)
	ctx := context.Background()

	t.Run("unauthorized before handler", func(t *testing.T) {
		_, err := r.Call(ctx, rpc.NewContext(nil, nil), "greet.hello", json.RawMessage(`{"name":"x"}`))
		require.Error(t, err)
		assert.Equal(t, rpc.CodeUnauthorized, rpc.AsError(err).Code)

		_, err = r.Call(ctx, nil, "greet.hello", json.RawMessage(`not json`))
		assert.Equal(t, rpc.CodeUnauthorized, rpc.AsError(err).Code)
		assert.Zero(t, *calls)
	})

	rc := rpc.NewContext(nil, &identity.Identity{ID: "u1"})

	t.Run("success", func(t *testing.T) {
		out, err := r.Call(ctx, rc, "greet.hello", json.RawMessage(`{"name":"ada"}`))
		require.NoError(t, err)
		assert.Equal(t, greetOutput{Message: "hello ada from u1"}, out)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := r.Call(ctx, rc, "greet.hello", json.RawMessage(`{}`))
		e := rpc.AsError(err)
		assert.Equal(t, rpc.CodeBadRequest, e.Code)
		require.NotNil(t, e.Validation)
		assert.Equal(t, []string{"Required"}, e.Validation.FieldErrors["name"])
	})

	t.Run("parse error", func(t *testing.T) {
		_, err := r.Call(ctx, rc, "greet.hello", json.RawMessage(`{"name":`))
		assert.Equal(t, rpc.CodeParseError, rpc.AsError(err).Code)
	})

	t.Run("wrong type", func(t *testing.T) {
		_, err := r.Call(ctx, rc, "greet.hello", json.RawMessage(`{"name":1}`))
		assert.Equal(t, rpc.CodeBadRequest, rpc.AsError(err).Code)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := r.Call(ctx, rc, "greet.nope", nil)
		assert.Equal(t, rpc.CodeNotFound, rpc.AsError(err).Code)
	})

	t.Run("no input", func(t *testing.T) {
		out, err := r.Call(ctx, nil, "greet.public", nil)
		require.NoError(t, err)
		assert.Equal(t, "ok", out)
	})
}

func TestRegisterDuplicatePanics(t *testing.T) {
	t.Parallel()

	r := rpc.NewRouter(nil)
	p := rpc.Query(func(context.Context, *rpc.Context, struct{}) (int, error) { return 1, nil })
	r.Register("a", p)
	assert.Panics(t, func() { r.Register("a", p) })
}

func TestHTTP(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t, anyUser)
	app := web.New(web.WithHandlers(r))

	do := func(method, target, body string, authed bool) *httptest.ResponseRecorder {
		var req *http.Request
		if body != "" {
			req = httptest.NewRequest(method, target, strings.NewReader(body))
		} else {
			req = httptest.NewRequest(method, target, nil)
		}
		if authed {
			req.Header.Set("Authorization", "Bearer x")
		}
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, req)
		return rec
	}

	t.Run("query success", func(t *testing.T) {
		t.Parallel()
		rec := do(http.MethodGet, rpc.DefaultEndpoint+"/greet.hello?input="+url.QueryEscape(`{"name":"ada"}`), "", true)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"result":{"data":{"message":"hello ada from u1"}}}`, rec.Body.String())
	})

	t.Run("unauthorized envelope", func(t *testing.T) {
		t.Parallel()
		rec := do(http.MethodGet, rpc.DefaultEndpoint+"/greet.hello", "", false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":{"message":"UNAUTHORIZED","code":-32001,"data":{"code":"UNAUTHORIZED","httpStatus":401,"path":"greet.hello","validationError":null}}}`, rec.Body.String())
	})

	t.Run("validation envelope", func(t *testing.T) {
		t.Parallel()
		rec := do(http.MethodGet, rpc.DefaultEndpoint+"/greet.hello?input="+url.QueryEscape(`{"name":"much too long"}`), "", true)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var env struct {
			Error struct {
				Data struct {
					ValidationError rpc.ValidationError `json:"validationError"`
				} `json:"data"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		assert.Equal(t, []string{"Must contain at most 8 character(s)"}, env.Error.Data.ValidationError.FieldErrors["name"])
	})

	t.Run("mutation via GET not supported", func(t *testing.T) {
		t.Parallel()
		rec := do(http.MethodGet, rpc.DefaultEndpoint+"/greet.save", "", true)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("mutation forbidden", func(t *testing.T) {
		t.Parallel()
		rec := do(http.MethodPost, rpc.DefaultEndpoint+"/greet.save", `{"name":"x"}`, true)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), `"code":-32003`)
	})

	t.Run("internal error hides cause", func(t *testing.T) {
		t.Parallel()
		rec := do(http.MethodPost, rpc.DefaultEndpoint+"/greet.broken", "", false)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "database is gone")
	})

	t.Run("batch rejected", func(t *testing.T) {
		t.Parallel()
		rec := do(http.MethodGet, rpc.DefaultEndpoint+"/greet.public?batch=1", "", false)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown path", func(t *testing.T) {
		t.Parallel()
		rec := do(http.MethodGet, rpc.DefaultEndpoint+"/nope", "", false)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestContextBuilderPrefersStoredIdentity(t *testing.T) {
	t.Parallel()

	b := rpc.NewContextBuilder(anyUser)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(identity.WithIdentity(req.Context(), &identity.Identity{ID: "gate"}))
	req.Header.Set("Authorization", "Bearer x")
	assert.Equal(t, "gate", b.Build(req).UserID)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer x")
	assert.Equal(t, "u1", b.Build(req).UserID)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rc := b.Build(req)
	assert.False(t, rc.Authenticated())
	assert.Empty(t, rc.UserID)
}
