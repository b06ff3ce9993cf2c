package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
)

// Kind distinguishes queries from mutations.
type Kind int

const (
	KindQuery Kind = iota
	KindMutation
)

func (k Kind) String() string {
	if k == KindMutation {
		return "mutation"
	}
	return "query"
}

// Procedure is a registered operation.
type Procedure struct {
	kind   Kind
	authed bool
	call   func(ctx context.Context, rc *Context, raw json.RawMessage) (any, error)
}

// Kind returns whether p is a query or a mutation.
func (p Procedure) Kind() Kind { return p.kind }

// Option configures a procedure.
type Option func(*Procedure)

// Authed requires an identity on the call context.
func Authed() Option {
	return func(p *Procedure) { p.authed = true }
}

// Query declares a read-only procedure.
func Query[In, Out any](fn func(ctx context.Context, rc *Context, in In) (Out, error), opts ...Option) Procedure {
	return newProcedure(KindQuery, fn, opts)
}

// Mutation declares a procedure with side effects.
func Mutation[In, Out any](fn func(ctx context.Context, rc *Context, in In) (Out, error), opts ...Option) Procedure {
	return newProcedure(KindMutation, fn, opts)
}

func newProcedure[In, Out any](kind Kind, fn func(context.Context, *Context, In) (Out, error), opts []Option) Procedure {
	p := Procedure{
		kind: kind,
		call: func(ctx context.Context, rc *Context, raw json.RawMessage) (any, error) {
			var in In
			if err := decodeInput(raw, &in); err != nil {
				return nil, err
			}
			if err := validateInput(in); err != nil {
				return nil, err
			}
			return fn(ctx, rc, in)
		},
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// decodeInput leaves dst untouched for empty or null input.
func decodeInput(raw json.RawMessage, dst any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	err := json.Unmarshal(raw, dst)
	if err == nil {
		return nil
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return NewError(CodeParseError, "Input is not valid JSON").WithCause(err)
	}
	return NewError(CodeBadRequest, "Invalid input").WithCause(err)
}
