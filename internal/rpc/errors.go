package rpc

import (
	"errors"
	"net/http"
)

// Code is a tRPC error code.
type Code string

const (
	CodeParseError         Code = "PARSE_ERROR"
	CodeBadRequest         Code = "BAD_REQUEST"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeNotFound           Code = "NOT_FOUND"
	CodeMethodNotSupported Code = "METHOD_NOT_SUPPORTED"
	CodeInternal           Code = "INTERNAL_SERVER_ERROR"
)

var codeNumbers = map[Code]struct{ rpc, http int }{
	CodeParseError:         {-32700, http.StatusBadRequest},
	CodeBadRequest:         {-32600, http.StatusBadRequest},
	CodeUnauthorized:       {-32001, http.StatusUnauthorized},
	CodeForbidden:          {-32003, http.StatusForbidden},
	CodeNotFound:           {-32004, http.StatusNotFound},
	CodeMethodNotSupported: {-32005, http.StatusMethodNotAllowed},
	CodeInternal:           {-32603, http.StatusInternalServerError},
}

// RPCCode returns the JSON-RPC number of c.
func (c Code) RPCCode() int {
	if n, ok := codeNumbers[c]; ok {
		return n.rpc
	}
	return codeNumbers[CodeInternal].rpc
}

// HTTPStatus returns the HTTP status of c.
func (c Code) HTTPStatus() int {
	if n, ok := codeNumbers[c]; ok {
		return n.http
	}
	return http.StatusInternalServerError
}

// ValidationError is the flattened list of input problems.
type ValidationError struct {
	FormErrors  []string            `json:"formErrors"`
	FieldErrors map[string][]string `json:"fieldErrors"`
}

// Error is a procedure failure with a tRPC code.
type Error struct {
	Code       Code
	Message    string
	Cause      error
	Validation *ValidationError
}

// NewError creates an Error. An empty message defaults to the code.
func NewError(code Code, message string) *Error {
	if message == "" {
		message = string(code)
	}
	return &Error{Code: code, Message: message}
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Cause }

// WithCause attaches an underlying error that is logged but not rendered.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// AsError returns err as an *Error. Unknown errors become INTERNAL_SERVER_ERROR
// with a generic message.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return NewError(CodeInternal, "Internal server error").WithCause(err)
}
