package rpc

import (
	"net/http"

	"github.com/saasfly/saasfly/internal/identity"
)

// Context is the per-call context handed to procedures.
type Context struct {
	Headers  http.Header
	Identity *identity.Identity
	// UserID is empty for anonymous calls.
	UserID string
}

// Authenticated reports whether an identity was resolved.
func (c *Context) Authenticated() bool { return c != nil && c.Identity != nil }

// ContextBuilder builds call contexts from requests.
type ContextBuilder struct {
	provider identity.Provider
}

// NewContextBuilder creates a builder. A nil provider only uses identities
// already stored on the request context.
func NewContextBuilder(p identity.Provider) *ContextBuilder {
	if p == nil {
		p = identity.Anonymous
	}
	return &ContextBuilder{provider: p}
}

// Build prefers the identity the request gate stored, then asks the provider.
func (b *ContextBuilder) Build(r *http.Request) *Context {
	id := identity.FromContext(r.Context())
	if id == nil {
		id = b.provider.Resolve(r.Context(), r)
	}
	return NewContext(r.Header, id)
}

// NewContext creates a call context for server-side callers.
func NewContext(h http.Header, id *identity.Identity) *Context {
	rc := &Context{Headers: h, Identity: id}
	if id != nil {
		rc.UserID = id.ID
	}
	return rc
}
