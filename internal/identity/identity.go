package identity

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/saasfly/saasfly/pkg/logger"
)

// Identity is an authenticated caller.
type Identity struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Image   string `json:"image,omitempty"`
	IsAdmin bool   `json:"isAdmin"`
}

// Provider resolves the identity behind a request.
// A nil result means the caller is anonymous.
type Provider interface {
	Resolve(ctx context.Context, r *http.Request) *Identity
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, r *http.Request) *Identity

func (f ProviderFunc) Resolve(ctx context.Context, r *http.Request) *Identity { return f(ctx, r) }

// Anonymous never resolves an identity.
var Anonymous Provider = ProviderFunc(func(context.Context, *http.Request) *Identity { return nil })

// AdminList is the set of administrator emails.
type AdminList []string

// ParseAdminList splits a comma-separated list, dropping blanks.
// Entries are compared case-insensitively.
func ParseAdminList(s string) AdminList {
	var out AdminList
	for e := range strings.SplitSeq(s, ",") {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			out = append(out, e)
		}
	}
	return out
}

// IsAdmin reports whether email is listed.
func (l AdminList) IsAdmin(email string) bool {
	if email == "" {
		return false
	}
	return slices.Contains(l, strings.ToLower(strings.TrimSpace(email)))
}

// UnmarshalText lets env decoders fill an AdminList directly.
func (l *AdminList) UnmarshalText(b []byte) error {
	*l = ParseAdminList(string(b))
	return nil
}

type ctxKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// ContextKey is the key identities are stored under, for stores that set
// context values themselves.
func ContextKey() any { return ctxKey{} }

// FromContext returns the identity stored by WithIdentity, or nil.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(ctxKey{}).(*Identity)
	return id
}

// UserIDExtractor adds user_id to log records of authenticated requests.
func UserIDExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id := FromContext(ctx); id != nil {
			return slog.String("user_id", id.ID), true
		}
		return slog.Attr{}, false
	}
}
