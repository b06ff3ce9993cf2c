package identity

import (
	"net/http"
	"strings"
)

// TokenSource reads a raw token from a request.
type TokenSource func(r *http.Request) (string, bool)

// Extractor tries sources in order and returns the first non-empty token.
type Extractor []TokenSource

// NewExtractor creates an Extractor over sources.
func NewExtractor(sources ...TokenSource) Extractor {
	return Extractor(sources)
}

// Extract returns the first token found.
func (e Extractor) Extract(r *http.Request) (string, bool) {
	for _, src := range e {
		if v, ok := src(r); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// FromCookie reads a cookie value.
func FromCookie(name string) TokenSource {
	return func(r *http.Request) (string, bool) {
		c, err := r.Cookie(name)
		if err != nil || c.Value == "" {
			return "", false
		}
		return c.Value, true
	}
}

// FromBearerToken reads "Authorization: Bearer <token>". The scheme is case-insensitive.
func FromBearerToken() TokenSource {
	return func(r *http.Request) (string, bool) {
		scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return "", false
		}
		token = strings.TrimSpace(token)
		return token, token != ""
	}
}
