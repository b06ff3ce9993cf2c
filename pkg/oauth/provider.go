package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"

	"golang.org/x/oauth2"
)

// UserInfo is the provider-agnostic profile of a signed-in user.
type UserInfo struct {
	ID      string // provider's user id
	Email   string
	Name    string
	Picture string
}

// Provider abstracts provider-specific OAuth operations.
type Provider interface {
	// Name returns the provider identifier, e.g. "google".
	Name() string

	// AuthCodeURL generates the authorization URL for the OAuth flow.
	AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string

	// Exchange trades an authorization code for tokens. A non-empty
	// redirectURI replaces the configured one.
	Exchange(ctx context.Context, code, redirectURI string) (*oauth2.Token, error)

	// FetchUserInfo reads the user's profile. It returns ErrEmailNotVerified
	// when the provider has no verified email for the user.
	FetchUserInfo(ctx context.Context, token *oauth2.Token) (*UserInfo, error)
}

// Registry looks providers up by name.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry registers providers under their names. Nil entries are skipped.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		if p != nil {
			r.providers[p.Name()] = p
		}
	}
	return r
}

// Lookup returns the provider registered as name.
func (r *Registry) Lookup(name string) (Provider, error) {
	if r != nil {
		if p, ok := r.providers[name]; ok {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
}

// Names lists registered providers in lexical order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.providers))
	for n := range r.providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// base holds the parts shared by every provider.
type base struct {
	config     *oauth2.Config
	httpClient *http.Client
	apiBase    string
}

func newBase(id, secret, redirect string, scopes []string, ep oauth2.Endpoint, apiBase string, o options) base {
	if o.endpoint != nil {
		ep = *o.endpoint
	}
	if o.apiBase != "" {
		apiBase = o.apiBase
	}
	return base{
		config: &oauth2.Config{
			ClientID:     id,
			ClientSecret: secret,
			RedirectURL:  redirect,
			Scopes:       scopes,
			Endpoint:     ep,
		},
		httpClient: o.httpClient,
		apiBase:    apiBase,
	}
}

func (b *base) AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string {
	return b.config.AuthCodeURL(state, opts...)
}

func (b *base) Exchange(ctx context.Context, code, redirectURI string) (*oauth2.Token, error) {
	cfg := b.config
	if redirectURI != "" {
		c := *b.config
		c.RedirectURL = redirectURI
		cfg = &c
	}
	tok, err := cfg.Exchange(b.withHTTPClient(ctx), code)
	if err != nil {
		return nil, errors.Join(ErrExchangeFailed, err)
	}
	return tok, nil
}

func (b *base) withHTTPClient(ctx context.Context) context.Context {
	if b.httpClient != nil {
		return context.WithValue(ctx, oauth2.HTTPClient, b.httpClient)
	}
	return ctx
}

// getJSON fetches apiBase+path with the token and decodes the body into dst.
func (b *base) getJSON(ctx context.Context, token *oauth2.Token, path string, dst any) error {
	ctx = b.withHTTPClient(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.apiBase+path, nil)
	if err != nil {
		return errors.Join(ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.config.Client(ctx, token).Do(req)
	if err != nil {
		return errors.Join(ErrFetchFailed, fmt.Errorf("get %s: %w", path, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return errors.Join(ErrRequestFailed, fmt.Errorf("get %s: status=%d body=%s", path, resp.StatusCode, body))
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return errors.Join(ErrDecodeFailed, fmt.Errorf("decode %s: %w", path, err))
	}
	return nil
}
