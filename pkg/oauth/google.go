package oauth

import (
	"context"

	"golang.org/x/oauth2"
	googleOAuth "golang.org/x/oauth2/google"
)

const (
	// GoogleProviderName is the identifier of the Google provider.
	GoogleProviderName = "google"
	googleAPIBase      = "https://www.googleapis.com"
	googleUserInfoPath = "/oauth2/v2/userinfo"
)

// GoogleDefaultScopes returns the default scopes for Google OAuth.
func GoogleDefaultScopes() []string {
	return []string{
		"https://www.googleapis.com/auth/userinfo.email",
		"https://www.googleapis.com/auth/userinfo.profile",
	}
}

// GoogleProvider implements Provider for Google.
type GoogleProvider struct {
	base
}

// NewGoogleProvider creates a Google provider.
func NewGoogleProvider(cfg GoogleConfig, opts ...Option) (*GoogleProvider, error) {
	if cfg.ClientID == "" {
		return nil, ErrMissingClientID
	}
	if cfg.ClientSecret == "" {
		return nil, ErrMissingClientSecret
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = GoogleDefaultScopes()
	}
	return &GoogleProvider{
		base: newBase(cfg.ClientID, cfg.ClientSecret, cfg.RedirectURL, scopes,
			googleOAuth.Endpoint, googleAPIBase, applyOptions(opts)),
	}, nil
}

// Name returns "google".
func (p *GoogleProvider) Name() string { return GoogleProviderName }

// AuthCodeURL asks for consent and offline access on every sign-in.
func (p *GoogleProvider) AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string {
	opts = append([]oauth2.AuthCodeOption{
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	}, opts...)
	return p.base.AuthCodeURL(state, opts...)
}

type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	VerifiedEmail bool   `json:"verified_email"`
}

// FetchUserInfo reads the userinfo endpoint.
func (p *GoogleProvider) FetchUserInfo(ctx context.Context, token *oauth2.Token) (*UserInfo, error) {
	var u googleUserInfo
	if err := p.getJSON(ctx, token, googleUserInfoPath, &u); err != nil {
		return nil, err
	}
	if !u.VerifiedEmail || u.Email == "" {
		return nil, ErrEmailNotVerified
	}
	return &UserInfo{ID: u.ID, Email: u.Email, Name: u.Name, Picture: u.Picture}, nil
}
