package oauth

import (
	"context"
	"strconv"

	"golang.org/x/oauth2"
	githubOAuth "golang.org/x/oauth2/github"
)

const (
	// GitHubProviderName is the identifier of the GitHub provider.
	GitHubProviderName = "github"
	githubAPIBase      = "https://api.github.com"
)

// GitHubDefaultScopes returns the default scopes for GitHub OAuth.
func GitHubDefaultScopes() []string {
	return []string{"read:user", "user:email"}
}

// GitHubProvider implements Provider for GitHub.
type GitHubProvider struct {
	base
}

// NewGitHubProvider creates a GitHub provider.
func NewGitHubProvider(cfg GitHubConfig, opts ...Option) (*GitHubProvider, error) {
	if cfg.ClientID == "" {
		return nil, ErrMissingClientID
	}
	if cfg.ClientSecret == "" {
		return nil, ErrMissingClientSecret
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = GitHubDefaultScopes()
	}
	return &GitHubProvider{
		base: newBase(cfg.ClientID, cfg.ClientSecret, cfg.RedirectURL, scopes,
			githubOAuth.Endpoint, githubAPIBase, applyOptions(opts)),
	}, nil
}

// Name returns "github".
func (p *GitHubProvider) Name() string { return GitHubProviderName }

type githubUser struct {
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	ID        int64  `json:"id"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// FetchUserInfo reads the profile and picks the primary verified email,
// falling back to any verified one.
func (p *GitHubProvider) FetchUserInfo(ctx context.Context, token *oauth2.Token) (*UserInfo, error) {
	var u githubUser
	if err := p.getJSON(ctx, token, "/user", &u); err != nil {
		return nil, err
	}
	var emails []githubEmail
	if err := p.getJSON(ctx, token, "/user/emails", &emails); err != nil {
		return nil, err
	}

	email := ""
	for _, e := range emails {
		if e.Verified && (e.Primary || email == "") {
			email = e.Email
		}
	}
	if email == "" {
		return nil, ErrEmailNotVerified
	}

	name := u.Name
	if name == "" {
		name = u.Login
	}
	return &UserInfo{
		ID:      strconv.FormatInt(u.ID, 10),
		Email:   email,
		Name:    name,
		Picture: u.AvatarURL,
	}, nil
}
