package identity

import (
	"context"
	"crypto/rsa"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/saasfly/saasfly/pkg/logger"
)

// ClerkSessionCookie is the cookie Clerk stores its session token in.
const ClerkSessionCookie = "__session"

// ClerkConfig configures verification of Clerk session tokens.
type ClerkConfig struct {
	// PublicKey is the instance's PEM encoded RSA public key.
	PublicKey         string   `env:"CLERK_PEM_PUBLIC_KEY"`
	AuthorizedParties []string `env:"CLERK_AUTHORIZED_PARTIES" envSeparator:","`
}

// clerkUser is the custom "user" claim configured on the Clerk session template.
type clerkUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image"`
}

type clerkClaims struct {
	User *clerkUser `json:"user,omitempty"`
	Azp  string     `json:"azp,omitempty"`
	jwt.RegisteredClaims
}

// ClerkProvider resolves identities from Clerk session tokens.
type ClerkProvider struct {
	key       *rsa.PublicKey
	parties   []string
	admins    AdminList
	extractor Extractor
	logger    *slog.Logger
	now       func() time.Time
}

// NewClerkProvider parses the public key. A nil logger discards output.
func NewClerkProvider(cfg ClerkConfig, admins AdminList, log *slog.Logger) (*ClerkProvider, error) {
	if strings.TrimSpace(cfg.PublicKey) == "" {
		return nil, ErrMissingKey
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKey))
	if err != nil {
		return nil, errors.Join(ErrMissingKey, err)
	}
	if log == nil {
		log = logger.NewNope()
	}
	return &ClerkProvider{
		key:       key,
		parties:   cfg.AuthorizedParties,
		admins:    admins,
		extractor: NewExtractor(FromCookie(ClerkSessionCookie), FromBearerToken()),
		logger:    log,
		now:       time.Now,
	}, nil
}

func (p *ClerkProvider) Resolve(ctx context.Context, r *http.Request) *Identity {
	token, ok := p.extractor.Extract(r)
	if !ok {
		return nil
	}
	id, err := p.verify(token)
	if err != nil {
		p.logger.DebugContext(ctx, "clerk token rejected", slog.Any("error", err))
		return nil
	}
	id.IsAdmin = p.admins.IsAdmin(id.Email)
	return id
}

func (p *ClerkProvider) verify(token string) (*Identity, error) {
	claims := &clerkClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return p.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if len(p.parties) > 0 && claims.Azp != "" && !slices.Contains(p.parties, claims.Azp) {
		return nil, ErrInvalidToken
	}

	id := &Identity{ID: claims.Subject}
	if u := claims.User; u != nil {
		if u.ID != "" {
			id.ID = u.ID
		}
		id.Name, id.Email, id.Image = u.Name, u.Email, u.Image
	}
	if id.ID == "" {
		return nil, ErrInvalidToken
	}
	return id, nil
}

var _ Provider = (*ClerkProvider)(nil)
