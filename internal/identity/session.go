package identity

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/saasfly/saasfly/pkg/logger"
	"github.com/saasfly/saasfly/pkg/tokenstore"
)

// DefaultSessionCookie is the cookie carrying the session token.
const DefaultSessionCookie = "saasfly.session-token"

// SessionConfig configures session token signing.
type SessionConfig struct {
	Secret     string        `env:"AUTH_SECRET"`
	Issuer     string        `env:"SESSION_ISSUER" envDefault:"saasfly"`
	TTL        time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	CookieName string        `env:"SESSION_COOKIE" envDefault:"saasfly.session-token"`
}

type sessionClaims struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies session tokens.
// Revocation needs a token store; without one Revoke is a no-op.
type Issuer struct {
	cfg    SessionConfig
	secret []byte
	store  tokenstore.Store
	now    func() time.Time
}

// NewIssuer creates an issuer. store may be nil.
func NewIssuer(cfg SessionConfig, store tokenstore.Store) (*Issuer, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * 24 * time.Hour
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultSessionCookie
	}
	return &Issuer{cfg: cfg, secret: []byte(cfg.Secret), store: store, now: time.Now}, nil
}

// CookieName returns the session cookie name.
func (i *Issuer) CookieName() string { return i.cfg.CookieName }

// Issue signs a session token for id. IsAdmin is never embedded.
func (i *Issuer) Issue(id Identity) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(i.cfg.TTL)
	claims := sessionClaims{
		Name:    id.Name,
		Email:   id.Email,
		Picture: id.Image,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    i.cfg.Issuer,
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// Verify checks signature, issuer, expiry and revocation.
func (i *Issuer) Verify(ctx context.Context, token string) (*Identity, error) {
	claims, err := i.parse(token)
	if err != nil {
		return nil, err
	}
	if i.store != nil {
		revoked, err := i.store.Exists(ctx, revokedKey(claims.ID))
		if err != nil {
			return nil, errors.Join(ErrInvalidToken, err)
		}
		if revoked {
			return nil, ErrRevokedToken
		}
	}
	return &Identity{
		ID:    claims.Subject,
		Name:  claims.Name,
		Email: claims.Email,
		Image: claims.Picture,
	}, nil
}

// Revoke marks token unusable until it would have expired.
// Invalid or expired tokens are ignored.
func (i *Issuer) Revoke(ctx context.Context, token string) error {
	if i.store == nil {
		return nil
	}
	claims, err := i.parse(token)
	if err != nil {
		return nil
	}
	ttl := claims.ExpiresAt.Sub(i.now())
	if ttl <= 0 {
		return nil
	}
	return i.store.Put(ctx, revokedKey(claims.ID), ttl)
}

func (i *Issuer) parse(token string) (*sessionClaims, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func revokedKey(jti string) string { return "session:revoked:" + jti }

// SessionProvider resolves identities from session tokens
// in the session cookie or an Authorization bearer header.
type SessionProvider struct {
	issuer    *Issuer
	admins    AdminList
	extractor Extractor
	logger    *slog.Logger
}

// NewSessionProvider creates a provider. A nil logger discards output.
func NewSessionProvider(issuer *Issuer, admins AdminList, log *slog.Logger) *SessionProvider {
	if log == nil {
		log = logger.NewNope()
	}
	return &SessionProvider{
		issuer:    issuer,
		admins:    admins,
		extractor: NewExtractor(FromCookie(issuer.CookieName()), FromBearerToken()),
		logger:    log,
	}
}

func (p *SessionProvider) Resolve(ctx context.Context, r *http.Request) *Identity {
	token, ok := p.extractor.Extract(r)
	if !ok {
		return nil
	}
	id, err := p.issuer.Verify(ctx, token)
	if err != nil {
		p.logger.DebugContext(ctx, "session token rejected", slog.Any("error", err))
		return nil
	}
	id.IsAdmin = p.admins.IsAdmin(id.Email)
	return id
}

var _ Provider = (*SessionProvider)(nil)
