package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/saasfly/saasfly/pkg/tokenstore"
)

// DefaultLinkTTL is how long a magic link stays valid.
const DefaultLinkTTL = 24 * time.Hour

const linkAudience = "magic-link"

type linkClaims struct {
	CallbackURL string `json:"cb,omitempty"`
	jwt.RegisteredClaims
}

// Link is a redeemed magic link.
type Link struct {
	Email       string
	CallbackURL string
}

// MagicLinks issues signed one-time sign-in tokens. Issued token ids are
// recorded in the store; redeeming a token consumes its id.
type MagicLinks struct {
	secret []byte
	issuer string
	ttl    time.Duration
	store  tokenstore.Store
	now    func() time.Time
}

// NewMagicLinks creates an issuer. The token issuer is derived from issuer
// so magic links never verify as session tokens.
func NewMagicLinks(secret, issuer string, ttl time.Duration, store tokenstore.Store) (*MagicLinks, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if store == nil {
		return nil, ErrMissingStore
	}
	if ttl <= 0 {
		ttl = DefaultLinkTTL
	}
	return &MagicLinks{
		secret: []byte(secret),
		issuer: issuer + ":" + linkAudience,
		ttl:    ttl,
		store:  store,
		now:    time.Now,
	}, nil
}

// Issue creates a token for email.
func (m *MagicLinks) Issue(ctx context.Context, email, callbackURL string) (string, error) {
	now := m.now()
	jti := uuid.NewString()
	claims := linkClaims{
		CallbackURL: callbackURL,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    m.issuer,
			Subject:   email,
			Audience:  jwt.ClaimStrings{linkAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", err
	}
	if err := m.store.Put(ctx, linkKey(jti), m.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Consume verifies token and burns it. A second call with the same token
// returns ErrLinkUsed.
func (m *MagicLinks) Consume(ctx context.Context, token string) (*Link, error) {
	if token == "" {
		return nil, ErrInvalidLink
	}
	claims := &linkClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(linkAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, errors.Join(ErrInvalidLink, err)
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, ErrInvalidLink
	}

	ok, err := m.store.Consume(ctx, linkKey(claims.ID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLinkUsed
	}
	return &Link{Email: claims.Subject, CallbackURL: claims.CallbackURL}, nil
}

func linkKey(jti string) string { return "magiclink:" + jti }
