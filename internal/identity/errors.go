package identity

import "errors"

var (
	ErrNoToken       = errors.New("identity: no token")
	ErrInvalidToken  = errors.New("identity: invalid token")
	ErrRevokedToken  = errors.New("identity: token revoked")
	ErrMissingSecret = errors.New("identity: session secret is required")
	ErrMissingKey    = errors.New("identity: clerk public key is required")
)
