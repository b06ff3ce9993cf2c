package auth

import "errors"

var (
	ErrMissingSecret = errors.New("auth: magic link secret is required")
	ErrMissingStore  = errors.New("auth: magic links need a token store")
	ErrInvalidLink   = errors.New("auth: invalid magic link")
	ErrLinkUsed      = errors.New("auth: magic link already used or expired")
)
