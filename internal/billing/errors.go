package billing

import "errors"

var (
	ErrUnauthorized   = errors.New("billing: unauthorized")
	ErrPlanRequired   = errors.New("billing: plan id is required")
	ErrUserNotFound   = errors.New("billing: user not found")
	ErrEmptySession   = errors.New("billing: provider returned no session url")
	ErrProviderFailed = errors.New("billing: provider request failed")
	ErrMissingAPIKey  = errors.New("billing: missing api key")
)
