package account

import "errors"

var (
	ErrUserNotFound     = errors.New("account: user not found")
	ErrCustomerNotFound = errors.New("account: customer not found")
	ErrInvalidEmail     = errors.New("account: invalid email")
	ErrInvalidPlan      = errors.New("account: invalid plan")
)
