package db

import "errors"

var (
	ErrInvalidConfig     = errors.New("db: invalid configuration")
	ErrConnectionFailed  = errors.New("db: failed to open connection")
	ErrHealthcheckFailed = errors.New("db: healthcheck failed")
	ErrMigrationFailed   = errors.New("db: failed to apply migrations")
)
