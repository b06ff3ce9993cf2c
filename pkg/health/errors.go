package health

import "errors"

// ErrCheckTimeout is reported for checks that outlive the configured timeout.
var ErrCheckTimeout = errors.New("health: check timeout")
