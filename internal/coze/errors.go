package coze

import "errors"

var (
	ErrMissingToken    = errors.New("coze: missing api token")
	ErrMissingWorkflow = errors.New("coze: missing workflow id")
	ErrRequestFailed   = errors.New("coze: request failed")
	ErrBadStatus       = errors.New("coze: non-OK status")
	ErrDecodeFailed    = errors.New("coze: failed to decode response")
	ErrNoData          = errors.New("coze: workflow returned no data")
)

// APIError is a response whose code is not zero.
type APIError struct {
	Code     int
	Msg      string
	DebugURL string
}

func (e *APIError) Error() string {
	if e.Msg == "" {
		return "coze: workflow execution failed"
	}
	return "coze: " + e.Msg
}
