package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig          = errors.New("invalid configuration")
	ErrAccountNotFound        = errors.New("account not found")
	ErrCredentialsRequired    = errors.New("api keys not configured")
	ErrUnknownOperation       = errors.New("method not found")
	ErrQueueUnavailable       = errors.New("durable queue unavailable")
	ErrResultStoreUnavailable = errors.New("result store unavailable")
	ErrMalformedRecord        = errors.New("malformed queue record")
	ErrTimedOut               = errors.New("request timed out")
)

// UpstreamError is an explicit failure reported by the exchange.
type UpstreamError struct {
	Code       int
	Message    string
	HTTPStatus int
}

func (e *UpstreamError) Error() string {
	if e.HTTPStatus != 0 && e.Code == 0 {
		return fmt.Sprintf("upstream http %d: %s", e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("upstream code %d: %s", e.Code, e.Message)
}

// FailureFromError maps an execution error onto the result taxonomy.
func FailureFromError(err error) Result {
	var upErr *UpstreamError
	switch {
	case errors.As(err, &upErr):
		return Failed(KindUpstreamExecution, upErr.Message, upErr.Code)
	case errors.Is(err, ErrUnknownOperation):
		return Failed(KindUnknownOperation, ErrUnknownOperation.Error(), 0)
	case errors.Is(err, ErrAccountNotFound), errors.Is(err, ErrCredentialsRequired):
		return Failed(KindCredentialResolution, err.Error(), 0)
	default:
		return Failed(KindUpstreamExecution, err.Error(), 0)
	}
}
