package requests

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned for 401/403 responses. It short-circuits
	// the whole upload attempt; the caller must refresh its token.
	ErrUnauthorized = errors.New("request not authorized")

	// ErrMissingLocation is returned when a pre-request succeeds with 200
	// but the response carries no Location header.
	ErrMissingLocation = errors.New("location header missing on pre-request response")
)

// StatusError reports a response status the protocol does not account for.
// It is surfaced as-is and never retried below the upload process.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected http status %d", e.Code)
}
