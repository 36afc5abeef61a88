package requests

import (
	"context"
	"fmt"
	"net/http"

	"github.com/roadlog/uplink/internal/models"
)

// StatusOutcome is the closed set of successful status-request results.
type StatusOutcome int

const (
	// StatusOutcomeFinished means the collector already has all data.
	StatusOutcomeFinished StatusOutcome = iota

	// StatusOutcomeResume means the collector expects the upload request to
	// continue with the same session.
	StatusOutcomeResume

	// StatusOutcomeAborted means the session is gone on the collector; the
	// caller must discard it and fall back to a pre-request.
	StatusOutcomeAborted
)

// StatusRequest asks the collector how much of an open session's data it has
// received: a zero-body PUT with "Content-Range: bytes */<total>".
func (t *Transport) StatusRequest(ctx context.Context, token string, location string, upload *models.Upload) (StatusOutcome, error) {
	data, err := upload.Data(ctx)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, location, nil)
	if err != nil {
		return 0, fmt.Errorf("building status request: %w", err)
	}
	setAuthorization(req, token)
	req.Header.Set("Content-Range", fmt.Sprintf("bytes */%d", len(data)))
	req.ContentLength = 0

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("status request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return StatusOutcomeFinished, nil
	case http.StatusPermanentRedirect:
		return StatusOutcomeResume, nil
	case http.StatusNotFound:
		return StatusOutcomeAborted, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return 0, fmt.Errorf("status request: %w", ErrUnauthorized)
	default:
		return 0, &StatusError{Code: resp.StatusCode}
	}
}
