package requests

import (
	"context"
	"fmt"
	"net/http"

	"github.com/roadlog/uplink/internal/models"
)

// PreRequestOutcome is the closed set of successful pre-request results.
type PreRequestOutcome int

const (
	// PreOutcomeSessionCreated means the collector opened a new upload
	// session; its location accompanies the outcome.
	PreOutcomeSessionCreated PreRequestOutcome = iota

	// PreOutcomeAlreadyExists means the measurement already exists on the
	// collector. Equivalent to final success without any data transfer.
	PreOutcomeAlreadyExists
)

// PreRequestResult carries the outcome of a successful pre-request exchange.
type PreRequestResult struct {
	Outcome  PreRequestOutcome
	Location string
}

// PreRequest asks the collector to open a new upload session for the
// upload's metadata. No storage side effects; the caller registers the
// session on success.
func (t *Transport) PreRequest(ctx context.Context, token string, upload *models.Upload) (*PreRequestResult, error) {
	meta, err := upload.MetaData(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.measurementsURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("building pre-request: %w", err)
	}
	setAuthorization(req, token)
	setMetaDataHeaders(req, meta)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pre-request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		location := resp.Header.Get("Location")
		if location == "" {
			return nil, ErrMissingLocation
		}
		return &PreRequestResult{Outcome: PreOutcomeSessionCreated, Location: location}, nil
	case http.StatusConflict:
		return &PreRequestResult{Outcome: PreOutcomeAlreadyExists}, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("pre-request: %w", ErrUnauthorized)
	default:
		return nil, &StatusError{Code: resp.StatusCode}
	}
}
