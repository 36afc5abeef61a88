// Package services contains the application services of the upload client:
// the upload process state machine, the collector authenticator and the
// batch synchronization service.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/roadlog/uplink/internal/logging"
	"github.com/roadlog/uplink/internal/models"
	"github.com/roadlog/uplink/internal/repositories/sessions"
	"github.com/roadlog/uplink/internal/requests"
)

// maxUploadFailures is the bounded retry budget of the upload request path.
// The failure that pushes the counter past this value is fatal.
const maxUploadFailures = 3

// ErrRetriesExceeded wraps the last upload failure once the retry budget is
// exhausted. The session row is left in the registry for external cleanup.
var ErrRetriesExceeded = errors.New("upload retries exceeded")

// Protocol is the request surface the state machine drives. Implemented by
// requests.Transport; none of the operations retry internally.
type Protocol interface {
	PreRequest(ctx context.Context, token string, upload *models.Upload) (*requests.PreRequestResult, error)
	StatusRequest(ctx context.Context, token string, location string, upload *models.Upload) (requests.StatusOutcome, error)
	UploadRequest(ctx context.Context, token string, location string, upload *models.Upload) error
}

// processState enumerates the states of one upload attempt sequence.
type processState int

const (
	stateNoSession processState = iota
	stateSessionOpen
	stateResuming
	stateUploading
	stateSucceeded
	stateAborted
	stateFailed
)

// step is the explicit machine state threaded through the transition
// functions. Each transition returns the next step instead of mutating
// shared state across callbacks, keeping the sequence auditable.
type step struct {
	state processState
	err   error
}

// Uploader runs the resumable upload protocol for one recording at a time.
// Distinct recordings may be uploaded concurrently by separate calls since
// every recording owns an independent session row.
type Uploader struct {
	protocol Protocol
	registry sessions.Registry
	log      logging.Logger
}

func NewUploader(protocol Protocol, registry sessions.Registry, log logging.Logger) *Uploader {
	return &Uploader{protocol: protocol, registry: registry, log: log}
}

// Upload transfers one recording to the collector, resuming an interrupted
// session when the registry knows one. It returns the updated Upload on
// success and the terminal error otherwise. OnSuccess is invoked exactly
// once per successful completion, before the session is removed.
func (u *Uploader) Upload(ctx context.Context, token string, upload *models.Upload) (*models.Upload, error) {
	log := u.log.With("measurement", upload.RecordingID)

	existing, err := u.registry.Get(ctx, upload.RecordingID)
	if err != nil {
		return nil, err
	}

	current := step{state: stateNoSession}
	if existing != nil {
		upload.Location = existing.Location
		current = step{state: stateSessionOpen}
		log.Info(ctx, "found open session", "location", upload.Location)
	}

	for {
		switch current.state {
		case stateNoSession:
			current = u.stepPreRequest(ctx, token, upload, log)
		case stateSessionOpen, stateResuming:
			current = u.stepStatusRequest(ctx, token, upload, log)
		case stateUploading:
			current = u.stepUploadRequest(ctx, token, upload, log)
		case stateSucceeded:
			upload.FailedUploadsCounter = 0
			return upload, nil
		case stateAborted, stateFailed:
			return nil, current.err
		default:
			return nil, fmt.Errorf("invalid upload process state %d", current.state)
		}
	}
}

// stepPreRequest asks the collector to open a session for the upload.
func (u *Uploader) stepPreRequest(ctx context.Context, token string, upload *models.Upload, log logging.Logger) step {
	result, err := u.protocol.PreRequest(ctx, token, upload)
	if err != nil {
		// Auth failures short-circuit without touching the registry; so do
		// data, protocol and transport errors since no session exists yet.
		log.Error(ctx, "pre-request failed", "error", err)
		return step{state: stateFailed, err: err}
	}

	switch result.Outcome {
	case requests.PreOutcomeAlreadyExists:
		log.Info(ctx, "measurement already exists on collector, skipping data transfer")
		if err := upload.OnSuccess(ctx); err != nil {
			return step{state: stateFailed, err: err}
		}
		return step{state: stateSucceeded}

	case requests.PreOutcomeSessionCreated:
		upload.Location = result.Location
		if err := u.registry.Register(ctx, upload); err != nil {
			return step{state: stateFailed, err: err}
		}
		if err := u.registry.Record(ctx, upload, models.RequestKindPre, http.StatusOK, "session created", time.Now()); err != nil {
			return step{state: stateFailed, err: err}
		}
		log.Debug(ctx, "session created", "location", upload.Location)
		return step{state: stateUploading}

	default:
		return step{state: stateFailed, err: fmt.Errorf("invalid pre-request outcome %d", result.Outcome)}
	}
}

// stepStatusRequest probes how much of the session's data the collector
// already has and decides between done, resume and restart.
func (u *Uploader) stepStatusRequest(ctx context.Context, token string, upload *models.Upload, log logging.Logger) step {
	outcome, err := u.protocol.StatusRequest(ctx, token, upload.Location, upload)
	if err != nil {
		if errors.Is(err, requests.ErrUnauthorized) {
			return step{state: stateFailed, err: err}
		}

		var statusErr *requests.StatusError
		if errors.As(err, &statusErr) {
			// A definite unexpected status invalidates the session.
			_ = u.registry.RecordError(ctx, upload, models.RequestKindStatus, statusErr.Code, err)
			if removeErr := u.registry.Remove(ctx, upload); removeErr != nil {
				return step{state: stateFailed, err: removeErr}
			}
			log.Error(ctx, "status request rejected, session discarded", "status", statusErr.Code)
			return step{state: stateAborted, err: err}
		}

		// Transport or data error: keep the session for a later resume.
		log.Warn(ctx, "status request failed, keeping session", "error", err)
		return step{state: stateFailed, err: err}
	}

	switch outcome {
	case requests.StatusOutcomeFinished:
		log.Info(ctx, "collector already has all data")
		if err := u.registry.Record(ctx, upload, models.RequestKindStatus, http.StatusOK, "upload finished", time.Now()); err != nil {
			return step{state: stateFailed, err: err}
		}
		if err := upload.OnSuccess(ctx); err != nil {
			return step{state: stateFailed, err: err}
		}
		if err := u.registry.Remove(ctx, upload); err != nil {
			return step{state: stateFailed, err: err}
		}
		return step{state: stateSucceeded}

	case requests.StatusOutcomeResume:
		if err := u.registry.Record(ctx, upload, models.RequestKindStatus, http.StatusPermanentRedirect, "resuming upload", time.Now()); err != nil {
			return step{state: stateFailed, err: err}
		}
		log.Debug(ctx, "resuming upload", "location", upload.Location)
		return step{state: stateUploading}

	case requests.StatusOutcomeAborted:
		log.Info(ctx, "session gone on collector, restarting")
		if err := u.registry.Remove(ctx, upload); err != nil {
			return step{state: stateFailed, err: err}
		}
		upload.Location = ""
		return step{state: stateNoSession}

	default:
		return step{state: stateFailed, err: fmt.Errorf("invalid status outcome %d", outcome)}
	}
}

// stepUploadRequest transmits the payload. Failures here, including
// transport errors, consume the bounded retry budget; each non-fatal failure
// re-probes the collector via a status request before trying again.
func (u *Uploader) stepUploadRequest(ctx context.Context, token string, upload *models.Upload, log logging.Logger) step {
	err := u.protocol.UploadRequest(ctx, token, upload.Location, upload)
	if err == nil {
		if recordErr := u.registry.Record(ctx, upload, models.RequestKindUpload, http.StatusCreated, "upload complete", time.Now()); recordErr != nil {
			return step{state: stateFailed, err: recordErr}
		}
		if err := upload.OnSuccess(ctx); err != nil {
			return step{state: stateFailed, err: err}
		}
		if err := u.registry.Remove(ctx, upload); err != nil {
			return step{state: stateFailed, err: err}
		}
		log.Info(ctx, "upload finished")
		return step{state: stateSucceeded}
	}

	if errors.Is(err, requests.ErrUnauthorized) {
		return step{state: stateFailed, err: err}
	}

	upload.FailedUploadsCounter++

	httpStatus := 0
	var statusErr *requests.StatusError
	if errors.As(err, &statusErr) {
		httpStatus = statusErr.Code
	}
	if recordErr := u.registry.RecordError(ctx, upload, models.RequestKindUpload, httpStatus, err); recordErr != nil {
		return step{state: stateFailed, err: recordErr}
	}

	if upload.FailedUploadsCounter > maxUploadFailures {
		attempts := upload.FailedUploadsCounter
		upload.FailedUploadsCounter = 0
		log.Error(ctx, "giving up on upload", "attempts", attempts, "error", err)
		return step{state: stateFailed, err: fmt.Errorf("%w after %d attempts: %w", ErrRetriesExceeded, attempts, err)}
	}

	log.Warn(ctx, "upload request failed, re-probing session", "attempt", upload.FailedUploadsCounter, "error", err)
	return step{state: stateResuming}
}
