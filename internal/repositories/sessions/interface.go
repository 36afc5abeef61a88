// Package sessions implements the upload session registry: durable
// bookkeeping of open resumable-upload sessions, keyed by the recording
// identifier, including the append-only protocol log per session.
package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/roadlog/uplink/internal/models"
)

// Consistency errors. Both indicate a logic bug or a race and must not be
// silently ignored by callers; match with errors.Is.
var (
	ErrSessionAlreadyRegistered = errors.New("session already registered")
	ErrSessionNotRegistered     = errors.New("session not registered")
)

// Registry tracks at most one open upload session per recording. All
// operations may fail with a storage error when the underlying store is
// unavailable.
type Registry interface {
	// Get reconstructs an Upload from a persisted session, stamping the
	// persisted remote location onto it. Returns (nil, nil) when no session
	// exists for the recording.
	Get(ctx context.Context, recordingID int64) (*models.Upload, error)

	// Register creates a session row for the upload's recording, storing its
	// current remote location and the current time. Returns
	// ErrSessionAlreadyRegistered when a session already exists.
	Register(ctx context.Context, upload *models.Upload) error

	// Record appends a protocol-interaction entry to the existing session.
	// Returns ErrSessionNotRegistered when no session exists.
	Record(ctx context.Context, upload *models.Upload, kind models.RequestKind, httpStatus int, message string, at time.Time) error

	// RecordError appends an entry for an unsuccessful exchange, storing the
	// error's description with the error flag set.
	RecordError(ctx context.Context, upload *models.Upload, kind models.RequestKind, httpStatus int, cause error) error

	// Remove deletes the session for the upload's recording together with its
	// protocol log. Returns ErrSessionNotRegistered when no session exists.
	Remove(ctx context.Context, upload *models.Upload) error

	// Protocol returns the ordered protocol log of a recording's session for
	// diagnostics. Returns ErrSessionNotRegistered when no session exists.
	Protocol(ctx context.Context, recordingID int64) ([]models.UploadTask, error)
}
