// Package recordings stores finished captures locally until they have been
// synchronized with the collector.
package recordings

import (
	"context"
	"errors"

	"github.com/roadlog/uplink/internal/models"
)

var ErrRecordingNotFound = errors.New("recording not found")

// Repository is the persistence collaborator of the upload process: it
// supplies the inputs for building an Upload and records the terminal
// synchronized state.
type Repository interface {
	// Insert stores a finished recording together with its location trace.
	Insert(ctx context.Context, rec *models.Recording, locations []models.GeoLocation) error

	// GetByID returns a recording or ErrRecordingNotFound.
	GetByID(ctx context.Context, id int64) (*models.Recording, error)

	// Locations returns the ordered location trace of a recording.
	Locations(ctx context.Context, id int64) ([]models.GeoLocation, error)

	// FindUnsynchronized lists recordings still eligible for upload.
	FindUnsynchronized(ctx context.Context) ([]*models.Recording, error)

	// MarkSynchronized flags a recording as uploaded. Idempotent.
	MarkSynchronized(ctx context.Context, id int64) error
}
