package services

import (
	"context"

	"github.com/roadlog/uplink/internal/models"
	"github.com/roadlog/uplink/internal/repositories/recordings"
	"github.com/roadlog/uplink/internal/serialization"
)

// DeviceInfo describes the capturing device and host application. The values
// end up in every measurement's metadata.
type DeviceInfo struct {
	DeviceType string
	OSVersion  string
	AppVersion string
}

// NewUploadFactory builds Uploads backed by the recordings repository and the
// binary serializer. The factory is shared by the session registry (to
// reconstruct Uploads for persisted sessions) and by the sync service.
func NewUploadFactory(repo recordings.Repository, device DeviceInfo) models.UploadFactory {
	return func(ctx context.Context, recordingID int64) (*models.Upload, error) {
		rec, err := repo.GetByID(ctx, recordingID)
		if err != nil {
			return nil, err
		}

		meta := func(ctx context.Context) (*models.MetaData, error) {
			return &models.MetaData{
				DeviceID:      rec.DeviceID,
				MeasurementID: rec.ID,
				DeviceType:    device.DeviceType,
				OSVersion:     device.OSVersion,
				AppVersion:    device.AppVersion,
				FormatVersion: models.FormatVersion,
				LocationCount: rec.LocationCount,
				TrackLength:   rec.TrackLength,
				Modality:      rec.Modality,
				Start:         rec.Start,
				End:           rec.End,
			}, nil
		}

		data := func(ctx context.Context) ([]byte, error) {
			locations, err := repo.Locations(ctx, recordingID)
			if err != nil {
				return nil, err
			}
			return serialization.Serialize(rec, locations)
		}

		success := func(ctx context.Context) error {
			return repo.MarkSynchronized(ctx, recordingID)
		}

		return models.NewUpload(recordingID, meta, data, success), nil
	}
}
