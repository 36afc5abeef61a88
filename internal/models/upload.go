package models

import (
	"context"
	"fmt"
)

// MetaDataFunc computes the metadata for a recording.
type MetaDataFunc func(ctx context.Context) (*MetaData, error)

// DataFunc produces the serialized, compressed payload for a recording.
type DataFunc func(ctx context.Context) ([]byte, error)

// SuccessFunc marks the backing recording as synchronized.
type SuccessFunc func(ctx context.Context) error

// UploadFactory reconstructs an Upload for a recording identifier. The
// session registry uses it to honor its Get contract without knowing the
// recording schema.
type UploadFactory func(ctx context.Context, recordingID int64) (*Upload, error)

// Upload is one transmittable unit: a finished recording together with the
// mutable state of its upload attempt sequence. It is not persisted itself,
// only its session is. During an attempt sequence it is exclusively owned by
// the upload process.
type Upload struct {
	// RecordingID is the device-unique measurement identifier.
	RecordingID int64

	// FailedUploadsCounter counts failed upload requests within the current
	// attempt sequence. Reset to zero only on success or on giving up.
	FailedUploadsCounter int

	// Location is the remote session URL, empty until a session exists.
	Location string

	metaFn    MetaDataFunc
	dataFn    DataFunc
	successFn SuccessFunc

	meta      *MetaData
	data      []byte
	succeeded bool
}

// NewUpload wires an Upload to its payload, metadata and success callbacks.
func NewUpload(recordingID int64, meta MetaDataFunc, data DataFunc, onSuccess SuccessFunc) *Upload {
	return &Upload{
		RecordingID: recordingID,
		metaFn:      meta,
		dataFn:      data,
		successFn:   onSuccess,
	}
}

// MetaData returns the recording's metadata, computing and validating it on
// first use. The result is cached after the first successful computation.
func (u *Upload) MetaData(ctx context.Context) (*MetaData, error) {
	if u.meta != nil {
		return u.meta, nil
	}

	meta, err := u.metaFn(ctx)
	if err != nil {
		return nil, fmt.Errorf("computing metadata for measurement %d: %w", u.RecordingID, err)
	}
	if err := meta.Validate(); err != nil {
		return nil, err
	}

	u.meta = meta
	return u.meta, nil
}

// Data returns the serialized payload, computing it once and caching it.
func (u *Upload) Data(ctx context.Context) ([]byte, error) {
	if u.data != nil {
		return u.data, nil
	}

	data, err := u.dataFn(ctx)
	if err != nil {
		return nil, fmt.Errorf("serializing measurement %d: %w", u.RecordingID, err)
	}

	u.data = data
	return u.data, nil
}

// OnSuccess marks the backing recording as synchronized. Idempotent: repeated
// calls within one attempt sequence invoke the callback only once.
func (u *Upload) OnSuccess(ctx context.Context) error {
	if u.succeeded {
		return nil
	}
	if err := u.successFn(ctx); err != nil {
		return fmt.Errorf("marking measurement %d synchronized: %w", u.RecordingID, err)
	}
	u.succeeded = true
	return nil
}
