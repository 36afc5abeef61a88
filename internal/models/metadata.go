package models

import "errors"

// FormatVersion identifies the binary payload layout produced by the
// serialization package.
const FormatVersion = 2

// Data errors returned by MetaData.Validate. They are surfaced before any
// network call is made and are never retried.
var (
	ErrMissingAppVersion = errors.New("metadata: app version missing")
	ErrMissingModality   = errors.New("metadata: modality missing")
	ErrMissingDeviceID   = errors.New("metadata: device id missing")
	ErrMissingDeviceType = errors.New("metadata: device type missing")
	ErrMissingOSVersion  = errors.New("metadata: os version missing")
)

// MetaData describes one recording to the collector. All fields except the
// optional start/end locations are sent as request headers on the
// pre-request and the upload request.
type MetaData struct {
	DeviceID      string
	MeasurementID int64
	DeviceType    string
	OSVersion     string
	AppVersion    string
	FormatVersion int
	LocationCount int64
	TrackLength   float64
	Modality      string

	// Start and End are nil for recordings without a location fix.
	Start *GeoLocation
	End   *GeoLocation
}

// Validate reports the first missing required field as a data error.
func (m *MetaData) Validate() error {
	switch {
	case m.DeviceID == "":
		return ErrMissingDeviceID
	case m.DeviceType == "":
		return ErrMissingDeviceType
	case m.OSVersion == "":
		return ErrMissingOSVersion
	case m.AppVersion == "":
		return ErrMissingAppVersion
	case m.Modality == "":
		return ErrMissingModality
	}
	return nil
}
