// Package models defines the domain types of the upload client: recordings,
// their metadata, the transmittable Upload unit, and persisted upload
// sessions with their protocol log.
package models

import "time"

// GeoLocation is a single captured geo coordinate.
type GeoLocation struct {
	Latitude  float64
	Longitude float64
	Speed     float64
	Accuracy  float64
	Time      time.Time
}

// Recording is one finished capture (a "measurement") stored locally and
// eligible for upload until it has been synchronized.
type Recording struct {
	// ID is the device-unique measurement identifier. It is the sole key
	// used by the session registry; storage handles are never used as keys.
	ID int64

	DeviceID      string
	Modality      string
	TrackLength   float64
	LocationCount int64
	Start         *GeoLocation
	End           *GeoLocation
	Synchronized  bool
	Created       time.Time
}
