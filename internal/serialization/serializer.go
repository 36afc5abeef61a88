// Package serialization produces the binary payload transferred to the
// collector: a fixed header followed by the recording's location trace,
// gzip-compressed. The encoding is deterministic for a given recording.
package serialization

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"

	"github.com/roadlog/uplink/internal/models"
)

// Serialize encodes a recording and its location trace into the versioned
// wire format and compresses the result.
//
// Layout (big endian, before compression):
//
//	uint16  format version
//	uint32  location count
//	per location:
//	  int64   timestamp, ms since epoch
//	  float64 latitude
//	  float64 longitude
//	  float64 speed, m/s
//	  float64 accuracy, m
func Serialize(rec *models.Recording, locations []models.GeoLocation) ([]byte, error) {
	var raw bytes.Buffer

	if err := binary.Write(&raw, binary.BigEndian, uint16(models.FormatVersion)); err != nil {
		return nil, fmt.Errorf("encoding header: %w", err)
	}
	if err := binary.Write(&raw, binary.BigEndian, uint32(len(locations))); err != nil {
		return nil, fmt.Errorf("encoding location count: %w", err)
	}

	for _, loc := range locations {
		for _, v := range []any{loc.Time.UnixMilli(), loc.Latitude, loc.Longitude, loc.Speed, loc.Accuracy} {
			if err := binary.Write(&raw, binary.BigEndian, v); err != nil {
				return nil, fmt.Errorf("encoding location of measurement %d: %w", rec.ID, err)
			}
		}
	}

	var compressed bytes.Buffer
	zw := gzip.NewWriter(&compressed)
	if _, err := zw.Write(raw.Bytes()); err != nil {
		return nil, fmt.Errorf("compressing payload: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compressing payload: %w", err)
	}

	return compressed.Bytes(), nil
}
