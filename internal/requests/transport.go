// Package requests implements the three phases of the resumable upload
// handshake against the collector: pre-request, status request and upload
// request. The components here map HTTP responses to definite outcomes and
// never retry; retry policy belongs to the upload process alone.
package requests

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/roadlog/uplink/internal/models"
)

// Transport is the shared HTTP handle used by all request components. It is
// passed explicitly through construction, never held as a hidden singleton,
// and is safe for concurrent use.
type Transport struct {
	client       *http.Client
	collectorURL string
}

// NewTransport binds the request components to an HTTP client and the
// collector base URL.
func NewTransport(client *http.Client, collectorURL string) *Transport {
	return &Transport{client: client, collectorURL: strings.TrimRight(collectorURL, "/")}
}

func (t *Transport) measurementsURL() string {
	return t.collectorURL + "/measurements"
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// setMetaDataHeaders attaches the measurement description to a request. The
// same fields accompany both the pre-request and the upload request.
func setMetaDataHeaders(req *http.Request, meta *models.MetaData) {
	h := req.Header
	h.Set("deviceId", meta.DeviceID)
	h.Set("measurementId", strconv.FormatInt(meta.MeasurementID, 10))
	h.Set("locationCount", strconv.FormatInt(meta.LocationCount, 10))
	h.Set("formatVersion", strconv.Itoa(meta.FormatVersion))
	h.Set("deviceType", meta.DeviceType)
	h.Set("osVersion", meta.OSVersion)
	h.Set("appVersion", meta.AppVersion)
	h.Set("length", formatCoordinate(meta.TrackLength))
	h.Set("modality", meta.Modality)

	if meta.Start != nil {
		h.Set("startLocLat", formatCoordinate(meta.Start.Latitude))
		h.Set("startLocLon", formatCoordinate(meta.Start.Longitude))
		h.Set("startLocTS", strconv.FormatInt(meta.Start.Time.UnixMilli(), 10))
	}
	if meta.End != nil {
		h.Set("endLocLat", formatCoordinate(meta.End.Latitude))
		h.Set("endLocLon", formatCoordinate(meta.End.Longitude))
		h.Set("endLocTS", strconv.FormatInt(meta.End.Time.UnixMilli(), 10))
	}
}

func setAuthorization(req *http.Request, token string) {
	req.Header.Set("Authorization", "Bearer "+token)
}
