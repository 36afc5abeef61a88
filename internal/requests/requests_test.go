package requests

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/roadlog/uplink/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPayload = []byte("compressed trip data")

func testUpload(t *testing.T) *models.Upload {
	t.Helper()

	start := models.GeoLocation{Latitude: 51.05, Longitude: 13.72, Time: time.UnixMilli(1756540800000)}
	end := models.GeoLocation{Latitude: 51.06, Longitude: 13.73, Time: time.UnixMilli(1756540860000)}

	return models.NewUpload(42,
		func(ctx context.Context) (*models.MetaData, error) {
			return &models.MetaData{
				DeviceID:      "device-1",
				MeasurementID: 42,
				DeviceType:    "Pixel 8",
				OSVersion:     "Android 15",
				AppVersion:    "3.2.1",
				FormatVersion: models.FormatVersion,
				LocationCount: 2,
				TrackLength:   1409.5,
				Modality:      "BICYCLE",
				Start:         &start,
				End:           &end,
			}, nil
		},
		func(ctx context.Context) ([]byte, error) { return testPayload, nil },
		func(ctx context.Context) error { return nil },
	)
}

func newTransport(srv *httptest.Server) *Transport {
	return NewTransport(srv.Client(), srv.URL)
}

func TestPreRequest_SessionCreated(t *testing.T) {
	ctx := context.Background()

	var seen *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Clone(context.Background())
		w.Header().Set("Location", "https://collector.example.org/measurements/(abc)/")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	result, err := newTransport(srv).PreRequest(ctx, "token-1", testUpload(t))
	require.NoError(t, err)
	assert.Equal(t, PreOutcomeSessionCreated, result.Outcome)
	assert.Equal(t, "https://collector.example.org/measurements/(abc)/", result.Location)

	require.NotNil(t, seen)
	assert.Equal(t, http.MethodPost, seen.Method)
	assert.Equal(t, "/measurements", seen.URL.Path)
	assert.Equal(t, "Bearer token-1", seen.Header.Get("Authorization"))
	assert.Equal(t, "device-1", seen.Header.Get("deviceId"))
	assert.Equal(t, "42", seen.Header.Get("measurementId"))
	assert.Equal(t, "2", seen.Header.Get("locationCount"))
	assert.Equal(t, "2", seen.Header.Get("formatVersion"))
	assert.Equal(t, "BICYCLE", seen.Header.Get("modality"))
	assert.Equal(t, "1409.5", seen.Header.Get("length"))
	assert.Equal(t, "51.05", seen.Header.Get("startLocLat"))
	assert.Equal(t, "1756540800000", seen.Header.Get("startLocTS"))
	assert.Equal(t, "13.73", seen.Header.Get("endLocLon"))
}

func TestPreRequest_MissingLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := newTransport(srv).PreRequest(context.Background(), "token-1", testUpload(t))
	assert.ErrorIs(t, err, ErrMissingLocation)
}

func TestPreRequest_AlreadyExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	result, err := newTransport(srv).PreRequest(context.Background(), "token-1", testUpload(t))
	require.NoError(t, err)
	assert.Equal(t, PreOutcomeAlreadyExists, result.Outcome)
	assert.Empty(t, result.Location)
}

func TestPreRequest_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTransport(srv).PreRequest(context.Background(), "token-1", testUpload(t))
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestPreRequest_UnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTransport(srv).PreRequest(context.Background(), "token-1", testUpload(t))

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
}

func TestPreRequest_DataErrorBeforeNetwork(t *testing.T) {
	hit := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
	}))
	defer srv.Close()

	up := models.NewUpload(42, func(ctx context.Context) (*models.MetaData, error) {
		return &models.MetaData{DeviceID: "device-1", DeviceType: "Pixel 8", OSVersion: "Android 15", AppVersion: "3.2.1"}, nil
	}, nil, nil)

	_, err := newTransport(srv).PreRequest(context.Background(), "token-1", up)
	assert.ErrorIs(t, err, models.ErrMissingModality)
	assert.False(t, hit)
}

func TestStatusRequest_OutcomeMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		want    StatusOutcome
		wantErr bool
	}{
		{"finished", http.StatusOK, StatusOutcomeFinished, false},
		{"resume", http.StatusPermanentRedirect, StatusOutcomeResume, false},
		{"aborted", http.StatusNotFound, StatusOutcomeAborted, false},
		{"other", http.StatusBadRequest, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *http.Request
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = r.Clone(context.Background())
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			outcome, err := newTransport(srv).StatusRequest(context.Background(), "token-1", srv.URL+"/measurements/(abc)/", testUpload(t))
			if tt.wantErr {
				var statusErr *StatusError
				require.ErrorAs(t, err, &statusErr)
				assert.Equal(t, tt.status, statusErr.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, outcome)

			require.NotNil(t, seen)
			assert.Equal(t, http.MethodPut, seen.Method)
			assert.Equal(t, "bytes */20", seen.Header.Get("Content-Range"))
			assert.Equal(t, int64(0), seen.ContentLength)
		})
	}
}

func TestStatusRequest_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTransport(srv).StatusRequest(context.Background(), "token-1", srv.URL, testUpload(t))
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestUploadRequest_Created(t *testing.T) {
	var seen *http.Request
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Clone(context.Background())
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	err := newTransport(srv).UploadRequest(context.Background(), "token-1", srv.URL+"/measurements/(abc)/", testUpload(t))
	require.NoError(t, err)

	require.NotNil(t, seen)
	assert.Equal(t, http.MethodPut, seen.Method)
	assert.Equal(t, "application/octet-stream", seen.Header.Get("Content-Type"))
	assert.Equal(t, "bytes 0-19/20", seen.Header.Get("Content-Range"))
	assert.Equal(t, "device-1", seen.Header.Get("deviceId"))
	assert.Equal(t, testPayload, body)
}

func TestUploadRequest_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newTransport(srv).UploadRequest(context.Background(), "token-1", srv.URL, testUpload(t))

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
}

func TestUploadRequest_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	transport := newTransport(srv)
	srv.Close()

	err := transport.UploadRequest(context.Background(), "token-1", srv.URL, testUpload(t))
	require.Error(t, err)

	var statusErr *StatusError
	assert.False(t, errors.As(err, &statusErr))
}
