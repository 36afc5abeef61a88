package requests

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/roadlog/uplink/internal/models"
)

// UploadRequest transmits the payload to an established session location as
// one full-body PUT. On 201 the caller invokes the upload's success callback
// and removes the session; any other status is handed to the upload process
// for its retry decision.
func (t *Transport) UploadRequest(ctx context.Context, token string, location string, upload *models.Upload) error {
	meta, err := upload.MetaData(ctx)
	if err != nil {
		return err
	}
	data, err := upload.Data(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, location, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("building upload request: %w", err)
	}
	setAuthorization(req, token)
	setMetaDataHeaders(req, meta)
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Content-Range", fmt.Sprintf("bytes 0-%d/%d", len(data)-1, len(data)))
	req.ContentLength = int64(len(data))

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("upload request: %w", ErrUnauthorized)
	default:
		return &StatusError{Code: resp.StatusCode}
	}
}
