package services

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/roadlog/uplink/internal/logging"
	"github.com/roadlog/uplink/internal/models"
	"github.com/roadlog/uplink/internal/repositories/recordings"
	"golang.org/x/sync/errgroup"
)

// SyncService uploads every unsynchronized recording. Recordings are
// processed concurrently up to a bounded limit; a failure of one recording
// never aborts the others since each owns an independent session row.
type SyncService struct {
	uploader    *Uploader
	auth        Authenticator
	recordings  recordings.Repository
	buildUpload models.UploadFactory
	log         logging.Logger
	concurrency int
}

func NewSyncService(uploader *Uploader, auth Authenticator, repo recordings.Repository, factory models.UploadFactory, log logging.Logger, concurrency int) *SyncService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &SyncService{
		uploader:    uploader,
		auth:        auth,
		recordings:  repo,
		buildUpload: factory,
		log:         log,
		concurrency: concurrency,
	}
}

// SyncAll uploads all pending recordings and reports how many succeeded.
// It returns an error when the whole run could not start or when at least
// one recording failed terminally.
func (s *SyncService) SyncAll(ctx context.Context) (int, error) {
	pending, err := s.recordings.FindUnsynchronized(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing pending recordings: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	token, err := s.auth.Token(ctx)
	if err != nil {
		return 0, fmt.Errorf("authenticating: %w", err)
	}

	var failed atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, rec := range pending {
		g.Go(func() error {
			upload, err := s.buildUpload(ctx, rec.ID)
			if err != nil {
				s.log.Error(ctx, "building upload failed", "measurement", rec.ID, "error", err)
				failed.Add(1)
				return nil
			}
			if _, err := s.uploader.Upload(ctx, token, upload); err != nil {
				s.log.Error(ctx, "upload failed", "measurement", rec.ID, "error", err)
				failed.Add(1)
			}
			return nil
		})
	}

	// Tasks never return errors, so Wait only propagates ctx cancellation.
	if err := g.Wait(); err != nil {
		return 0, err
	}

	succeeded := len(pending) - int(failed.Load())
	if n := failed.Load(); n > 0 {
		return succeeded, fmt.Errorf("%d of %d uploads failed", n, len(pending))
	}
	return succeeded, nil
}
