// Package uplink is a client library for transferring finished trip
// recordings ("measurements") to a collector service via a resumable,
// three-phase upload protocol. Interrupted uploads are tracked in a local
// SQLite session registry and resumed on the next attempt instead of
// restarting from scratch.
package uplink

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"github.com/roadlog/uplink/internal/config"
	"github.com/roadlog/uplink/internal/filex"
	"github.com/roadlog/uplink/internal/logging"
	"github.com/roadlog/uplink/internal/migrations"
	"github.com/roadlog/uplink/internal/models"
	"github.com/roadlog/uplink/internal/repositories/recordings"
	"github.com/roadlog/uplink/internal/repositories/sessions"
	"github.com/roadlog/uplink/internal/requests"
	"github.com/roadlog/uplink/internal/services"

	_ "modernc.org/sqlite"
)

// Location is one captured geo coordinate of a measurement.
type Location struct {
	Latitude  float64
	Longitude float64
	Speed     float64
	Accuracy  float64
	Time      time.Time
}

// Measurement is one finished recording eligible for upload.
type Measurement struct {
	ID          int64
	DeviceID    string
	Modality    string
	TrackLength float64
	Locations   []Location
	Created     time.Time
}

// Options configures a Client. Zero values fall back to the defaults of the
// config package.
type Options struct {
	CollectorURL      string
	Username          string
	Password          string
	DatabasePath      string
	RequestTimeout    time.Duration
	UploadConcurrency int

	// DeviceType, OSVersion and AppVersion describe the capturing device;
	// they accompany every measurement as metadata.
	DeviceType string
	OSVersion  string
	AppVersion string

	// Logger receives structured progress and error logs. Defaults to an
	// slog text logger on stderr.
	Logger *slog.Logger

	// AuthToken, when set, bypasses the collector login and uses the fixed
	// bearer token instead of the username/password flow.
	AuthToken string
}

// Client wires the upload process, its session registry and the local
// recordings store together.
type Client struct {
	db       *sql.DB
	repo     recordings.Repository
	factory  models.UploadFactory
	auth     services.Authenticator
	uploader *services.Uploader
	sync     *services.SyncService
}

// RunMigrations applies the embedded schema migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// New opens (and migrates) the local database and constructs a ready-to-use
// Client.
func New(ctx context.Context, opts Options) (*Client, error) {
	defaults := &config.Config{}
	defaults.LoadDefaults()
	if opts.CollectorURL == "" {
		opts.CollectorURL = defaults.CollectorURL
	}
	if opts.DatabasePath == "" {
		opts.DatabasePath = defaults.DatabasePath
	}
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = defaults.RequestTimeout
	}
	if opts.UploadConcurrency == 0 {
		opts.UploadConcurrency = defaults.UploadConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	if err := filex.EnsureParentDir(opts.DatabasePath); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", opts.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	log := logging.NewSlogLogger(opts.Logger)
	httpClient := &http.Client{Timeout: opts.RequestTimeout}

	repo := recordings.NewSQLiteRepository(db)
	factory := services.NewUploadFactory(repo, services.DeviceInfo{
		DeviceType: opts.DeviceType,
		OSVersion:  opts.OSVersion,
		AppVersion: opts.AppVersion,
	})
	registry := sessions.NewSQLiteRegistry(db, factory)
	transport := requests.NewTransport(httpClient, opts.CollectorURL)
	uploader := services.NewUploader(transport, registry, log)

	var auth services.Authenticator
	if opts.AuthToken != "" {
		auth = services.StaticToken(opts.AuthToken)
	} else {
		auth = services.NewJWTAuthenticator(httpClient, opts.CollectorURL, opts.Username, opts.Password)
	}

	return &Client{
		db:       db,
		repo:     repo,
		factory:  factory,
		auth:     auth,
		uploader: uploader,
		sync:     services.NewSyncService(uploader, auth, repo, factory, log, opts.UploadConcurrency),
	}, nil
}

// SaveMeasurement stores a finished recording locally, making it eligible
// for upload. A measurement without a device identifier gets a random one
// assigned.
func (c *Client) SaveMeasurement(ctx context.Context, m Measurement) error {
	if m.DeviceID == "" {
		m.DeviceID = uuid.NewString()
	}

	locations := make([]models.GeoLocation, len(m.Locations))
	for i, loc := range m.Locations {
		locations[i] = models.GeoLocation{
			Latitude:  loc.Latitude,
			Longitude: loc.Longitude,
			Speed:     loc.Speed,
			Accuracy:  loc.Accuracy,
			Time:      loc.Time,
		}
	}

	rec := &models.Recording{
		ID:          m.ID,
		DeviceID:    m.DeviceID,
		Modality:    m.Modality,
		TrackLength: m.TrackLength,
		Created:     m.Created,
	}
	if len(locations) > 0 {
		rec.Start = &locations[0]
		rec.End = &locations[len(locations)-1]
	}

	return c.repo.Insert(ctx, rec, locations)
}

// PendingMeasurements lists the identifiers of recordings not yet
// synchronized with the collector.
func (c *Client) PendingMeasurements(ctx context.Context) ([]int64, error) {
	pending, err := c.repo.FindUnsynchronized(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(pending))
	for i, rec := range pending {
		ids[i] = rec.ID
	}
	return ids, nil
}

// Upload transfers a single measurement, resuming an interrupted session
// when one exists.
func (c *Client) Upload(ctx context.Context, measurementID int64) error {
	token, err := c.auth.Token(ctx)
	if err != nil {
		return err
	}
	upload, err := c.factory(ctx, measurementID)
	if err != nil {
		return err
	}
	_, err = c.uploader.Upload(ctx, token, upload)
	return err
}

// SyncAll uploads every pending measurement and returns how many succeeded.
func (c *Client) SyncAll(ctx context.Context) (int, error) {
	return c.sync.SyncAll(ctx)
}

// Close releases the underlying database handle.
func (c *Client) Close() error {
	return c.db.Close()
}
