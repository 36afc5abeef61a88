package recordings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roadlog/uplink/internal/dbx"
	"github.com/roadlog/uplink/internal/models"
)

// SQLiteRepository implements Repository on the local SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, rec *models.Recording, locations []models.GeoLocation) error {
	return dbx.WithTx(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		var startLat, startLon, endLat, endLon sql.NullFloat64
		var startTime, endTime sql.NullInt64
		if rec.Start != nil {
			startLat = sql.NullFloat64{Float64: rec.Start.Latitude, Valid: true}
			startLon = sql.NullFloat64{Float64: rec.Start.Longitude, Valid: true}
			startTime = sql.NullInt64{Int64: rec.Start.Time.UnixMilli(), Valid: true}
		}
		if rec.End != nil {
			endLat = sql.NullFloat64{Float64: rec.End.Latitude, Valid: true}
			endLon = sql.NullFloat64{Float64: rec.End.Longitude, Valid: true}
			endTime = sql.NullInt64{Int64: rec.End.Time.UnixMilli(), Valid: true}
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO recordings (id, device_id, modality, track_length, location_count,
			   start_lat, start_lon, start_time, end_lat, end_lon, end_time, synchronized, created)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
			rec.ID, rec.DeviceID, rec.Modality, rec.TrackLength, int64(len(locations)),
			startLat, startLon, startTime, endLat, endLon, endTime, rec.Created.UnixMilli())
		if err != nil {
			return fmt.Errorf("failed to insert recording: %w", err)
		}

		for _, loc := range locations {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO locations (recording_id, lat, lon, speed, accuracy, time)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				rec.ID, loc.Latitude, loc.Longitude, loc.Speed, loc.Accuracy, loc.Time.UnixMilli())
			if err != nil {
				return fmt.Errorf("failed to insert location: %w", err)
			}
		}
		return nil
	})
}

func scanRecording(row interface{ Scan(dest ...any) error }) (*models.Recording, error) {
	var (
		rec                models.Recording
		startLat, startLon sql.NullFloat64
		endLat, endLon     sql.NullFloat64
		startTime, endTime sql.NullInt64
		synchronized       int
		created            int64
	)
	err := row.Scan(&rec.ID, &rec.DeviceID, &rec.Modality, &rec.TrackLength, &rec.LocationCount,
		&startLat, &startLon, &startTime, &endLat, &endLon, &endTime, &synchronized, &created)
	if err != nil {
		return nil, err
	}

	if startLat.Valid {
		rec.Start = &models.GeoLocation{
			Latitude:  startLat.Float64,
			Longitude: startLon.Float64,
			Time:      time.UnixMilli(startTime.Int64),
		}
	}
	if endLat.Valid {
		rec.End = &models.GeoLocation{
			Latitude:  endLat.Float64,
			Longitude: endLon.Float64,
			Time:      time.UnixMilli(endTime.Int64),
		}
	}
	rec.Synchronized = synchronized != 0
	rec.Created = time.UnixMilli(created)
	return &rec, nil
}

const recordingColumns = `id, device_id, modality, track_length, location_count,
	start_lat, start_lon, start_time, end_lat, end_lon, end_time, synchronized, created`

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.Recording, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recordingColumns+` FROM recordings WHERE id=?`, id)

	rec, err := scanRecording(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("recording %d: %w", id, ErrRecordingNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load recording: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) Locations(ctx context.Context, id int64) ([]models.GeoLocation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT lat, lon, speed, accuracy, time FROM locations WHERE recording_id=? ORDER BY time`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to select locations: %w", err)
	}
	defer rows.Close()

	var result []models.GeoLocation
	for rows.Next() {
		var loc models.GeoLocation
		var at int64
		if err := rows.Scan(&loc.Latitude, &loc.Longitude, &loc.Speed, &loc.Accuracy, &at); err != nil {
			return nil, err
		}
		loc.Time = time.UnixMilli(at)
		result = append(result, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) FindUnsynchronized(ctx context.Context) ([]*models.Recording, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recordingColumns+` FROM recordings WHERE synchronized=0 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to select recordings: %w", err)
	}
	defer rows.Close()

	var result []*models.Recording
	for rows.Next() {
		rec, err := scanRecording(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) MarkSynchronized(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE recordings SET synchronized=1 WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark recording synchronized: %w", err)
	}
	return nil
}
