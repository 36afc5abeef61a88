package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roadlog/uplink/internal/dbx"
	"github.com/roadlog/uplink/internal/models"
)

// SQLiteRegistry implements Registry on a local SQLite database. Every write
// runs inside its own transaction so that a crash between a server response
// and the matching registry update leaves the prior, resumable state.
type SQLiteRegistry struct {
	db      *sql.DB
	factory models.UploadFactory
}

// NewSQLiteRegistry binds the registry to a database handle and the factory
// used to reconstruct Uploads from persisted sessions.
func NewSQLiteRegistry(db *sql.DB, factory models.UploadFactory) *SQLiteRegistry {
	return &SQLiteRegistry{db: db, factory: factory}
}

func sessionExists(ctx context.Context, tx dbx.DBTX, recordingID int64) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM upload_sessions WHERE recording_id=?`, recordingID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query session: %w", err)
	}
	return true, nil
}

func (r *SQLiteRegistry) Get(ctx context.Context, recordingID int64) (*models.Upload, error) {
	var location string
	err := r.db.QueryRowContext(ctx,
		`SELECT location FROM upload_sessions WHERE recording_id=?`, recordingID).Scan(&location)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	upload, err := r.factory(ctx, recordingID)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild upload for measurement %d: %w", recordingID, err)
	}
	upload.Location = location

	return upload, nil
}

func (r *SQLiteRegistry) Register(ctx context.Context, upload *models.Upload) error {
	return dbx.WithTx(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		exists, err := sessionExists(ctx, tx, upload.RecordingID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("measurement %d: %w", upload.RecordingID, ErrSessionAlreadyRegistered)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO upload_sessions (recording_id, location, time) VALUES (?, ?, ?)`,
			upload.RecordingID, upload.Location, time.Now().UnixMilli())
		if err != nil {
			return fmt.Errorf("failed to register session: %w", err)
		}
		return nil
	})
}

func (r *SQLiteRegistry) Record(ctx context.Context, upload *models.Upload, kind models.RequestKind, httpStatus int, message string, at time.Time) error {
	return r.appendTask(ctx, upload.RecordingID, models.UploadTask{
		Kind: kind, HTTPStatus: httpStatus, Message: message, Time: at,
	})
}

func (r *SQLiteRegistry) RecordError(ctx context.Context, upload *models.Upload, kind models.RequestKind, httpStatus int, cause error) error {
	return r.appendTask(ctx, upload.RecordingID, models.UploadTask{
		Kind: kind, HTTPStatus: httpStatus, Message: cause.Error(), CausedError: true, Time: time.Now(),
	})
}

func (r *SQLiteRegistry) appendTask(ctx context.Context, recordingID int64, task models.UploadTask) error {
	return dbx.WithTx(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		exists, err := sessionExists(ctx, tx, recordingID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("measurement %d: %w", recordingID, ErrSessionNotRegistered)
		}

		causedError := 0
		if task.CausedError {
			causedError = 1
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO upload_tasks (recording_id, kind, http_status, message, caused_error, time)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			recordingID, int(task.Kind), task.HTTPStatus, task.Message, causedError, task.Time.UnixMilli())
		if err != nil {
			return fmt.Errorf("failed to append protocol entry: %w", err)
		}
		return nil
	})
}

func (r *SQLiteRegistry) Remove(ctx context.Context, upload *models.Upload) error {
	return dbx.WithTx(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM upload_tasks WHERE recording_id=?`, upload.RecordingID); err != nil {
			return fmt.Errorf("failed to delete protocol log: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			`DELETE FROM upload_sessions WHERE recording_id=?`, upload.RecordingID)
		if err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		ra, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if ra == 0 {
			return fmt.Errorf("measurement %d: %w", upload.RecordingID, ErrSessionNotRegistered)
		}
		return nil
	})
}

func (r *SQLiteRegistry) Protocol(ctx context.Context, recordingID int64) ([]models.UploadTask, error) {
	exists, err := sessionExists(ctx, r.db, recordingID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("measurement %d: %w", recordingID, ErrSessionNotRegistered)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT kind, http_status, message, caused_error, time FROM upload_tasks
		 WHERE recording_id=? ORDER BY id`, recordingID)
	if err != nil {
		return nil, fmt.Errorf("failed to select protocol log: %w", err)
	}
	defer rows.Close()

	var tasks []models.UploadTask
	for rows.Next() {
		var (
			kind        int
			causedError int
			at          int64
			task        models.UploadTask
		)
		if err := rows.Scan(&kind, &task.HTTPStatus, &task.Message, &causedError, &at); err != nil {
			return nil, err
		}
		task.Kind = models.RequestKind(kind)
		task.CausedError = causedError != 0
		task.Time = time.UnixMilli(at)
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}
