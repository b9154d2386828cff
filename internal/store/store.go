// Package store persists session summaries and polled metric samples.
//
// Storage is backed by a SQLite database at ~/.config/streamwatch/streamwatch.db
// (or the platform-equivalent path returned by os.UserConfigDir) unless a
// path is configured.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"streamwatch/internal/models"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	appDir = "streamwatch"
	dbFile = "streamwatch.db"
)

// SessionStore defines the persistence interface used by the session service.
type SessionStore interface {
	// SaveSession inserts a summary. Summaries are immutable, so saving an
	// existing ID is an error.
	SaveSession(ctx context.Context, s models.SessionSummary) error

	// GetSession returns models.ErrSessionNotFound for unknown IDs.
	GetSession(ctx context.Context, id string) (*models.SessionSummary, error)

	// ListSessions returns every summary, newest first.
	ListSessions(ctx context.Context) ([]models.SessionSummary, error)

	// MetricsRange returns samples within [from, to] (epoch millis), clamped
	// to the session's own interval, oldest first.
	MetricsRange(ctx context.Context, sessionID string, from, to int64) ([]models.HistoricalMetrics, error)
}

// SQLiteStore implements SessionStore and sample persistence.
type SQLiteStore struct {
	db *sql.DB
}

// DefaultPath returns the default database path.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("store: unable to determine config directory: %w", err)
	}
	return filepath.Join(base, appDir, dbFile), nil
}

// OpenAt creates or opens a SQLite database at the given path.
// The parent directory is created if it does not exist.
func OpenAt(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: failed to create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("store: failed to open database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS sessions (
			id                   TEXT    PRIMARY KEY,
			start_time           INTEGER NOT NULL,
			end_time             INTEGER NOT NULL,
			avg_cpu              REAL    NOT NULL DEFAULT 0,
			avg_gpu              REAL    NOT NULL DEFAULT 0,
			total_dropped_frames INTEGER NOT NULL DEFAULT 0,
			peak_bitrate         INTEGER NOT NULL DEFAULT 0,
			quality_score        REAL    NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS metric_samples (
			ts             INTEGER NOT NULL,
			cpu_percent    REAL    NOT NULL,
			memory_percent REAL    NOT NULL,
			gpu_percent    REAL,
			upload_bps     REAL    NOT NULL,
			download_bps   REAL    NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_metric_samples_ts ON metric_samples(ts);
	`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("store: migration failed: %w", err)
	}
	return nil
}

// SaveSession inserts a session summary.
func (s *SQLiteStore) SaveSession(ctx context.Context, r models.SessionSummary) error {
	if r.ID == "" {
		return errors.New("store: session ID is required")
	}
	if r.EndTime < r.StartTime {
		return fmt.Errorf("store: session %s ends before it starts", r.ID)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, start_time, end_time, avg_cpu, avg_gpu, total_dropped_frames, peak_bitrate, quality_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartTime, r.EndTime, r.AvgCPU, r.AvgGPU,
		int64(r.TotalDroppedFrames), int64(r.PeakBitrate), r.QualityScore,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("store: %w: %s", models.ErrSessionExists, r.ID)
		}
		return fmt.Errorf("store: insert session failed: %w", err)
	}
	return nil
}

func isConstraintViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}

// GetSession retrieves a single session by ID.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*models.SessionSummary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, start_time, end_time, avg_cpu, avg_gpu, total_dropped_frames, peak_bitrate, quality_score
		FROM sessions WHERE id = ?`, id)

	r, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", models.ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: query failed: %w", err)
	}
	return r, nil
}

// ListSessions returns every session, newest first.
func (s *SQLiteStore) ListSessions(ctx context.Context) ([]models.SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, start_time, end_time, avg_cpu, avg_gpu, total_dropped_frames, peak_bitrate, quality_score
		FROM sessions ORDER BY start_time DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("store: query failed: %w", err)
	}
	defer rows.Close()

	sessions := []models.SessionSummary{}
	for rows.Next() {
		r, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan failed: %w", err)
		}
		sessions = append(sessions, *r)
	}
	return sessions, rows.Err()
}

// InsertSample stores one polled sample.
func (s *SQLiteStore) InsertSample(ctx context.Context, m models.HistoricalMetrics) error {
	var gpu sql.NullFloat64
	if m.GPUPercent != nil {
		gpu = sql.NullFloat64{Float64: *m.GPUPercent, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO metric_samples (ts, cpu_percent, memory_percent, gpu_percent, upload_bps, download_bps)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.Timestamp, m.CPUPercent, m.MemoryPercent, gpu, m.UploadBytesPerSec, m.DownloadBytesPerSec,
	)
	if err != nil {
		return fmt.Errorf("store: insert sample failed: %w", err)
	}
	return nil
}

// MetricsRange returns the samples recorded during a session.
func (s *SQLiteStore) MetricsRange(ctx context.Context, sessionID string, from, to int64) ([]models.HistoricalMetrics, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	from = max(from, session.StartTime)
	to = min(to, session.EndTime)

	samples := []models.HistoricalMetrics{}
	if from > to {
		return samples, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, cpu_percent, memory_percent, gpu_percent, upload_bps, download_bps
		FROM metric_samples WHERE ts BETWEEN ? AND ? ORDER BY ts`, from, to)
	if err != nil {
		return nil, fmt.Errorf("store: query failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.HistoricalMetrics
		var gpu sql.NullFloat64
		if err := rows.Scan(&m.Timestamp, &m.CPUPercent, &m.MemoryPercent, &gpu, &m.UploadBytesPerSec, &m.DownloadBytesPerSec); err != nil {
			return nil, fmt.Errorf("store: scan failed: %w", err)
		}
		if gpu.Valid {
			v := gpu.Float64
			m.GPUPercent = &v
		}
		samples = append(samples, m)
	}
	return samples, rows.Err()
}

// DeleteSamplesOlderThan removes samples stamped before cutoff.
// Returns the number of rows removed.
func (s *SQLiteStore) DeleteSamplesOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM metric_samples WHERE ts < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("store: delete failed: %w", err)
	}
	return result.RowsAffected()
}

// Close releases database resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.SessionSummary, error) {
	var r models.SessionSummary
	var dropped, bitrate int64
	err := row.Scan(&r.ID, &r.StartTime, &r.EndTime, &r.AvgCPU, &r.AvgGPU, &dropped, &bitrate, &r.QualityScore)
	if err != nil {
		return nil, err
	}
	r.TotalDroppedFrames = uint64(dropped)
	r.PeakBitrate = uint64(bitrate)
	return &r, nil
}
