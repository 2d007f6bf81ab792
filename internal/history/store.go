// Package history persists finished jobs in DuckDB and aggregates them per style.
package history

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"regexp"

	"github.com/charmbracelet/log"
	"github.com/marcboeker/go-duckdb"

	"github.com/style-studio/backend/internal/logging"
	"github.com/style-studio/backend/internal/models"
)

// Options tunes the DuckDB connection.
type Options struct {
	Threads     int
	MemoryLimit string
}

var memoryLimitPattern = regexp.MustCompile(`(?i)^\d+(\.\d+)?\s*(b|kb|mb|gb|tb|kib|mib|gib|tib)$`)

// Store is a DuckDB-backed job history.
type Store struct {
	db   *sql.DB
	path string
	log  *log.Logger
}

// Open opens or creates the history database at path. An empty path keeps it in memory.
func Open(path string, opts Options) (*Store, error) {
	logger := logging.WithPrefix("history")

	pragmas := []string{"PRAGMA enable_progress_bar=false"}
	if opts.Threads > 0 {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA threads=%d", opts.Threads))
	}
	if opts.MemoryLimit != "" {
		if !memoryLimitPattern.MatchString(opts.MemoryLimit) {
			return nil, fmt.Errorf("invalid DuckDB memory limit %q", opts.MemoryLimit)
		}
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA memory_limit='%s'", opts.MemoryLimit))
	}

	connector, err := duckdb.NewConnector(path, func(execer driver.ExecerContext) error {
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return fmt.Errorf("%s: %w", pragma, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS jobs (
			job_id      VARCHAR PRIMARY KEY,
			style       VARCHAR NOT NULL,
			kind        VARCHAR NOT NULL,
			input_size  BIGINT NOT NULL,
			output_size BIGINT NOT NULL,
			duration_ms BIGINT NOT NULL,
			status      VARCHAR NOT NULL,
			error       VARCHAR NOT NULL DEFAULT '',
			created_at  TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	logger.Info("history database ready", "path", displayPath(path))
	return &Store{db: db, path: path, log: logger}, nil
}

// Record inserts a finished job. Re-recording the same job id replaces the row.
func (s *Store) Record(ctx context.Context, rec models.HistoryRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO jobs
			(job_id, style, kind, input_size, output_size, duration_ms, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.JobID, rec.Style, string(rec.Kind), rec.InputSize, rec.OutputSize,
		rec.DurationMs, string(rec.Status), rec.Error, rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording job %s: %w", rec.JobID, err)
	}
	return nil
}

// Stats aggregates all recorded jobs per style, busiest first.
func (s *Store) Stats(ctx context.Context) ([]models.StyleStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			style,
			COUNT(*)::BIGINT,
			SUM(CASE WHEN status = 'error' THEN 1 ELSE 0 END)::BIGINT,
			SUM(CASE WHEN kind = 'video' THEN 1 ELSE 0 END)::BIGINT,
			AVG(duration_ms)::DOUBLE,
			SUM(input_size)::BIGINT,
			SUM(output_size)::BIGINT
		FROM jobs
		GROUP BY style
		ORDER BY 2 DESC, style`)
	if err != nil {
		return nil, fmt.Errorf("querying stats: %w", err)
	}
	defer rows.Close()

	var stats []models.StyleStats
	for rows.Next() {
		var st models.StyleStats
		if err := rows.Scan(&st.Style, &st.Total, &st.Failed, &st.Videos,
			&st.AvgDurationMs, &st.BytesIn, &st.BytesOut); err != nil {
			return nil, fmt.Errorf("scanning stats: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// Recent returns the n most recent jobs, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]models.HistoryRecord, error) {
	if n <= 0 {
		n = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT job_id, style, kind, input_size, output_size, duration_ms, status, error, created_at
		FROM jobs
		ORDER BY created_at DESC
		LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("querying recent jobs: %w", err)
	}
	defer rows.Close()

	var out []models.HistoryRecord
	for rows.Next() {
		var rec models.HistoryRecord
		var kind, status string
		if err := rows.Scan(&rec.JobID, &rec.Style, &kind, &rec.InputSize, &rec.OutputSize,
			&rec.DurationMs, &status, &rec.Error, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning job: %w", err)
		}
		rec.Kind = models.MediaKind(kind)
		rec.Status = models.JobStatus(status)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RecordJob is a finish listener that persists the job and logs failures.
func (s *Store) RecordJob(job models.Job) {
	if err := s.Record(context.Background(), models.NewHistoryRecord(&job)); err != nil {
		s.log.Error("failed to record job", "job", job.ID, "err", err)
	}
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func displayPath(path string) string {
	if path == "" {
		return ":memory:"
	}
	return path
}
