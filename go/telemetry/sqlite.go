package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // Import for registration side-effect.
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS chunk_metrics (
	offset                 INTEGER NOT NULL,
	rows_extracted         INTEGER NOT NULL,
	rows_dropped           INTEGER NOT NULL,
	chunk_duration_seconds REAL    NOT NULL,
	delay_applied          BOOLEAN NOT NULL,
	fetch_skipped          BOOLEAN NOT NULL,
	gcs_write_skipped      BOOLEAN NOT NULL,
	timestamp              TEXT    NOT NULL
);`

// SQLite is a Sink which appends rows to the chunk_metrics table of a
// local SQLite database.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed initializes) the metrics database at |path|.
func OpenSQLite(path string) (*SQLite, error) {
	var db, err = sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening metrics DB: %w", err)
	}
	if _, err = db.Exec(createTableSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing chunk_metrics table: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Insert(ctx context.Context, m ChunkMetric) error {
	var _, err = s.db.ExecContext(ctx, `
		INSERT INTO chunk_metrics (
			offset, rows_extracted, rows_dropped, chunk_duration_seconds,
			delay_applied, fetch_skipped, gcs_write_skipped, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Offset, m.RowsExtracted, m.RowsDropped, m.ChunkDurationSeconds,
		m.DelayApplied, m.FetchSkipped, m.GCSWriteSkipped,
		m.Timestamp.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting chunk metric: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error { return s.db.Close() }
