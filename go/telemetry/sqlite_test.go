package telemetry

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSQLiteSinkInsert(t *testing.T) {
	var path = filepath.Join(t.TempDir(), "metrics.db")

	var sink, err = OpenSQLite(path)
	require.NoError(t, err)
	defer sink.Close()

	var ctx = context.Background()
	var now = time.Date(2025, 3, 30, 12, 0, 0, 0, time.UTC)

	require.NoError(t, sink.Insert(ctx, ChunkMetric{
		Offset:               0,
		RowsExtracted:        1000,
		ChunkDurationSeconds: 0.25,
		Timestamp:            now,
	}))
	require.NoError(t, sink.Insert(ctx, ChunkMetric{
		Offset:       1000,
		FetchSkipped: true,
		Timestamp:    now,
	}))

	var rows, qErr = sink.db.Query(
		`SELECT offset, rows_extracted, fetch_skipped FROM chunk_metrics ORDER BY offset`)
	require.NoError(t, qErr)
	defer rows.Close()

	type row struct {
		offset, extracted int
		fetchSkipped      bool
	}
	var got []row
	for rows.Next() {
		var r row
		require.NoError(t, rows.Scan(&r.offset, &r.extracted, &r.fetchSkipped))
		got = append(got, r)
	}
	require.NoError(t, rows.Err())

	require.Equal(t, []row{
		{offset: 0, extracted: 1000},
		{offset: 1000, extracted: 0, fetchSkipped: true},
	}, got)
}

func TestSQLiteSinkReopen(t *testing.T) {
	var path = filepath.Join(t.TempDir(), "metrics.db")

	var sink, err = OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, sink.Insert(context.Background(), ChunkMetric{Offset: 0, Timestamp: time.Now()}))
	require.NoError(t, sink.Close())

	// Reopening appends to the existing table rather than failing.
	sink, err = OpenSQLite(path)
	require.NoError(t, err)
	defer sink.Close()
	require.NoError(t, sink.Insert(context.Background(), ChunkMetric{Offset: 1000, Timestamp: time.Now()}))

	var n int
	require.NoError(t, sink.db.QueryRow(`SELECT COUNT(*) FROM chunk_metrics`).Scan(&n))
	require.Equal(t, 2, n)
}
