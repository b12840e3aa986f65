// Package telemetry records per-chunk extraction metrics into an
// append-only table. One ChunkMetric row exists for every attempted
// chunk, including chunks skipped by an injected fault — the skip flags
// distinguish real work from simulated failures.
package telemetry

import (
	"context"
	"time"
)

// ChunkMetric is one row of the chunk_metrics table.
type ChunkMetric struct {
	Offset               int       `json:"offset"`
	RowsExtracted        int       `json:"rows_extracted"`
	RowsDropped          int       `json:"rows_dropped"`
	ChunkDurationSeconds float64   `json:"chunk_duration_seconds"`
	DelayApplied         bool      `json:"delay_applied"`
	FetchSkipped         bool      `json:"fetch_skipped"`
	GCSWriteSkipped      bool      `json:"gcs_write_skipped"`
	Timestamp            time.Time `json:"timestamp"`
}

// Sink accepts ChunkMetric rows. Insert failures are never fatal to a
// run: callers log and continue.
type Sink interface {
	Insert(ctx context.Context, m ChunkMetric) error
}

// Nop is a Sink which discards all rows.
type Nop struct{}

func (Nop) Insert(context.Context, ChunkMetric) error { return nil }
