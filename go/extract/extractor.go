// Package extract implements the resumable, chunked extractor which
// pulls paginated records from the upstream feed, lands NDJSON chunks
// and a date manifest in the object store, and emits per-chunk telemetry.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/malawley/hygiene-prediction-clean/go/manifest"
	"github.com/malawley/hygiene-prediction-clean/go/pipeline"
	"github.com/malawley/hygiene-prediction-clean/go/store"
	"github.com/malawley/hygiene-prediction-clean/go/telemetry"
)

const (
	// DefaultChunkSize is the number of records fetched per (limit, offset) page.
	DefaultChunkSize = 1000
	// RawPrefix is the object-store prefix under which raw chunks land.
	RawPrefix = "raw-data"
	// delayDuration is the sleep applied when the delay gate fires.
	delayDuration = 2 * time.Second
)

// Extractor drives chunked extraction runs. Runs for distinct dates may
// be started concurrently, but they share the single (un-dated) resume
// checkpoint: two concurrent runs of the same date are undefined.
type Extractor struct {
	// Store holds raw chunks, the date manifest, and the checkpoint.
	Store store.Store
	// Feed is the upstream paginated feed.
	Feed *FeedClient
	// Sink receives one ChunkMetric per attempted chunk.
	Sink telemetry.Sink
	// Events posts lifecycle events to the trigger.
	Events *pipeline.EventClient
	// ChunkSize overrides DefaultChunkSize. Used by tests.
	ChunkSize int
	// Rand draws fault-gate samples in [0,1). Defaults to math/rand.
	// Tests inject a deterministic sequence.
	Rand func() float64
	// Sleep implements the delay gate. Defaults to time.Sleep.
	Sleep func(time.Duration)

	shutdown     atomic.Bool
	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

// NewExtractor returns an Extractor over the given collaborators.
func NewExtractor(s store.Store, feed *FeedClient, sink telemetry.Sink, events *pipeline.EventClient) *Extractor {
	return &Extractor{
		Store:      s,
		Feed:       feed,
		Sink:       sink,
		Events:     events,
		shutdownCh: make(chan struct{}),
	}
}

// RequestShutdown sets the cooperative shutdown flag. Active runs exit
// after their current chunk; ShutdownRequested is then closed.
func (e *Extractor) RequestShutdown() {
	e.shutdown.Store(true)
	e.shutdownOnce.Do(func() {
		if e.shutdownCh != nil {
			close(e.shutdownCh)
		}
	})
}

// ShutdownRequested is closed once a shutdown has been requested.
func (e *Extractor) ShutdownRequested() <-chan struct{} { return e.shutdownCh }

func (e *Extractor) chunkSize() int {
	if e.ChunkSize > 0 {
		return e.ChunkSize
	}
	return DefaultChunkSize
}

func (e *Extractor) rand() float64 {
	if e.Rand != nil {
		return e.Rand()
	}
	return rand.Float64()
}

func (e *Extractor) sleep(d time.Duration) {
	if e.Sleep != nil {
		e.Sleep(d)
	} else {
		time.Sleep(d)
	}
}

// Extract runs one chunked extraction for |req|. It resumes from the
// durable checkpoint, and terminates on feed exhaustion, the max_offset
// bound, a requested shutdown, or a hard failure. The date manifest is
// written only on normal termination: after a failure its absence tells
// downstream stages the date is not done, and the checkpoint makes the
// next run retry from the last durable chunk.
func (e *Extractor) Extract(ctx context.Context, req pipeline.RunRequest) error {
	req.ClampProbabilities()
	if req.Date == "" {
		req.Date = time.Now().Format("2006-01-02")
	}

	if err := e.Events.Post(ctx, pipeline.Event{
		Event:     pipeline.EventExtractorStarted,
		Origin:    pipeline.OriginExtractor,
		Date:      req.Date,
		Timestamp: time.Now().Format(time.RFC3339),
	}); err != nil {
		log.WithField("err", err).Warn("failed to notify trigger of extractor start")
	}

	var started = time.Now()
	var offset0 = manifest.LoadCheckpoint(ctx, e.Store)
	var offset = offset0
	var files []string
	var runErr error

	log.WithFields(log.Fields{
		"date":      req.Date,
		"offset":    offset0,
		"maxOffset": req.MaxOffset,
	}).Info("extraction run started")

	// reachedBound is checked each time the iteration offset advances.
	// max_offset bounds the rows of this run, relative to where it resumed.
	var reachedBound = func() bool {
		if req.MaxOffset > 0 && offset >= offset0+req.MaxOffset {
			log.WithFields(log.Fields{"date": req.Date, "offset": offset}).
				Info("reached max_offset; stopping early")
			return true
		}
		return false
	}

	for {
		if e.shutdown.Load() {
			log.WithField("date", req.Date).Info("shutdown requested; stopping run")
			break
		}

		var chunkStart = time.Now()
		var metric = telemetry.ChunkMetric{Offset: offset}

		// Fault gate: simulated API failure. The iteration offset advances
		// but the checkpoint does not, so a later run retries this offset.
		if e.rand() < req.APIErrorProb {
			metric.FetchSkipped = true
			e.emit(ctx, metric, chunkStart, outcomeFetchSkipped)

			offset += e.chunkSize()
			if reachedBound() {
				break
			}
			continue
		}

		records, err := e.Feed.FetchPage(ctx, e.chunkSize(), offset)
		if err != nil {
			log.WithFields(log.Fields{"offset": offset, "err": err}).Error("feed fetch failed; breaking run")
			e.emit(ctx, metric, chunkStart, outcomeError)
			runErr = err
			break
		}
		if len(records) == 0 {
			log.WithField("date", req.Date).Info("feed exhausted; no more data to fetch")
			break
		}

		kept, dropped := e.dropRows(records, req.RowDropProb)
		metric.RowsDropped = dropped

		// Fault gate: simulated storage failure. Nothing durable happens,
		// so rows_extracted stays zero and the checkpoint holds.
		if e.rand() < req.GCSErrorProb {
			metric.GCSWriteSkipped = true
			e.emit(ctx, metric, chunkStart, outcomeWriteSkipped)

			offset += e.chunkSize()
			if reachedBound() {
				break
			}
			continue
		}

		if e.rand() < req.DelayProb {
			e.sleep(delayDuration)
			metric.DelayApplied = true
		}

		var name = fmt.Sprintf("offset_%d.json", offset)
		if err = e.Store.Put(ctx, chunkPath(req.Date, offset), encodeNDJSON(kept)); err != nil {
			log.WithFields(log.Fields{"offset": offset, "err": err}).Error("chunk write failed; breaking run")
			e.emit(ctx, metric, chunkStart, outcomeError)
			runErr = fmt.Errorf("writing chunk at offset %d: %w", offset, err)
			break
		}

		metric.RowsExtracted = len(kept)
		files = append(files, name)
		e.emit(ctx, metric, chunkStart, outcomeOK)

		// Only durable success moves the checkpoint forward.
		offset += e.chunkSize()
		if err = manifest.WriteCheckpoint(ctx, e.Store, offset); err != nil {
			log.WithFields(log.Fields{"offset": offset, "err": err}).Warn("failed to write checkpoint")
		}
		if reachedBound() {
			break
		}
	}

	if runErr != nil {
		return runErr
	}

	if err := manifest.Write(ctx, e.Store, RawPrefix, req.Date, files); err != nil {
		return fmt.Errorf("writing manifest for %s: %w", req.Date, err)
	}
	log.WithFields(log.Fields{"date": req.Date, "files": len(files)}).Info("manifest written")

	var duration = time.Since(started).Seconds()
	if err := e.Events.Post(ctx, pipeline.Event{
		Event:    pipeline.EventExtractorCompleted,
		Origin:   pipeline.OriginExtractor,
		Date:     req.Date,
		Duration: duration,
	}); err != nil {
		// The manifest is already durable; it remains the authoritative
		// completion signal and downstream can be re-kicked externally.
		log.WithField("err", err).Warn("failed to notify trigger of completion")
	}

	log.WithFields(log.Fields{"date": req.Date, "duration": duration}).Info("extraction run completed")
	return nil
}

// dropRows retains each record with probability 1 - prob.
func (e *Extractor) dropRows(records []json.RawMessage, prob float64) (kept []json.RawMessage, dropped int) {
	if prob <= 0 {
		return records, 0
	}
	for _, record := range records {
		if e.rand() < prob {
			dropped++
		} else {
			kept = append(kept, record)
		}
	}
	return kept, dropped
}

// emit finalizes and records |metric|, logging (never failing) on sink errors.
func (e *Extractor) emit(ctx context.Context, m telemetry.ChunkMetric, chunkStart time.Time, outcome string) {
	m.ChunkDurationSeconds = time.Since(chunkStart).Seconds()
	m.Timestamp = time.Now().UTC()

	if err := e.Sink.Insert(ctx, m); err != nil {
		log.WithFields(log.Fields{"offset": m.Offset, "err": err}).Warn("failed to insert chunk metric")
	}

	chunksTotal.WithLabelValues(outcome).Inc()
	rowsExtractedTotal.Add(float64(m.RowsExtracted))
	rowsDroppedTotal.Add(float64(m.RowsDropped))
}

func chunkPath(date string, offset int) string {
	return fmt.Sprintf("%s/%s/offset_%d.json", RawPrefix, date, offset)
}

func encodeNDJSON(records []json.RawMessage) []byte {
	var buf bytes.Buffer
	for _, record := range records {
		buf.Write(bytes.TrimSpace(record))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
