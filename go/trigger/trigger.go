// Package trigger implements the pipeline orchestrator: it starts runs,
// routes stage completion events to the next worker, deduplicates
// double-posts, and records per-stage durations.
package trigger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/malawley/hygiene-prediction-clean/go/pipeline"
)

// Dispositions of a routed event, returned to the posting worker.
const (
	DispositionRouted    = "event routed"
	DispositionDuplicate = "duplicate event ignored"
	DispositionUnknown   = "unknown event ignored"
)

// Router routes pipeline events. The pipeline graph is strictly a DAG:
// each recognized completion event forwards {date} to exactly one next
// worker, and the terminal event just logs.
type Router struct {
	// Workers are the stage endpoints this router forwards to.
	Workers *ServiceURLs
	// Cache deduplicates (date, event) pairs.
	Cache *CompletionCache
	// Durations records per-stage durations. May be nil.
	Durations *DurationLog
	// EnableJSONLoader routes cleaner_completed through the JSON loader
	// before the parquet loader, instead of skipping it.
	EnableJSONLoader bool
	// HTTP client for worker forwards. If nil, a client with a 10s
	// timeout is used.
	HTTP *http.Client
}

func (r *Router) httpClient() *http.Client {
	if r.HTTP != nil {
		return r.HTTP
	}
	return &http.Client{Timeout: 10 * time.Second}
}

// StartRun forwards |req| verbatim to the extractor, fault-injection
// probabilities included. A transport failure is returned to the caller;
// anything else is the extractor's business.
func (r *Router) StartRun(ctx context.Context, req pipeline.RunRequest) error {
	var body, err = json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshaling run request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		r.Workers.Extractor.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building extractor request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient().Do(httpReq)
	if err != nil {
		return fmt.Errorf("starting extractor: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	log.WithFields(log.Fields{
		"date":      req.Date,
		"maxOffset": req.MaxOffset,
		"status":    resp.Status,
	}).Info("extractor triggered")
	return nil
}

// Route handles one pipeline event and returns its disposition.
// Well-formed events always succeed from the poster's point of view;
// forwarding failures are logged and resolved by /purge plus a manual
// re-trigger, never by an automatic retry.
func (r *Router) Route(ctx context.Context, ev pipeline.Event) string {
	if !pipeline.KnownEvent(ev.Event) {
		log.WithFields(log.Fields{"event": ev.Event, "origin": ev.Origin}).
			Warn("dropping unknown event")
		return DispositionUnknown
	}

	eventsTotal.WithLabelValues(ev.Event).Inc()
	log.WithFields(log.Fields{
		"event":  ev.Event,
		"origin": ev.Origin,
		"date":   ev.Date,
	}).Info("event received")

	if r.Cache.Seen(ev.Date, ev.Event) {
		duplicatesTotal.Inc()
		log.WithFields(log.Fields{"event": ev.Event, "date": ev.Date}).
			Warn("duplicate event ignored")
		return DispositionDuplicate
	}

	if ev.Duration != 0 && r.Durations != nil {
		if err := r.Durations.Append(ev.Origin, ev.Date, ev.Event, ev.Duration); err != nil {
			log.WithField("err", err).Error("failed to record duration")
		}
	}

	switch ev.Event {
	case pipeline.EventExtractorStarted:
		// Informational; its cache entry marks the start of the run.

	case pipeline.EventExtractorCompleted:
		r.forward(ctx, r.Workers.Cleaner.URL, "cleaner", ev.Date)

	case pipeline.EventCleanerCompleted:
		if r.EnableJSONLoader {
			r.forward(ctx, r.Workers.Loader.URL, "loader-json", ev.Date)
		} else {
			r.forward(ctx, r.Workers.LoaderParquet.URL, "loader-parquet", ev.Date)
		}

	case pipeline.EventLoaderJSONCompleted:
		r.forward(ctx, r.Workers.LoaderParquet.URL, "loader-parquet", ev.Date)

	case pipeline.EventLoaderParquetCompleted:
		var fields = log.Fields{"date": ev.Date}
		if started, ok := r.Cache.FirstSeen(ev.Date, pipeline.EventExtractorStarted); ok {
			fields["totalDuration"] = time.Since(started).Seconds()
		}
		log.WithFields(fields).Info("pipeline completed")
	}

	return DispositionRouted
}

// forward posts {date} to the next worker. It's fire-and-log: the
// dedup cache entry already exists, so a failed forward is recovered by
// purging and re-posting the event.
func (r *Router) forward(ctx context.Context, url, stage, date string) {
	var body, _ = json.Marshal(map[string]string{"date": date})

	var req, err = http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		forwardsTotal.WithLabelValues(stage, "error").Inc()
		log.WithFields(log.Fields{"stage": stage, "err": err}).Error("failed to build forward")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient().Do(req)
	if err != nil {
		forwardsTotal.WithLabelValues(stage, "error").Inc()
		log.WithFields(log.Fields{"stage": stage, "url": url, "err": err}).
			Error("failed to forward to worker")
		return
	}
	defer resp.Body.Close()
	var respBody, _ = io.ReadAll(resp.Body)

	forwardsTotal.WithLabelValues(stage, "ok").Inc()
	log.WithFields(log.Fields{
		"stage":    stage,
		"date":     date,
		"status":   resp.Status,
		"response": string(respBody),
	}).Info("forwarded to worker")
}
