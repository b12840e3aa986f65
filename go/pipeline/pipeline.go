// Package pipeline holds the wire contracts shared by the extractor,
// the trigger, and downstream stage workers.
package pipeline

import (
	"fmt"
	"time"
)

// Stage lifecycle events recognized by the trigger's routing table.
const (
	EventExtractorStarted       = "extractor_started"
	EventExtractorCompleted     = "extractor_completed"
	EventCleanerCompleted       = "cleaner_completed"
	EventLoaderJSONCompleted    = "loader_json_completed"
	EventLoaderParquetCompleted = "loader_parquet_completed"
)

// Origin names used by the services of this repository.
const (
	OriginExtractor = "extractor"
)

// KnownEvent reports whether |event| appears in the routing table.
func KnownEvent(event string) bool {
	switch event {
	case EventExtractorStarted,
		EventExtractorCompleted,
		EventCleanerCompleted,
		EventLoaderJSONCompleted,
		EventLoaderParquetCompleted:
		return true
	}
	return false
}

// RunRequest starts one pipeline instance. It's posted to the trigger's /run
// and forwarded verbatim to the extractor's /extract. All numeric fields are
// JSON numbers end-to-end; string/number coercion across workers is what
// caused double-logging and mis-typed forwards in a prior incarnation of
// this pipeline.
type RunRequest struct {
	// Date is the calendar day being processed, formatted YYYY-MM-DD.
	// If empty, the extractor substitutes today.
	Date string `json:"date"`
	// MaxOffset bounds the rows fetched by this run. It is relative to the
	// checkpoint the run starts from, not an absolute offset ceiling.
	// Zero means unbounded.
	MaxOffset int `json:"max_offset"`

	// Fault-injection probabilities, each in [0,1]. These share the
	// production code path so chaos runs exercise exactly the code that
	// normal runs do.
	APIErrorProb float64 `json:"api_error_prob"`
	GCSErrorProb float64 `json:"gcs_error_prob"`
	RowDropProb  float64 `json:"row_drop_prob"`
	DelayProb    float64 `json:"delay_prob"`
}

// Validate checks the request's date and row bound.
func (r *RunRequest) Validate() error {
	if r.Date != "" {
		if _, err := time.Parse("2006-01-02", r.Date); err != nil {
			return fmt.Errorf("date %q is not of the form YYYY-MM-DD", r.Date)
		}
	}
	if r.MaxOffset < 0 {
		return fmt.Errorf("max_offset %d cannot be negative", r.MaxOffset)
	}
	return nil
}

// ClampProbabilities clamps each fault-injection probability to [0,1].
func (r *RunRequest) ClampProbabilities() {
	r.APIErrorProb = clamp01(r.APIErrorProb)
	r.GCSErrorProb = clamp01(r.GCSErrorProb)
	r.RowDropProb = clamp01(r.RowDropProb)
	r.DelayProb = clamp01(r.DelayProb)
}

func clamp01(p float64) float64 {
	if p < 0 {
		return 0
	} else if p > 1 {
		return 1
	}
	return p
}

// Event is the message any stage posts to the trigger's event ingress.
type Event struct {
	Event     string `json:"event"`
	Origin    string `json:"origin"`
	Date      string `json:"date"`
	Timestamp string `json:"timestamp,omitempty"`

	// Duration of the completed stage in seconds, when the stage measured one.
	Duration float64 `json:"duration,omitempty"`
}
