package extract

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels of chunksTotal.
const (
	outcomeOK           = "ok"
	outcomeFetchSkipped = "fetch_skipped"
	outcomeWriteSkipped = "write_skipped"
	outcomeError        = "error"
)

var chunksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "extractor_chunks_total",
	Help: "Attempted extraction chunks, by outcome.",
}, []string{"outcome"})

var rowsExtractedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "extractor_rows_extracted_total",
	Help: "Rows written durably to raw chunks.",
})

var rowsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "extractor_rows_dropped_total",
	Help: "Rows dropped by the row-drop fault gate.",
})

var feedRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "extractor_feed_retries_total",
	Help: "Feed fetch attempts which failed and were retried.",
})
