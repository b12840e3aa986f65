// Package runtime assembles the pipeline services from their
// configuration: it builds their collaborators, registers their APIs,
// and queues their service loops.
package runtime

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	mbp "go.gazette.dev/core/mainboilerplate"
	"go.gazette.dev/core/server"
	"go.gazette.dev/core/task"

	"github.com/malawley/hygiene-prediction-clean/go/extract"
	"github.com/malawley/hygiene-prediction-clean/go/pipeline"
	"github.com/malawley/hygiene-prediction-clean/go/store"
	"github.com/malawley/hygiene-prediction-clean/go/telemetry"
)

// ExtractorConfig configures the extractor service.
type ExtractorConfig struct {
	Extractor struct {
		mbp.ServiceConfig
		FeedURL    string `long:"feed-url" env:"FEED_URL" default:"https://data.cityofchicago.org/resource/4ijn-s7e5.json" description:"Upstream paginated feed URL"`
		Bucket     string `long:"bucket" env:"BUCKET_NAME" description:"Object store bucket for raw chunks. Uses an in-memory store when empty"`
		Project    string `long:"project" env:"GCP_PROJECT" description:"Project owning the bucket, used if it must be created"`
		TriggerURL string `long:"trigger-url" env:"TRIGGER_URL" description:"Trigger event ingress URL"`
		MetricsDB  string `long:"metrics-db" env:"METRICS_DB" default:"chunk_metrics.db" description:"SQLite database path for chunk metrics. Disabled when empty"`
	} `group:"Extractor" namespace:"extractor"`

	Log         mbp.LogConfig         `group:"Logging" namespace:"log" env-namespace:"LOG"`
	Diagnostics mbp.DiagnosticsConfig `group:"Debug" namespace:"debug" env-namespace:"DEBUG"`
}

// ExtractorArgs are the assembled collaborators of the extractor service.
type ExtractorArgs struct {
	Config ExtractorConfig
	// Server against which extractor APIs are registered.
	Server *server.Server
	// Tasks are cancelable goroutines having the lifetime of the service.
	Tasks *task.Group
}

// StartExtractorService initializes the Extractor and wires up all API handlers.
func StartExtractorService(args ExtractorArgs) (*extract.Extractor, error) {
	var cfg = args.Config.Extractor

	var s store.Store
	if cfg.Bucket != "" {
		var gcs, err = store.NewGCS(args.Tasks.Context(), cfg.Project, cfg.Bucket)
		if err != nil {
			return nil, fmt.Errorf("building object store: %w", err)
		}
		s = gcs
	} else {
		log.Warn("no --extractor.bucket configured; chunks land in an in-memory store")
		s = store.NewMemory()
	}

	var sink telemetry.Sink = telemetry.Nop{}
	if cfg.MetricsDB != "" {
		var sqlite, err = telemetry.OpenSQLite(cfg.MetricsDB)
		if err != nil {
			return nil, fmt.Errorf("opening metrics database: %w", err)
		}
		args.Tasks.Queue("metrics.Close", func() error {
			<-args.Tasks.Context().Done()
			return sqlite.Close()
		})
		sink = sqlite
	}

	var extractor = extract.NewExtractor(s,
		&extract.FeedClient{URL: cfg.FeedURL},
		sink,
		&pipeline.EventClient{URL: cfg.TriggerURL},
	)
	extract.RegisterAPIs(args.Server, extractor)

	// A requested shutdown tears down the whole service once granted.
	args.Tasks.Queue("extractor.Shutdown", func() error {
		select {
		case <-extractor.ShutdownRequested():
			log.Info("extractor shutdown requested; stopping service")
			args.Tasks.Cancel()
		case <-args.Tasks.Context().Done():
		}
		return nil
	})

	return extractor, nil
}
