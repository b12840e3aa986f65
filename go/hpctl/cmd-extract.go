package main

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	mbp "go.gazette.dev/core/mainboilerplate"

	"github.com/malawley/hygiene-prediction-clean/go/extract"
	"github.com/malawley/hygiene-prediction-clean/go/pipeline"
	"github.com/malawley/hygiene-prediction-clean/go/store"
	"github.com/malawley/hygiene-prediction-clean/go/telemetry"
)

type cmdExtract struct {
	Date         string  `long:"date" description:"Date to extract (YYYY-MM-DD). Defaults to today"`
	MaxOffset    int     `long:"max-offset" description:"Bound on rows extracted this run. Zero runs to feed exhaustion"`
	APIErrorProb float64 `long:"api-error-prob" description:"Probability of a simulated fetch failure per chunk"`
	GCSErrorProb float64 `long:"gcs-error-prob" description:"Probability of a simulated storage failure per chunk"`
	RowDropProb  float64 `long:"row-drop-prob" description:"Probability of dropping each row"`
	DelayProb    float64 `long:"delay-prob" description:"Probability of a simulated delay per chunk"`

	FeedURL    string `long:"feed-url" env:"FEED_URL" default:"https://data.cityofchicago.org/resource/4ijn-s7e5.json" description:"Upstream paginated feed URL"`
	Bucket     string `long:"bucket" env:"BUCKET_NAME" description:"Object store bucket for raw chunks. Uses an in-memory store when empty"`
	Project    string `long:"project" env:"GCP_PROJECT" description:"Project owning the bucket, used if it must be created"`
	TriggerURL string `long:"trigger-url" env:"TRIGGER_URL" description:"Trigger event ingress URL. Events are skipped when empty"`
	MetricsDB  string `long:"metrics-db" env:"METRICS_DB" description:"SQLite database path for chunk metrics. Disabled when empty"`

	Log mbp.LogConfig `group:"Logging" namespace:"log" env-namespace:"LOG"`
}

func (cmd cmdExtract) Execute(_ []string) error {
	mbp.InitLog(cmd.Log)

	var req = pipeline.RunRequest{
		Date:         cmd.Date,
		MaxOffset:    cmd.MaxOffset,
		APIErrorProb: cmd.APIErrorProb,
		GCSErrorProb: cmd.GCSErrorProb,
		RowDropProb:  cmd.RowDropProb,
		DelayProb:    cmd.DelayProb,
	}
	if err := req.Validate(); err != nil {
		return err
	}

	var ctx = context.Background()

	var s store.Store
	if cmd.Bucket != "" {
		var gcs, err = store.NewGCS(ctx, cmd.Project, cmd.Bucket)
		if err != nil {
			return fmt.Errorf("building object store: %w", err)
		}
		s = gcs
	} else {
		log.Warn("no --bucket configured; chunks land in an in-memory store and are lost on exit")
		s = store.NewMemory()
	}

	var sink telemetry.Sink = telemetry.Nop{}
	if cmd.MetricsDB != "" {
		var sqlite, err = telemetry.OpenSQLite(cmd.MetricsDB)
		if err != nil {
			return fmt.Errorf("opening metrics database: %w", err)
		}
		defer sqlite.Close()
		sink = sqlite
	}

	var extractor = extract.NewExtractor(s,
		&extract.FeedClient{URL: cmd.FeedURL},
		sink,
		&pipeline.EventClient{URL: cmd.TriggerURL},
	)
	return extractor.Extract(ctx, req)
}
