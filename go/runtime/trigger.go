package runtime

import (
	"errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	mbp "go.gazette.dev/core/mainboilerplate"
	"go.gazette.dev/core/server"
	"go.gazette.dev/core/task"

	"github.com/malawley/hygiene-prediction-clean/go/trigger"
)

// TriggerConfig configures the trigger service. Worker endpoints come
// from SERVICE_CONFIG_B64 (a base64 JSON blob) or, failing that, a
// services.json file.
type TriggerConfig struct {
	Trigger struct {
		mbp.ServiceConfig
		ServiceConfigB64  string `long:"service-config-b64" env:"SERVICE_CONFIG_B64" description:"Base64-encoded JSON of worker endpoints"`
		ServiceConfigPath string `long:"service-config" env:"SERVICE_CONFIG_PATH" default:"services.json" description:"Worker endpoints file, used when no base64 blob is given"`
		DurationsDir      string `long:"durations-dir" env:"DURATIONS_DIR" default:"durations" description:"Directory of per-origin duration logs"`
		CacheSize         int    `long:"cache-size" default:"4096" description:"Completion cache capacity in (date, event) pairs"`
		EnableJSONLoader  bool   `long:"enable-json-loader" env:"ENABLE_JSON_LOADER" description:"Route cleaned data through the JSON loader before the parquet loader"`
	} `group:"Trigger" namespace:"trigger"`

	Log         mbp.LogConfig         `group:"Logging" namespace:"log" env-namespace:"LOG"`
	Diagnostics mbp.DiagnosticsConfig `group:"Debug" namespace:"debug" env-namespace:"DEBUG"`
}

// TriggerArgs are the assembled collaborators of the trigger service.
type TriggerArgs struct {
	Config TriggerConfig
	Server *server.Server
	Tasks  *task.Group
}

// StartTriggerService initializes the trigger Router and wires up all
// API handlers.
func StartTriggerService(args TriggerArgs) (*trigger.Router, error) {
	var cfg = args.Config.Trigger

	var workers *trigger.ServiceURLs
	var err error
	if cfg.ServiceConfigB64 != "" {
		if workers, err = trigger.ParseServiceConfig(cfg.ServiceConfigB64); err != nil {
			return nil, err
		}
	} else if workers, err = trigger.LoadServiceConfig(cfg.ServiceConfigPath); errors.Is(err, os.ErrNotExist) {
		log.WithField("path", cfg.ServiceConfigPath).
			Warn("no service config found; worker endpoints are empty")
		workers = &trigger.ServiceURLs{}
	} else if err != nil {
		return nil, err
	}

	cache, err := trigger.NewCompletionCache(cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("building completion cache: %w", err)
	}
	durations, err := trigger.NewDurationLog(cfg.DurationsDir)
	if err != nil {
		return nil, fmt.Errorf("building duration log: %w", err)
	}

	var router = &trigger.Router{
		Workers:          workers,
		Cache:            cache,
		Durations:        durations,
		EnableJSONLoader: cfg.EnableJSONLoader,
	}
	trigger.RegisterAPIs(args.Server, router)

	log.WithFields(log.Fields{
		"extractor":        workers.Extractor.URL,
		"cleaner":          workers.Cleaner.URL,
		"loader":           workers.Loader.URL,
		"loaderParquet":    workers.LoaderParquet.URL,
		"enableJSONLoader": cfg.EnableJSONLoader,
	}).Info("trigger routing configured")

	return router, nil
}
