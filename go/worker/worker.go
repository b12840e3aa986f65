// Package worker implements the downstream stage contract: consume the
// upstream stage's manifest, transform every file it lists, publish the
// stage's own manifest, and post a completion event to the trigger.
package worker

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/malawley/hygiene-prediction-clean/go/manifest"
	"github.com/malawley/hygiene-prediction-clean/go/pipeline"
	"github.com/malawley/hygiene-prediction-clean/go/store"
)

// Transform maps one upstream object to one output object. It returns
// the output's file name (relative to the stage prefix and date) and
// its serialized content.
type Transform func(name string, data []byte) (string, []byte, error)

// Stage is one downstream pipeline worker. Each stage reads from its
// upstream prefix and writes under its own, so stages compose by
// prefix chaining: raw-data -> clean-data -> loaded-data.
type Stage struct {
	// Name of this stage, used as the event origin.
	Name string
	// UpstreamPrefix is the prefix whose manifest gates this stage.
	UpstreamPrefix string
	// Prefix is where this stage writes its outputs and manifest.
	Prefix string
	// CompletionEvent is posted to the trigger after the manifest lands.
	CompletionEvent string
	// Store holds both upstream inputs and this stage's outputs.
	Store store.Store
	// Events posts completion events. May be nil for offline use.
	Events *pipeline.EventClient
	// Transform converts one upstream file.
	Transform Transform
}

// Process runs the stage for |date|. An absent or incomplete upstream
// manifest means the upstream never finished: that's zero work and a
// successful no-op, not an error, and no completion event is posted.
func (s *Stage) Process(ctx context.Context, date string) error {
	var started = time.Now()

	var m, err = manifest.Load(ctx, s.Store, s.UpstreamPrefix, date)
	if errors.Is(err, store.ErrNotExist) {
		log.WithFields(log.Fields{"stage": s.Name, "date": date}).
			Info("no upstream manifest; nothing to do")
		return nil
	} else if err != nil {
		return fmt.Errorf("loading upstream manifest: %w", err)
	} else if !m.UploadComplete {
		log.WithFields(log.Fields{"stage": s.Name, "date": date}).
			Warn("upstream manifest incomplete; nothing to do")
		return nil
	}

	var outputs = []string{}
	for _, name := range m.Files {
		var data []byte
		if data, err = s.Store.Get(ctx, path.Join(s.UpstreamPrefix, date, name)); err != nil {
			return fmt.Errorf("reading upstream file %s: %w", name, err)
		}

		var outName string
		var out []byte
		if outName, out, err = s.Transform(name, data); err != nil {
			return fmt.Errorf("transforming %s: %w", name, err)
		}

		if err = s.Store.Put(ctx, path.Join(s.Prefix, date, outName), out); err != nil {
			return fmt.Errorf("writing output %s: %w", outName, err)
		}
		outputs = append(outputs, outName)
	}

	if err = manifest.Write(ctx, s.Store, s.Prefix, date, outputs); err != nil {
		return fmt.Errorf("writing stage manifest: %w", err)
	}

	log.WithFields(log.Fields{
		"stage": s.Name,
		"date":  date,
		"files": len(outputs),
	}).Info("stage completed")

	if s.Events != nil {
		var ev = pipeline.Event{
			Event:     s.CompletionEvent,
			Origin:    s.Name,
			Date:      date,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Duration:  time.Since(started).Seconds(),
		}
		if err = s.Events.Post(ctx, ev); err != nil {
			return fmt.Errorf("posting completion event: %w", err)
		}
	}
	return nil
}
