// Package manifest implements the durable handoff contract between
// pipeline stages: a per-(stage, date) manifest object in the store,
// and the extractor's resume checkpoint.
package manifest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/malawley/hygiene-prediction-clean/go/store"
)

// Filename is the well-known manifest object name within a stage's
// date prefix.
const Filename = "_manifest.json"

// Manifest marks a stage as complete for a date, and enumerates every
// chunk the stage produced. It's written exactly once per (stage, date),
// at stage end. Absence of a manifest means "not done" — no manifest is
// ever written with upload_complete: false.
type Manifest struct {
	Date           string   `json:"date"`
	Files          []string `json:"files"`
	UploadComplete bool     `json:"upload_complete"`
}

// Path returns the manifest object path for |prefix| and |date|,
// e.g. "raw-data/2025-03-30/_manifest.json".
func Path(prefix, date string) string {
	return fmt.Sprintf("%s/%s/%s", prefix, date, Filename)
}

// Write persists a completed manifest for |prefix| and |date|.
func Write(ctx context.Context, s store.Store, prefix, date string, files []string) error {
	if files == nil {
		files = []string{} // Marshal as [], not null.
	}
	var data, err = json.MarshalIndent(Manifest{
		Date:           date,
		Files:          files,
		UploadComplete: true,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}

	if err = s.Put(ctx, Path(prefix, date), data); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// Load reads the manifest for |prefix| and |date|.
// It returns store.ErrNotExist when no manifest has been written.
func Load(ctx context.Context, s store.Store, prefix, date string) (*Manifest, error) {
	var data, err = s.Get(ctx, Path(prefix, date))
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err = json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", Path(prefix, date), err)
	}
	return &m, nil
}
