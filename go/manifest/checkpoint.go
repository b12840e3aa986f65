package manifest

import (
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/malawley/hygiene-prediction-clean/go/store"
)

// CheckpointPath is the extractor's resume checkpoint object. It is
// deliberately not scoped by date: last_offset increases monotonically
// across runs until the feed is exhausted, and two concurrent runs of
// the same date are undefined behavior.
const CheckpointPath = "last_checkpoint.json"

type checkpoint struct {
	LastOffset int `json:"last_offset"`
}

// LoadCheckpoint reads the checkpoint's last_offset. A missing or
// unparsable checkpoint resolves to offset zero, so a fresh deployment
// starts at the head of the feed.
func LoadCheckpoint(ctx context.Context, s store.Store) int {
	var data, err = s.Get(ctx, CheckpointPath)
	if err != nil {
		log.WithField("err", err).Info("no checkpoint found; starting from offset 0")
		return 0
	}

	var cp checkpoint
	if err = json.Unmarshal(data, &cp); err != nil {
		log.WithField("err", err).Warn("failed to parse checkpoint; starting from offset 0")
		return 0
	}
	return cp.LastOffset
}

// WriteCheckpoint persists |offset| as the checkpoint's last_offset.
func WriteCheckpoint(ctx context.Context, s store.Store, offset int) error {
	var data, err = json.MarshalIndent(checkpoint{LastOffset: offset}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling checkpoint: %w", err)
	}
	if err = s.Put(ctx, CheckpointPath, data); err != nil {
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	return nil
}
