package trigger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DurationLog appends per-stage durations to per-origin log files,
// one `date,event,duration` line per completion event which carried a
// measured duration.
type DurationLog struct {
	dir string
	mu  sync.Mutex
}

// NewDurationLog returns a DurationLog writing under |dir|, creating it
// if needed.
func NewDurationLog(dir string) (*DurationLog, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating durations directory: %w", err)
	}
	return &DurationLog{dir: dir}, nil
}

// Append records |duration| (seconds) for the given origin and event.
func (l *DurationLog) Append(origin, date, event string, duration float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var path = filepath.Join(l.dir, fmt.Sprintf("duration_%s.log", origin))
	var f, err = os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening duration log: %w", err)
	}
	defer f.Close()

	if _, err = fmt.Fprintf(f, "%s,%s,%.3f\n", date, event, duration); err != nil {
		return fmt.Errorf("writing duration log: %w", err)
	}
	return nil
}
