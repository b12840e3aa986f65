package worker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/malawley/hygiene-prediction-clean/go/manifest"
	"github.com/malawley/hygiene-prediction-clean/go/pipeline"
	"github.com/malawley/hygiene-prediction-clean/go/store"
)

func upperStage(s store.Store, events *pipeline.EventClient) *Stage {
	return &Stage{
		Name:            "cleaner",
		UpstreamPrefix:  "raw-data",
		Prefix:          "clean-data",
		CompletionEvent: pipeline.EventCleanerCompleted,
		Store:           s,
		Events:          events,
		Transform: func(name string, data []byte) (string, []byte, error) {
			return name, []byte(strings.ToUpper(string(data))), nil
		},
	}
}

func writeUpstream(t *testing.T, s store.Store, date string, files map[string]string) {
	var names []string
	for name, content := range files {
		require.NoError(t, s.Put(context.Background(), "raw-data/"+date+"/"+name, []byte(content)))
		names = append(names, name)
	}
	require.NoError(t, manifest.Write(context.Background(), s, "raw-data", date, names))
}

func TestStageProcessesManifestFiles(t *testing.T) {
	var s = store.NewMemory()
	writeUpstream(t, s, "2025-01-01", map[string]string{
		"offset_0.json": "abc",
	})

	var stage = upperStage(s, nil)
	require.NoError(t, stage.Process(context.Background(), "2025-01-01"))

	var out, err = s.Get(context.Background(), "clean-data/2025-01-01/offset_0.json")
	require.NoError(t, err)
	require.Equal(t, "ABC", string(out))

	var m, loadErr = manifest.Load(context.Background(), s, "clean-data", "2025-01-01")
	require.NoError(t, loadErr)
	require.True(t, m.UploadComplete)
	require.Equal(t, []string{"offset_0.json"}, m.Files)
}

func TestStageNoUpstreamManifestIsZeroWork(t *testing.T) {
	var s = store.NewMemory()
	// Upstream data exists but its manifest was never written.
	require.NoError(t, s.Put(context.Background(),
		"raw-data/2025-01-01/offset_0.json", []byte("abc")))

	var stage = upperStage(s, nil)
	require.NoError(t, stage.Process(context.Background(), "2025-01-01"))

	// The stage produced nothing, including no manifest of its own.
	_, err := manifest.Load(context.Background(), s, "clean-data", "2025-01-01")
	require.ErrorIs(t, err, store.ErrNotExist)
}

func TestStageIncompleteUpstreamManifestIsZeroWork(t *testing.T) {
	var s = store.NewMemory()

	var data, err = json.Marshal(manifest.Manifest{
		Date:           "2025-01-01",
		Files:          []string{"offset_0.json"},
		UploadComplete: false,
	})
	require.NoError(t, err)
	require.NoError(t, s.Put(context.Background(),
		manifest.Path("raw-data", "2025-01-01"), data))

	var stage = upperStage(s, nil)
	require.NoError(t, stage.Process(context.Background(), "2025-01-01"))

	_, err = manifest.Load(context.Background(), s, "clean-data", "2025-01-01")
	require.ErrorIs(t, err, store.ErrNotExist)
}

func TestStagePostsCompletionEvent(t *testing.T) {
	var mu sync.Mutex
	var events []pipeline.Event

	var trigger = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ev pipeline.Event
		require.NoError(t, json.NewDecoder(r.Body).Decode(&ev))
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer trigger.Close()

	var s = store.NewMemory()
	writeUpstream(t, s, "2025-01-01", map[string]string{"offset_0.json": "abc"})

	var stage = upperStage(s, &pipeline.EventClient{URL: trigger.URL})
	require.NoError(t, stage.Process(context.Background(), "2025-01-01"))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 1)
	require.Equal(t, pipeline.EventCleanerCompleted, events[0].Event)
	require.Equal(t, "cleaner", events[0].Origin)
	require.Equal(t, "2025-01-01", events[0].Date)
	require.NotEmpty(t, events[0].Timestamp)
}

func TestStageEmptyUpstreamManifestCompletesEmpty(t *testing.T) {
	var s = store.NewMemory()
	require.NoError(t, manifest.Write(context.Background(), s, "raw-data", "2025-01-01", nil))

	var stage = upperStage(s, nil)
	require.NoError(t, stage.Process(context.Background(), "2025-01-01"))

	var m, err = manifest.Load(context.Background(), s, "clean-data", "2025-01-01")
	require.NoError(t, err)
	require.True(t, m.UploadComplete)
	require.Empty(t, m.Files)
}

func TestStageTransformErrorAborts(t *testing.T) {
	var s = store.NewMemory()
	writeUpstream(t, s, "2025-01-01", map[string]string{"offset_0.json": "abc"})

	var stage = upperStage(s, nil)
	stage.Transform = func(name string, data []byte) (string, []byte, error) {
		return "", nil, context.DeadlineExceeded
	}
	require.Error(t, stage.Process(context.Background(), "2025-01-01"))

	// No manifest lands after a failed run.
	_, err := manifest.Load(context.Background(), s, "clean-data", "2025-01-01")
	require.ErrorIs(t, err, store.ErrNotExist)
}
