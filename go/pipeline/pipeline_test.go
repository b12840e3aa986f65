package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunRequestValidate(t *testing.T) {
	var cases = []struct {
		name    string
		req     RunRequest
		wantErr bool
	}{
		{name: "well-formed", req: RunRequest{Date: "2025-03-30", MaxOffset: 2000}},
		{name: "empty date defaults later", req: RunRequest{}},
		{name: "malformed date", req: RunRequest{Date: "03/30/2025"}, wantErr: true},
		{name: "negative max_offset", req: RunRequest{Date: "2025-03-30", MaxOffset: -1}, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var err = tc.req.Validate()
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestRunRequestClampProbabilities(t *testing.T) {
	var req = RunRequest{
		APIErrorProb: -0.5,
		GCSErrorProb: 1.5,
		RowDropProb:  0.15,
		DelayProb:    2,
	}
	req.ClampProbabilities()

	require.Equal(t, 0.0, req.APIErrorProb)
	require.Equal(t, 1.0, req.GCSErrorProb)
	require.Equal(t, 0.15, req.RowDropProb)
	require.Equal(t, 1.0, req.DelayProb)
}

func TestEventClientPost(t *testing.T) {
	var received Event
	var srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var client = &EventClient{URL: srv.URL}
	var err = client.Post(context.Background(), Event{
		Event:    EventExtractorCompleted,
		Origin:   OriginExtractor,
		Date:     "2025-03-30",
		Duration: 12.5,
	})
	require.NoError(t, err)

	require.Equal(t, EventExtractorCompleted, received.Event)
	require.Equal(t, "2025-03-30", received.Date)
	// Duration must arrive as a JSON number, not a string.
	require.Equal(t, 12.5, received.Duration)
}

func TestEventClientPostFailures(t *testing.T) {
	var srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	var client = &EventClient{URL: srv.URL}
	require.Error(t, client.Post(context.Background(), Event{Event: EventExtractorStarted}))

	client = &EventClient{}
	require.Error(t, client.Post(context.Background(), Event{Event: EventExtractorStarted}))
}
