package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFeedClientRetriesWithBackoff(t *testing.T) {
	var calls atomic.Int32
	var srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[{"a":1}]`))
	}))
	defer srv.Close()

	var slept []time.Duration
	var client = &FeedClient{
		URL:     srv.URL,
		Backoff: 2 * time.Second,
		Sleep:   func(d time.Duration) { slept = append(slept, d) },
	}

	var records, err = client.FetchPage(context.Background(), 1000, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, int32(3), calls.Load())

	// Backoff doubles per failed attempt.
	require.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, slept)
}

func TestFeedClientGivesUpAfterAttempts(t *testing.T) {
	var calls atomic.Int32
	var srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	var client = &FeedClient{
		URL:     srv.URL,
		Backoff: time.Millisecond,
		Sleep:   func(time.Duration) {},
	}

	var _, err = client.FetchPage(context.Background(), 1000, 0)
	require.Error(t, err)
	require.Equal(t, int32(5), calls.Load())
}

func TestFeedClientDoesNotRetryParseFailures(t *testing.T) {
	var calls atomic.Int32
	var srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	var client = &FeedClient{URL: srv.URL, Sleep: func(time.Duration) {}}

	var _, err = client.FetchPage(context.Background(), 1000, 0)
	require.Error(t, err)
	require.Equal(t, int32(1), calls.Load())
}

func TestFeedClientPassesLimitAndOffset(t *testing.T) {
	var srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "1000", r.URL.Query().Get("limit"))
		require.Equal(t, "3000", r.URL.Query().Get("offset"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	var client = &FeedClient{URL: srv.URL}
	var records, err = client.FetchPage(context.Background(), 1000, 3000)
	require.NoError(t, err)
	require.Empty(t, records)
}
