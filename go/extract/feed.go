package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// FeedClient pages through the upstream REST feed. Transport errors and
// non-200 responses are retried with bounded exponential backoff; a body
// that fails to parse as a JSON array is not retried, because the feed is
// returning garbage rather than failing transiently.
type FeedClient struct {
	// URL of the paginated feed, without query parameters.
	URL string
	// HTTP client used for fetches. If nil, a client with a 30s timeout is used.
	HTTP *http.Client
	// Backoff is the initial retry backoff, doubled per attempt. Defaults to 2s.
	Backoff time.Duration
	// Attempts bounds fetch attempts per page. Defaults to 5.
	Attempts int
	// Sleep is overridden by tests. Defaults to time.Sleep.
	Sleep func(time.Duration)
}

func (c *FeedClient) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: 30 * time.Second}
}

func (c *FeedClient) attempts() int {
	if c.Attempts > 0 {
		return c.Attempts
	}
	return 5
}

func (c *FeedClient) backoff() time.Duration {
	if c.Backoff > 0 {
		return c.Backoff
	}
	return 2 * time.Second
}

func (c *FeedClient) sleep(d time.Duration) {
	if c.Sleep != nil {
		c.Sleep(d)
	} else {
		time.Sleep(d)
	}
}

// FetchPage fetches the page of |limit| records beginning at |offset|,
// and parses it as a JSON array. An empty array signals feed exhaustion.
func (c *FeedClient) FetchPage(ctx context.Context, limit, offset int) ([]json.RawMessage, error) {
	var url = fmt.Sprintf("%s?limit=%d&offset=%d", c.URL, limit, offset)

	var body []byte
	var err error
	var backoff = c.backoff()

	for attempt := 1; ; attempt++ {
		body, err = c.fetch(ctx, url)
		if err == nil {
			break
		} else if attempt == c.attempts() {
			return nil, fmt.Errorf("fetching %s after %d attempts: %w", url, attempt, err)
		}

		log.WithFields(log.Fields{
			"url":     url,
			"attempt": attempt,
			"backoff": backoff,
			"err":     err,
		}).Warn("feed fetch failed; retrying")
		feedRetriesTotal.Inc()

		c.sleep(backoff)
		backoff *= 2
	}

	var records []json.RawMessage
	if err = json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("parsing feed page at offset %d: %w", offset, err)
	}
	return records, nil
}

func (c *FeedClient) fetch(ctx context.Context, url string) ([]byte, error) {
	var req, err = http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
