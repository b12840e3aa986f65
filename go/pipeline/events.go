package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// EventClient posts lifecycle events to the trigger's event ingress.
// Sends are bounded by the client timeout; callers treat failures as
// best-effort and log them, because the stage manifest (not the event)
// is the authoritative durable completion signal.
type EventClient struct {
	// URL of the trigger event ingress.
	URL string
	// HTTP client used for posts. If nil, a client with a 10s timeout is used.
	HTTP *http.Client
}

func (c *EventClient) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: 10 * time.Second}
}

// Post delivers |event| to the trigger.
func (c *EventClient) Post(ctx context.Context, event Event) error {
	if c.URL == "" {
		return fmt.Errorf("no trigger URL is configured")
	}

	var body, err = json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building event request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("posting %s event: %w", event.Event, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("posting %s event: unexpected status %s", event.Event, resp.Status)
	}
	return nil
}
