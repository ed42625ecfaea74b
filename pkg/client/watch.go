package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/cloudnebula/reddwarf/pkg/types"
)

// Event is one line of a watch stream, decoded lazily: Object stays raw
// JSON until the caller unmarshals it into the concrete kind they asked
// to watch.
type Event struct {
	Type   types.WatchEventType `json:"type"`
	Object json.RawMessage      `json:"object"`
}

// watch opens a streaming GET against path with ?watch=true (and
// ?resourceVersion=rv when rv is non-empty), decoding line-delimited
// JSON events onto the returned channel until ctx is canceled or the
// server closes the connection. The channel is closed when the stream
// ends; callers should drain it via range.
func (c *Client) watch(ctx context.Context, path, resourceVersion string) (<-chan *Event, error) {
	query := url.Values{"watch": {"true"}}
	if resourceVersion != "" {
		query.Set("resourceVersion", resourceVersion)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path, query), nil)
	if err != nil {
		return nil, fmt.Errorf("client: build watch request: %w", err)
	}

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: watch %s: %w", path, err)
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		var status types.Status
		body := make([]byte, 4096)
		n, _ := resp.Body.Read(body)
		if jsonErr := json.Unmarshal(body[:n], &status); jsonErr == nil && status.Reason != "" {
			return nil, &APIError{StatusCode: resp.StatusCode, Reason: status.Reason, Message: status.Message}
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Reason: "Unknown", Message: string(body[:n])}
	}

	events := make(chan *Event)
	go func() {
		defer close(events)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			var ev Event
			if err := json.Unmarshal(line, &ev); err != nil {
				return
			}
			select {
			case events <- &ev:
			case <-ctx.Done():
				return
			}
			if ev.Type == types.WatchBookmark || ev.Type == types.WatchGone {
				return
			}
		}
	}()
	return events, nil
}

// WatchPods streams Pod changes in namespace starting after
// resourceVersion ("" first sends an ADDED event for every current Pod,
// then live changes).
func (c *Client) WatchPods(ctx context.Context, namespace, resourceVersion string) (<-chan *Event, error) {
	return c.watch(ctx, podsPath(namespace), resourceVersion)
}

// WatchServices streams Service changes in namespace.
func (c *Client) WatchServices(ctx context.Context, namespace, resourceVersion string) (<-chan *Event, error) {
	return c.watch(ctx, servicesPath(namespace), resourceVersion)
}

// WatchNodes streams Node changes cluster-wide.
func (c *Client) WatchNodes(ctx context.Context, resourceVersion string) (<-chan *Event, error) {
	return c.watch(ctx, "/api/v1/nodes", resourceVersion)
}
