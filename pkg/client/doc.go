/*
Package client provides a Go client library for Reddwarf's REST API.

It wraps the /api/v1 surface with a convenient, idiomatic Go interface:
connection reuse via a shared *http.Client, structured errors, and
type-safe per-kind methods, built on top of a small JSON-over-HTTP core
the generic methods share.

# Usage

	c := client.New("http://127.0.0.1:8080")

	pod, err := c.CreatePod(ctx, "default", myPod)
	pods, err := c.ListPods(ctx, "default")
	_, err = c.DeletePod(ctx, "default", "nginx")

Watching a kind for changes streams line-delimited JSON events:

	events, err := c.WatchPods(ctx, "default", "")
	for ev := range events {
		fmt.Printf("%s %s\n", ev.Type, ev.Object)
	}

# Error handling

Non-2xx responses are decoded as the types.Status failure envelope and
returned as a *client.APIError, which carries the HTTP status and the
server's Reason/Message so callers can switch on apierror.Kind-style
reasons without parsing strings.
*/
package client
