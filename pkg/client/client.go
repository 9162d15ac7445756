// Package client executes built request descriptors against the data
// endpoint. It owns the transport error taxonomy: network failures and
// non-2xx statuses both surface as a *TransportError for the controller to
// convert into a user-visible failed state.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"tableflip.dev/grid/pkg/protocol"
)

// TransportError is a failed dispatch: either the request never completed
// (Err set, Status zero) or the server answered outside 2xx.
type TransportError struct {
	URL    string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("client: %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("client: %s: unexpected status %d", e.URL, e.Status)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Client dispatches descriptors. The zero value is usable; Token, when
// set, is attached as the anti-forgery header on every request.
type Client struct {
	HTTP  *http.Client
	Token string
}

// New returns a client with a bounded request timeout.
func New(token string) *Client {
	return &Client{
		HTTP:  &http.Client{Timeout: 30 * time.Second},
		Token: token,
	}
}

// Do executes the descriptor and returns the raw response payload. The
// caller normalizes; Do makes no assumption about the body's shape.
func (c *Client) Do(ctx context.Context, d protocol.Descriptor) ([]byte, error) {
	var body io.Reader
	if len(d.Body) > 0 {
		body = bytes.NewReader(d.Body)
	}

	req, err := http.NewRequestWithContext(ctx, d.Method, d.URL, body)
	if err != nil {
		return nil, &TransportError{URL: d.URL, Err: err}
	}
	for k, vs := range d.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if c.Token != "" {
		req.Header.Set("X-CSRF-Token", c.Token)
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{URL: d.URL, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: d.URL, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{URL: d.URL, Status: resp.StatusCode}
	}
	return payload, nil
}
