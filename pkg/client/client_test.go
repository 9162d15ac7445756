package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"tableflip.dev/grid/pkg/protocol"
)

func TestDoForwardsHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New("sekrit")
	d := protocol.Descriptor{Method: http.MethodGet, URL: srv.URL, Header: http.Header{}}
	d.Header.Set("X-Requested-With", "XMLHttpRequest")

	if _, err := c.Do(context.Background(), d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Get("X-Requested-With") != "XMLHttpRequest" {
		t.Fatalf("descriptor header not forwarded: %v", got)
	}
	if got.Get("X-CSRF-Token") != "sekrit" {
		t.Fatalf("token header missing: %v", got)
	}
}

func TestDoOmitsTokenWhenUnset(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New("")
	if _, err := c.Do(context.Background(), protocol.Descriptor{Method: http.MethodGet, URL: srv.URL}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := got["X-Csrf-Token"]; ok {
		t.Fatalf("token header must be absent: %v", got)
	}
}

func TestDoPostsBody(t *testing.T) {
	var gotBody []byte
	var gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotType = r.Header.Get("Content-Type")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	d := protocol.Descriptor{
		Method: http.MethodPost,
		URL:    srv.URL,
		Header: http.Header{"Content-Type": {"application/json"}},
		Body:   []byte(`{"page":1}`),
	}
	if _, err := New("").Do(context.Background(), d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(gotBody) != `{"page":1}` {
		t.Fatalf("body mismatch: %s", gotBody)
	}
	if gotType != "application/json" {
		t.Fatalf("content type mismatch: %q", gotType)
	}
}

func TestDoNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New("").Do(context.Background(), protocol.Descriptor{Method: http.MethodGet, URL: srv.URL})
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransportError, got %v", err)
	}
	if te.Status != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", te.Status)
	}
}

func TestDoNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // refuse connections

	_, err := New("").Do(context.Background(), protocol.Descriptor{Method: http.MethodGet, URL: srv.URL})
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransportError, got %v", err)
	}
	if te.Status != 0 || te.Err == nil {
		t.Fatalf("expected wrapped network error, got %+v", te)
	}
}

func TestDoContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New("").Do(ctx, protocol.Descriptor{Method: http.MethodGet, URL: srv.URL})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled through the error chain, got %v", err)
	}
}

func TestDoZeroValueClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`ok`))
	}))
	defer srv.Close()

	var c Client
	payload, err := c.Do(context.Background(), protocol.Descriptor{Method: http.MethodGet, URL: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != "ok" {
		t.Fatalf("payload mismatch: %s", payload)
	}
}
