package httpclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestDoInjectsUserAgent(t *testing.T) {
	t.Parallel()

	var gotUA atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA.Store(r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := New(&Config{UserAgent: "modwatch-test/1.0"})
	defer client.Close()

	resp, err := client.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = resp.Body.Close()

	if ua := gotUA.Load(); ua != "modwatch-test/1.0" {
		t.Errorf("expected injected User-Agent, got %q", ua)
	}
}

func TestDoAppliesDefaultTimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	client := New(&Config{DefaultTimeout: 50 * time.Millisecond})
	defer client.Close()

	_, err := client.Get(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestDoBodyReadableAfterReturn(t *testing.T) {
	t.Parallel()

	// Stream 1MB in flushed chunks so the body exceeds any transport
	// read-ahead buffering and is still in flight when Do returns.
	const chunkSize = 32 * 1024
	const chunks = 32
	chunk := bytes.Repeat([]byte("x"), chunkSize)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Error("response writer does not support flushing")
			return
		}
		for i := 0; i < chunks; i++ {
			if _, err := w.Write(chunk); err != nil {
				return
			}
			flusher.Flush()
		}
	}))
	defer srv.Close()

	client := New(&Config{DefaultTimeout: 10 * time.Second})
	defer client.Close()

	resp, err := client.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("body read after Do returned failed: %v", err)
	}
	if err := resp.Body.Close(); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}

	if len(body) != chunkSize*chunks {
		t.Errorf("expected %d body bytes, got %d", chunkSize*chunks, len(body))
	}
}

func TestPostJSONSetsContentType(t *testing.T) {
	t.Parallel()

	var gotType atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType.Store(r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := New(nil)
	defer client.Close()

	resp, err := client.PostJSON(context.Background(), srv.URL, map[string]string{"k": "v"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = resp.Body.Close()

	if ct := gotType.Load(); ct != "application/json" {
		t.Errorf("expected application/json content type, got %q", ct)
	}
}

func TestObserverIsCalled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := New(nil)
	defer client.Close()

	var calls atomic.Int32
	client.SetObserver(func(_ *http.Request, _ *http.Response, _ error) {
		calls.Add(1)
	})

	resp, err := client.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = resp.Body.Close()

	if calls.Load() != 1 {
		t.Errorf("expected observer to be called once, got %d", calls.Load())
	}
}
