package docproc

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8000/api/v1"

	t.Run("default client", func(t *testing.T) {
		c := NewClient(baseURL)
		if c.baseURL != baseURL {
			t.Errorf("baseURL = %v, want %v", c.baseURL, baseURL)
		}
		if c.httpClient == nil {
			t.Fatal("httpClient is nil")
		}
		if c.httpClient.Timeout != 0 {
			t.Errorf("timeout = %v, want no timeout", c.httpClient.Timeout)
		}
	})

	t.Run("empty base URL uses default", func(t *testing.T) {
		c := NewClient("")
		if c.BaseURL() != DefaultBaseURL {
			t.Errorf("BaseURL() = %v, want %v", c.BaseURL(), DefaultBaseURL)
		}
	})

	t.Run("trailing slash trimmed", func(t *testing.T) {
		c := NewClient(baseURL + "/")
		if c.BaseURL() != baseURL {
			t.Errorf("BaseURL() = %v, want %v", c.BaseURL(), baseURL)
		}
	})

	t.Run("with custom HTTP client", func(t *testing.T) {
		customClient := &http.Client{Timeout: 10 * time.Second}
		c := NewClient(baseURL, WithHTTPClient(customClient))
		if c.httpClient != customClient {
			t.Error("custom HTTP client not set")
		}
	})

	t.Run("with custom timeout", func(t *testing.T) {
		timeout := 5 * time.Second
		c := NewClient(baseURL, WithTimeout(timeout))
		if c.httpClient.Timeout != timeout {
			t.Errorf("timeout = %v, want %v", c.httpClient.Timeout, timeout)
		}
	})

	t.Run("with tracing", func(t *testing.T) {
		c := NewClient(baseURL, WithTracing())
		if c.httpClient.Transport == nil {
			t.Error("transport not wrapped")
		}
	})

	t.Run("shared client left untouched", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		}))
		defer server.Close()

		var calls int
		var mu sync.Mutex
		base := roundTripFunc(func(r *http.Request) (*http.Response, error) {
			mu.Lock()
			calls++
			mu.Unlock()
			return http.DefaultTransport.RoundTrip(r)
		})
		shared := &http.Client{Transport: base}

		c := NewClient(server.URL, WithHTTPClient(shared), WithTracing(), WithTimeout(3*time.Second))
		if c.httpClient == shared {
			t.Fatal("options modified the shared client in place")
		}
		if shared.Timeout != 0 {
			t.Errorf("shared timeout = %v, want 0", shared.Timeout)
		}
		if _, ok := shared.Transport.(roundTripFunc); !ok {
			t.Errorf("shared transport = %T, want the original", shared.Transport)
		}

		if _, err := c.ListDocuments(context.Background()); err != nil {
			t.Fatalf("ListDocuments() error = %v", err)
		}
		mu.Lock()
		defer mu.Unlock()
		if calls != 1 {
			t.Errorf("base transport calls = %d, want 1", calls)
		}
	})

	t.Run("default transport left untouched", func(t *testing.T) {
		before := http.DefaultClient.Transport
		NewClient(baseURL, WithHTTPClient(http.DefaultClient), WithTracing())
		if http.DefaultClient.Transport != before {
			t.Error("WithTracing modified http.DefaultClient")
		}
	})
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestClient_doRequest(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/v1/test" {
				t.Errorf("path = %v, want /api/v1/test", r.URL.Path)
			}
			if r.Header.Get("Accept") != "application/json" {
				t.Error("accept header not set correctly")
			}
			if r.Header.Get(RequestIDHeader) == "" {
				t.Error("request id header not set")
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		}))
		defer server.Close()

		c := NewClient(server.URL + "/api/v1")
		var result map[string]string
		err := c.doRequest(context.Background(), request{method: "GET", path: "/test"}, &result)
		if err != nil {
			t.Fatalf("doRequest failed: %v", err)
		}
		if result["status"] != "ok" {
			t.Errorf("status = %v, want ok", result["status"])
		}
	})

	t.Run("request ids are unique", func(t *testing.T) {
		var mu sync.Mutex
		seen := make(map[string]bool)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			seen[r.Header.Get(RequestIDHeader)] = true
			mu.Unlock()
		}))
		defer server.Close()

		c := NewClient(server.URL)
		for i := 0; i < 3; i++ {
			if err := c.doRequest(context.Background(), request{method: "GET", path: "/x"}, nil); err != nil {
				t.Fatalf("doRequest failed: %v", err)
			}
		}
		mu.Lock()
		defer mu.Unlock()
		if len(seen) != 3 {
			t.Errorf("distinct request ids = %d, want 3", len(seen))
		}
	})

	t.Run("404 error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"Document not found"}`))
		}))
		defer server.Close()

		c := NewClient(server.URL)
		err := c.doRequest(context.Background(), request{method: "GET", path: "/documents/9"}, nil)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !IsNotFound(err) {
			t.Errorf("expected 404 error, got %v", err)
		}
		apiErr := err.(*Error)
		if apiErr.Detail != "Document not found" {
			t.Errorf("detail = %q, want Document not found", apiErr.Detail)
		}
	})

	t.Run("500 error without detail", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("Internal Server Error"))
		}))
		defer server.Close()

		c := NewClient(server.URL)
		err := c.doRequest(context.Background(), request{method: "GET", path: "/x"}, nil)
		apiErr, ok := err.(*Error)
		if !ok {
			t.Fatalf("expected *Error, got %T", err)
		}
		if apiErr.StatusCode != 500 {
			t.Errorf("status code = %d, want 500", apiErr.StatusCode)
		}
		if apiErr.Detail != "" {
			t.Errorf("detail = %q, want empty", apiErr.Detail)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("invalid json"))
		}))
		defer server.Close()

		c := NewClient(server.URL)
		var result map[string]string
		err := c.doRequest(context.Background(), request{method: "GET", path: "/x"}, &result)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
	})

	t.Run("context cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		c := NewClient(server.URL)
		ctx, cancel := context.WithCancel(context.Background())
		cancel() // Cancel immediately
		err := c.doRequest(ctx, request{method: "GET", path: "/x"}, nil)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
	})

	t.Run("logs at debug", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		var logs bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
		c := NewClient(server.URL, WithLogger(logger))
		if err := c.doRequest(context.Background(), request{method: "DELETE", path: "/documents/1"}, nil); err != nil {
			t.Fatalf("doRequest failed: %v", err)
		}
		if !strings.Contains(logs.String(), "path=/documents/1") || !strings.Contains(logs.String(), "status=204") {
			t.Errorf("log output missing request fields: %s", logs.String())
		}
	})
}

func TestClient_buildURL(t *testing.T) {
	c := NewClient("http://localhost:8000/api/v1")

	tests := []struct {
		name  string
		path  string
		query url.Values
		want  string
	}{
		{
			name: "no query",
			path: "/documents",
			want: "http://localhost:8000/api/v1/documents",
		},
		{
			name: "with id",
			path: "/documents/42",
			want: "http://localhost:8000/api/v1/documents/42",
		},
		{
			name:  "with query",
			path:  "/search",
			query: url.Values{"query": {"test search"}},
			want:  "http://localhost:8000/api/v1/search?query=test+search",
		},
		{
			name:  "with query and k",
			path:  "/ask",
			query: url.Values{"question": {"why?"}, "k": {"3"}},
			want:  "http://localhost:8000/api/v1/ask?k=3&question=why%3F",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.buildURL(tt.path, tt.query)
			if err != nil {
				t.Fatalf("buildURL() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("buildURL() = %v, want %v", got, tt.want)
			}
		})
	}
}
