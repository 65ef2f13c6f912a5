package dradis

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dookofcrds/PenFramework/internal/core"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	mu     sync.Mutex
	method string
	path   string
	apiKey string
	ctype  string
	body   []byte
}

func newServer(t *testing.T, status int, got *captured, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		if got != nil {
			got.mu.Lock()
			defer got.mu.Unlock()
			got.method = r.Method
			got.path = r.URL.Path
			got.apiKey = r.Header.Get("api_key")
			got.ctype = r.Header.Get("Content-Type")
			got.body, _ = io.ReadAll(r.Body)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"message":"status body"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, baseURL string, mutate func(*core.UploadConfig)) *Client {
	t.Helper()
	cfg := core.UploadConfig{
		Enabled:   true,
		URL:       baseURL,
		ProjectID: "7",
		APIKey:    "secret",
		Timeout:   2 * time.Second,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	logger, _ := test.NewNullLogger()
	return NewClient(cfg, logger)
}

func TestUploadCreated(t *testing.T) {
	var got captured
	srv := newServer(t, http.StatusCreated, &got, nil)

	err := newClient(t, srv.URL+"/", nil).Upload(context.Background(), "22/tcp open ssh")
	require.NoError(t, err)

	got.mu.Lock()
	defer got.mu.Unlock()
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/projects/7/findings", got.path)
	assert.Equal(t, "secret", got.apiKey)
	assert.Equal(t, "application/json", got.ctype)
	assert.JSONEq(t, `{"finding": "22/tcp open ssh"}`, string(got.body))
}

func TestUploadEmptyDocumentIsSent(t *testing.T) {
	var got captured
	var calls int32
	srv := newServer(t, http.StatusCreated, &got, &calls)

	require.NoError(t, newClient(t, srv.URL, nil).Upload(context.Background(), ""))
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	got.mu.Lock()
	defer got.mu.Unlock()
	var body Finding
	require.NoError(t, json.Unmarshal(got.body, &body))
	assert.Equal(t, "", body.Finding)
}

func TestUploadRejectedIsNotRetried(t *testing.T) {
	var calls int32
	srv := newServer(t, http.StatusInternalServerError, nil, &calls)

	err := newClient(t, srv.URL, nil).Upload(context.Background(), "doc")

	var rejected *core.UploadRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, 500, rejected.StatusCode)
	assert.Contains(t, rejected.Body, "status body")
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestUploadOKIsNotCreated(t *testing.T) {
	srv := newServer(t, http.StatusOK, nil, nil)

	err := newClient(t, srv.URL, nil).Upload(context.Background(), "doc")

	var rejected *core.UploadRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, http.StatusOK, rejected.StatusCode)
}

func TestUploadTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()
	defer close(release)

	client := newClient(t, srv.URL, func(c *core.UploadConfig) { c.Timeout = 100 * time.Millisecond })
	err := client.Upload(context.Background(), "doc")

	var timeout *core.UploadTimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, 100*time.Millisecond, timeout.Timeout)

	var rejected *core.UploadRejectedError
	assert.False(t, errors.As(err, &rejected))
}

func TestUploadUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := newClient(t, url, nil).Upload(context.Background(), "doc")

	var uploadErr *core.UploadError
	require.ErrorAs(t, err, &uploadErr)
	var timeout *core.UploadTimeoutError
	assert.False(t, errors.As(err, &timeout))
}

func TestUploadPayloadGuard(t *testing.T) {
	var calls int32
	srv := newServer(t, http.StatusCreated, nil, &calls)

	client := newClient(t, srv.URL, func(c *core.UploadConfig) { c.MaxPayloadBytes = 16 })
	err := client.Upload(context.Background(), "this document is far too large")

	assert.ErrorIs(t, err, core.ErrPayloadTooLarge)
	assert.EqualValues(t, 0, atomic.LoadInt32(&calls))
}

func TestUploadNotConfigured(t *testing.T) {
	client := newClient(t, "", func(c *core.UploadConfig) { c.APIKey = "" })

	err := client.Upload(context.Background(), "doc")
	assert.ErrorIs(t, err, core.ErrUploadNotConfigured)
}

func TestUploadCancelledContext(t *testing.T) {
	srv := newServer(t, http.StatusCreated, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newClient(t, srv.URL, nil).Upload(ctx, "doc")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEndpointEscapesProjectID(t *testing.T) {
	client := newClient(t, "https://dradis.example/pro/api", func(c *core.UploadConfig) { c.ProjectID = "a b" })
	assert.Equal(t, "https://dradis.example/pro/api/projects/a%20b/findings", client.Endpoint())
}
