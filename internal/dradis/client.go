// Package dradis uploads aggregated scan output to a Dradis findings API.
package dradis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dookofcrds/PenFramework/internal/core"

	"github.com/sirupsen/logrus"
)

const (
	DefaultTimeout = 10 * time.Second
	apiKeyHeader   = "api_key"
	maxBodyExcerpt = 4096
)

type Finding struct {
	Finding string `json:"finding"`
}

type Client struct {
	baseURL    string
	projectID  string
	apiKey     string
	timeout    time.Duration
	maxPayload int64
	httpClient *http.Client
	log        logrus.FieldLogger
}

type Option func(*Client)

// WithHTTPClient replaces the transport. The client timeout is still applied
// per request through the context.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(cfg core.UploadConfig, log logrus.FieldLogger, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		projectID:  cfg.ProjectID,
		apiKey:     cfg.APIKey,
		timeout:    cfg.Timeout,
		maxPayload: cfg.MaxPayloadBytes,
		httpClient: &http.Client{},
		log:        log,
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint is the findings collection of the configured project.
func (c *Client) Endpoint() string {
	return c.baseURL + "/projects/" + url.PathEscape(c.projectID) + "/findings"
}

// Upload sends the whole document in one POST. Only 201 Created counts as
// success; nothing is retried.
func (c *Client) Upload(ctx context.Context, document string) error {
	endpoint := c.Endpoint()
	if c.baseURL == "" || c.projectID == "" || c.apiKey == "" {
		return &core.UploadError{Endpoint: endpoint, Err: core.ErrUploadNotConfigured}
	}

	body, err := json.Marshal(Finding{Finding: document})
	if err != nil {
		return &core.UploadError{Endpoint: endpoint, Err: err}
	}
	if c.maxPayload > 0 && int64(len(body)) > c.maxPayload {
		return &core.UploadError{
			Endpoint: endpoint,
			Err:      fmt.Errorf("%w: %d > %d bytes", core.ErrPayloadTooLarge, len(body), c.maxPayload),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return &core.UploadError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)

	log := c.log.WithField("endpoint", endpoint)
	log.WithField("bytes", len(body)).Info("Uploading aggregated results")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return &core.UploadTimeoutError{Endpoint: endpoint, Timeout: c.timeout, Err: err}
		}
		return &core.UploadError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyExcerpt))
	if resp.StatusCode != http.StatusCreated {
		log.WithField("status", resp.StatusCode).Error("Upload rejected")
		return &core.UploadRejectedError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       string(excerpt),
		}
	}

	log.Info("Upload accepted")
	return nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
