// Package backend provides the HTTP client for the remote grading service.
// It covers the full grading pipeline surface: answer-key upload, metadata
// assignment, student-script submission, evaluation triggering and result
// retrieval. Every call is a single round trip with no automatic retry;
// failures are logged here and returned to the caller.
package backend

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/examgrid/gradeflow/internal/config"
	"go.uber.org/zap"
)

const maxErrorBodyBytes = 2048

// Client talks to the grading backend over HTTP. It holds no mutable
// cross-call state; the backend owns all durable state.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a backend client from configuration. A zero request
// timeout leaves cancellation entirely to the caller's context.
func NewClient(cfg *config.BackendConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.RequestTimeoutDuration()},
		logger:     logger,
	}
}

// CheckBackendHealth reports backend liveness. It returns true only on a
// successful response and false on any failure, including transport errors.
// It never returns an error.
func (c *Client) CheckBackendHealth(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		c.logger.Warn("failed to build health request", zap.Error(err))
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("backend health check failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	healthy := resp.StatusCode >= 200 && resp.StatusCode < 300
	if !healthy {
		c.logger.Warn("backend health check returned non-success status",
			zap.Int("status", resp.StatusCode),
		)
	}
	return healthy
}

// postForm sends a form-urlencoded POST and returns the response body
func (c *Client) postForm(ctx context.Context, operation, path string, values url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path,
		strings.NewReader(values.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.do(operation, req)
}

// postMultipart sends a multipart POST whose body is assembled by build
func (c *Client) postMultipart(ctx context.Context, operation, path string, build func(w *multipart.Writer) error) ([]byte, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := build(writer); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.do(operation, req)
}

// get sends a GET with optional query parameters and returns the response body
func (c *Client) get(ctx context.Context, operation, path string, query url.Values) ([]byte, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	return c.do(operation, req)
}

// do executes the request and enforces the non-success policy: a response
// outside 2xx becomes an HTTPError enriched with the status and body text.
func (c *Client) do(operation string, req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("backend request failed",
			zap.String("operation", operation),
			zap.String("url", req.URL.String()),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		httpErr := newHTTPError(operation, resp)
		c.logger.Error("backend returned non-success status",
			zap.String("operation", operation),
			zap.Int("status", resp.StatusCode),
			zap.String("body", httpErr.Body),
		)
		return nil, httpErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("failed to read backend response",
			zap.String("operation", operation),
			zap.Error(err),
		)
		return nil, err
	}
	return body, nil
}
