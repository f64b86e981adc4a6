package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	verifier "github.com/microai-paygate/verifier"
	"github.com/microai-paygate/verifier/encoding"
	"github.com/microai-paygate/verifier/http/internal/helpers"
	"github.com/microai-paygate/verifier/retry"
)

var (
	// ErrVerifierUnavailable indicates the remote verifier could not be reached
	// or kept answering with 5xx.
	ErrVerifierUnavailable = errors.New("http: verifier unavailable")

	// ErrUnexpectedStatus indicates a status the verify endpoint never sends.
	ErrUnexpectedStatus = errors.New("http: unexpected status")
)

// Client calls a remote verifier service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	retry      retry.Config
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client) error

// NewClient creates a Client for the verifier at baseURL.
//
// Example usage:
//
//	client, err := http.NewClient("http://localhost:3002",
//	    http.WithTimeout(5*time.Second),
//	)
//	result, err := client.Verify(ctx, "trace-1", req)
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("http: base URL is required")
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		timeout:    5 * time.Second,
		retry:      retry.DefaultConfig,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// WithHTTPClient sets the underlying http.Client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) error {
		if httpClient == nil {
			return fmt.Errorf("http: nil http client")
		}
		c.httpClient = httpClient
		return nil
	}
}

// WithTimeout bounds each attempt. Zero disables the per-attempt timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) error {
		c.timeout = d
		return nil
	}
}

// WithRetry replaces the retry policy for transport errors and 5xx answers.
func WithRetry(config retry.Config) ClientOption {
	return func(c *Client) error {
		if err := config.Validate(); err != nil {
			return err
		}
		c.retry = config
		return nil
	}
}

// WithClientLogger sets the logger used to report retries.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) error {
		if logger != nil {
			c.logger = logger
		}
		return nil
	}
}

// VerifyResult is a decoded /verify answer. Status is 200 for a completed
// verification (valid or not) and 400 for a rejected request.
type VerifyResult struct {
	Status        int
	CorrelationID string
	Response      verifier.VerifyResponse
}

// Verify posts req to /verify. An empty correlationID sends no header.
func (c *Client) Verify(ctx context.Context, correlationID string, req verifier.VerifyRequest) (*VerifyResult, error) {
	body, err := encoding.MarshalVerifyRequest(req)
	if err != nil {
		return nil, err
	}

	config := c.retry
	config.OnRetry = func(attempt int, err error, delay time.Duration) {
		c.logger.WarnContext(ctx, "verify attempt failed, retrying",
			"attempt", attempt,
			"delay", delay,
			"correlation_id", correlationID,
			"error", err,
		)
	}

	return retry.Do(ctx, config, retry.IsTransient, func(ctx context.Context, attempt int) (*VerifyResult, error) {
		return c.verifyOnce(ctx, correlationID, body)
	})
}

func (c *Client) verifyOnce(ctx context.Context, correlationID string, body []byte) (*VerifyResult, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/verify", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if correlationID != "" {
		httpReq.Header.Set(helpers.CorrelationIDHeader, correlationID)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, retry.Transient(fmt.Errorf("%w: %v", ErrVerifierUnavailable, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, retry.Transient(fmt.Errorf("%w: status %d", ErrVerifierUnavailable, resp.StatusCode))
	case resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusBadRequest:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	decoded, err := encoding.DecodeVerifyResponse(resp.Body)
	if err != nil {
		return nil, err
	}
	return &VerifyResult{
		Status:        resp.StatusCode,
		CorrelationID: resp.Header.Get(helpers.CorrelationIDHeader),
		Response:      decoded,
	}, nil
}

// Health checks GET /health.
func (c *Client) Health(ctx context.Context) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVerifierUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrVerifierUnavailable, resp.StatusCode)
	}
	return nil
}
