package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/artpar/confsync/ports"
)

// StatusError is returned by Client when the authority answers with a
// non-success status.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("authority returned %d: %s", e.StatusCode, e.Message)
}

// IsDenied reports whether err is a permission denial from the authority.
func IsDenied(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusForbidden
}

// Client sends sync operations to an authority over HTTP.
type Client struct {
	client  *http.Client
	baseURL *url.URL
	token   string
}

// ClientConfig contains configuration for the client.
type ClientConfig struct {
	BaseURL         string
	Token           string // bearer token, optional
	Timeout         time.Duration
	MaxIdleConns    int
	IdleConnTimeout time.Duration
}

// NewClient creates a new authority client.
func NewClient(cfg ClientConfig) (*Client, error) {
	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if baseURL.Scheme != "http" && baseURL.Scheme != "https" {
		return nil, fmt.Errorf("parse base URL: unsupported scheme %q", baseURL.Scheme)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	maxIdleConns := cfg.MaxIdleConns
	if maxIdleConns == 0 {
		maxIdleConns = 4
	}

	idleConnTimeout := cfg.IdleConnTimeout
	if idleConnTimeout == 0 {
		idleConnTimeout = 90 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:        maxIdleConns,
		MaxIdleConnsPerHost: maxIdleConns,
		IdleConnTimeout:     idleConnTimeout,
	}

	return &Client{
		client:  &http.Client{Transport: transport, Timeout: timeout},
		baseURL: baseURL,
		token:   cfg.Token,
	}, nil
}

// Send posts one encoded operation and returns the encoded reply, empty
// when the authority had none.
func (c *Client) Send(ctx context.Context, data []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPost, "/v1/sync", data)
}

// Fetch returns the authority's encoded FullSync.
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	return c.do(ctx, http.MethodGet, "/v1/sync/full", nil)
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	target := c.baseURL.JoinPath(path)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set(ProtocolHeader, ProtocolVersion)
	if body != nil {
		req.Header.Set("Content-Type", ContentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMessageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(data) > maxMessageBytes {
		return nil, errors.New("read response: message too large")
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return data, nil
	case http.StatusNoContent:
		return nil, nil
	}
	return nil, &StatusError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
}

// Ensure interface compliance.
var _ ports.Transport = (*Client)(nil)
