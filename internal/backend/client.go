package backend

// BACKEND CLIENT

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	ProtocolJSON = "json"
	ProtocolPath = "path"
)

// StatusError is returned by the path protocol when the backend answers
// with anything but 200. Its code is shown to the user.
type StatusError struct {
	Code   int
	Status string
	URL    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend: unexpected status %d from %s", e.Code, e.URL)
}

type Client struct {
	baseURL    string
	login      string
	password   string
	protocol   string
	httpClient *http.Client
	logger     *zap.Logger
}

type Option func(*Client)

// WithProtocol selects ProtocolJSON (default) or ProtocolPath.
func WithProtocol(protocol string) Option {
	return func(c *Client) {
		c.protocol = strings.ToLower(strings.TrimSpace(protocol))
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient builds a client for the backend endpoint. Credentials are sent
// as basic auth on every call.
func NewClient(baseURL, login, password string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("backend: base URL must not be empty")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("backend: invalid base URL: %w", err)
	}

	c := &Client{
		baseURL:    baseURL,
		login:      login,
		password:   password,
		protocol:   ProtocolJSON,
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	switch c.protocol {
	case ProtocolJSON, ProtocolPath:
	default:
		return nil, fmt.Errorf("backend: unknown protocol %q", c.protocol)
	}
	return c, nil
}

// Call performs one request. There is no retry: the caller reports a
// failure to the user and moves on.
func (c *Client) Call(ctx context.Context, req Request) (*Response, error) {
	const operation = "backend.Call"

	start := time.Now()
	var (
		resp *Response
		err  error
	)
	if c.protocol == ProtocolPath {
		resp, err = c.callPath(ctx, req)
	} else {
		resp, err = c.callJSON(ctx, req)
	}

	c.logger.Debug("Backend call finished",
		zap.String("command", req.Command),
		zap.String("user", req.User),
		zap.String("protocol", c.protocol),
		zap.Duration("took", time.Since(start)),
		zap.Bool("ok", err == nil))

	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", operation, req.Command, err)
	}
	return resp, nil
}

func (c *Client) callJSON(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.SetBasicAuth(c.login, c.password)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, httpResp.Body)
		return nil, fmt.Errorf("unexpected status: %d", httpResp.StatusCode)
	}

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var result Response
	if len(bytes.TrimSpace(raw)) == 0 {
		return &result, nil
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

func (c *Client) callPath(ctx context.Context, req Request) (*Response, error) {
	target := c.pathURL(req)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.SetBasicAuth(c.login, c.password)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, httpResp.Body)
		return nil, &StatusError{Code: httpResp.StatusCode, Status: httpResp.Status, URL: target}
	}

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &Response{Message: string(raw)}, nil
}

// pathURL builds <base>/<command>[/<argument>].
func (c *Client) pathURL(req Request) string {
	target := strings.TrimRight(c.baseURL, "/") + "/" + url.PathEscape(req.Command)
	if arg := req.Argument(); arg != "" {
		target += "/" + url.PathEscape(arg)
	}
	return target
}
