package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"
)

// DefaultBaseURL is the Gemini REST API endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// DefaultTimeout bounds a single generateContent call. Image generation
// is slow; a minute and a half covers the observed worst case.
const DefaultTimeout = 90 * time.Second

// Sentinel errors for client operations.
var (
	// ErrMissingAPIKey is returned when no API key is configured.
	ErrMissingAPIKey = errors.New("gemini API key not configured")
	// ErrUpstream is returned when the provider rejects a request.
	ErrUpstream = errors.New("gemini request failed")
	// ErrTimeout is returned when a call exceeds its execution window.
	ErrTimeout = errors.New("gemini request timed out")
	// ErrUnavailable is returned when the provider cannot be reached.
	ErrUnavailable = errors.New("gemini unreachable")
)

// Client invokes the Gemini generateContent API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint. Used by tests to point the
// client at a stub server.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithTimeout overrides the per-call execution window.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient creates a client for the hosted API. The key comes from the
// caller; NewClientFromEnv reads GEMINI_API_KEY instead.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFromEnv creates a client keyed from the GEMINI_API_KEY
// environment variable. Returns ErrMissingAPIKey when it is unset.
func NewClientFromEnv(opts ...Option) (*Client, error) {
	key := os.Getenv("GEMINI_API_KEY")
	if key == "" {
		return nil, ErrMissingAPIKey
	}
	return NewClient(key, opts...), nil
}

// Configured reports whether the client has an API key.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// GenerateContent POSTs a multi-turn request to the given model and
// returns the decoded response. Transport and provider failures are
// classified into the package sentinel errors; the provider's own
// message is preserved in the error chain for diagnostics.
func (c *Client) GenerateContent(ctx context.Context, model string, req *GenerateRequest) (*GenerateResponse, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.classifyError(err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		var envelope apiError
		if jsonErr := json.Unmarshal(respBody, &envelope); jsonErr == nil && envelope.Error.Message != "" {
			return nil, fmt.Errorf("%w: %s (status %d)", ErrUpstream, envelope.Error.Message, httpResp.StatusCode)
		}
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, httpResp.StatusCode)
	}

	var resp GenerateResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &resp, nil
}

// classifyError maps transport failures onto sentinel errors.
func (c *Client) classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
