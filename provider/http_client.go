package provider

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
)

// DefaultTimeout bounds a single gateway round trip when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// HTTPClientConfig represents configuration for HTTP client
type HTTPClientConfig struct {
	BaseURL        string
	Timeout        time.Duration
	DefaultHeaders map[string]string
}

// HTTPRequest represents a standardized HTTP request
type HTTPRequest struct {
	Method   string
	Endpoint string
	Headers  map[string]string
	// Body is sent verbatim when it is a []byte or json.RawMessage and JSON encoded otherwise.
	Body any
}

// HTTPResponse represents a standardized HTTP response
type HTTPResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	RawBody    string
}

// Sender executes a JSON request against the gateway. A non-2xx status is
// not an error; only a round trip that could not complete is.
type Sender interface {
	SendJSON(ctx context.Context, req *HTTPRequest) (*HTTPResponse, error)
}

// ProviderHTTPClient provides standardized HTTP operations on top of net/http
type ProviderHTTPClient struct {
	config *HTTPClientConfig
	client *http.Client
}

// NewProviderHTTPClient creates a new provider HTTP client
func NewProviderHTTPClient(config *HTTPClientConfig) *ProviderHTTPClient {
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	client := &http.Client{
		Timeout:   config.Timeout,
		Transport: http.DefaultTransport,
	}

	return &ProviderHTTPClient{
		config: config,
		client: client,
	}
}

// SendJSON sends a JSON request and returns the response
func (c *ProviderHTTPClient) SendJSON(ctx context.Context, req *HTTPRequest) (*HTTPResponse, error) {
	fullURL := c.buildURL(req.Endpoint)

	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	method := req.Method
	if method == "" {
		method = http.MethodPost
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, fullURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	for key, value := range c.config.DefaultHeaders {
		httpReq.Header.Set(key, value)
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &HTTPResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       respBody,
		RawBody:    string(respBody),
	}, nil
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	case string:
		return []byte(b), nil
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON body: %w", err)
	}
	return data, nil
}

// JoinURL concatenates base and endpoint with exactly one slash between them.
func JoinURL(base, endpoint string) string {
	if strings.HasSuffix(base, "/") && strings.HasPrefix(endpoint, "/") {
		return base + endpoint[1:]
	}
	if !strings.HasSuffix(base, "/") && !strings.HasPrefix(endpoint, "/") {
		return base + "/" + endpoint
	}
	return base + endpoint
}

// buildURL resolves endpoint against the configured base URL unless it is already absolute
func (c *ProviderHTTPClient) buildURL(endpoint string) string {
	return resolveURL(c.config.BaseURL, endpoint)
}

func resolveURL(base, endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		if u, err := url.Parse(endpoint); err == nil {
			return u.String()
		}
		return endpoint
	}
	if base == "" {
		return endpoint
	}
	return JoinURL(base, endpoint)
}

// CreateHTTPClientConfig creates a standard HTTP client configuration for the gateway
func CreateHTTPClientConfig(baseURL string, timeout time.Duration) *HTTPClientConfig {
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &HTTPClientConfig{
		BaseURL: baseURL,
		Timeout: timeout,
		DefaultHeaders: map[string]string{
			"Accept":     "application/json",
			"User-Agent": "shurjopay-go/1.0",
		},
	}
}
