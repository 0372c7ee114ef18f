package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
)

// FastHTTPClient is a Sender backed by fasthttp's pooled client.
type FastHTTPClient struct {
	config *HTTPClientConfig
	client *fasthttp.Client
}

// NewFastHTTPClient creates a fasthttp based sender
func NewFastHTTPClient(config *HTTPClientConfig) *FastHTTPClient {
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	return &FastHTTPClient{
		config: config,
		client: &fasthttp.Client{
			ReadTimeout:              config.Timeout,
			WriteTimeout:             config.Timeout,
			NoDefaultUserAgentHeader: true,
		},
	}
}

// SendJSON sends a JSON request and returns the response
func (c *FastHTTPClient) SendJSON(ctx context.Context, req *HTTPRequest) (*HTTPResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	freq := fasthttp.AcquireRequest()
	fresp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(freq)
	defer fasthttp.ReleaseResponse(fresp)

	method := req.Method
	if method == "" {
		method = http.MethodPost
	}

	freq.SetRequestURI(resolveURL(c.config.BaseURL, req.Endpoint))
	freq.Header.SetMethod(method)
	for key, value := range c.config.DefaultHeaders {
		freq.Header.Set(key, value)
	}
	for key, value := range req.Headers {
		freq.Header.Set(key, value)
	}
	freq.Header.SetContentType("application/json")
	freq.SetBody(body)

	deadline := time.Now().Add(c.config.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := c.client.DoDeadline(freq, fresp, deadline); err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	// fresp is recycled on return, so the body has to be copied out.
	respBody := append([]byte(nil), fresp.Body()...)
	headers := http.Header{}
	fresp.Header.VisitAll(func(key, value []byte) {
		headers.Add(string(key), string(value))
	})

	return &HTTPResponse{
		StatusCode: fresp.StatusCode(),
		Headers:    headers,
		Body:       respBody,
		RawBody:    string(respBody),
	}, nil
}
