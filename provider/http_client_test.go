package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoServer answers with the given status and echoes the request back as JSON
func echoServer(t *testing.T, status int) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"method":        r.Method,
			"path":          r.URL.Path,
			"body":          string(body),
			"content_type":  r.Header.Get("Content-Type"),
			"authorization": r.Header.Get("Authorization"),
			"user_agent":    r.Header.Get("User-Agent"),
		})
	}))
	t.Cleanup(server.Close)
	return server
}

type echoed struct {
	Method        string `json:"method"`
	Path          string `json:"path"`
	Body          string `json:"body"`
	ContentType   string `json:"content_type"`
	Authorization string `json:"authorization"`
	UserAgent     string `json:"user_agent"`
}

func senders(baseURL string) map[string]Sender {
	return map[string]Sender{
		"net_http": NewProviderHTTPClient(CreateHTTPClientConfig(baseURL, 2*time.Second)),
		"fasthttp": NewFastHTTPClient(CreateHTTPClientConfig(baseURL, 2*time.Second)),
	}
}

func TestSender_SendJSON(t *testing.T) {
	server := echoServer(t, http.StatusOK)

	for name, sender := range senders(server.URL) {
		t.Run(name, func(t *testing.T) {
			resp, err := sender.SendJSON(context.Background(), &HTTPRequest{
				Endpoint: "/api/get_token",
				Headers:  map[string]string{"Authorization": "Bearer abc"},
				Body:     map[string]string{"username": "sp_sandbox"},
			})
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, string(resp.Body), resp.RawBody)

			var got echoed
			require.NoError(t, json.Unmarshal(resp.Body, &got))
			assert.Equal(t, http.MethodPost, got.Method)
			assert.Equal(t, "/api/get_token", got.Path)
			assert.JSONEq(t, `{"username":"sp_sandbox"}`, got.Body)
			assert.Equal(t, "application/json", got.ContentType)
			assert.Equal(t, "Bearer abc", got.Authorization)
			assert.Equal(t, "shurjopay-go/1.0", got.UserAgent)
		})
	}
}

func TestSender_NonSuccessStatusIsNotAnError(t *testing.T) {
	server := echoServer(t, http.StatusUnauthorized)

	for name, sender := range senders(server.URL) {
		t.Run(name, func(t *testing.T) {
			resp, err := sender.SendJSON(context.Background(), &HTTPRequest{Endpoint: "verification"})
			require.NoError(t, err)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.NotEmpty(t, resp.Body)
		})
	}
}

func TestSender_RawBodiesSentVerbatim(t *testing.T) {
	server := echoServer(t, http.StatusOK)

	for name, sender := range senders(server.URL) {
		t.Run(name, func(t *testing.T) {
			resp, err := sender.SendJSON(context.Background(), &HTTPRequest{
				Endpoint: server.URL + "/absolute",
				Body:     []byte(`{"order_id":"sp1"}`),
			})
			require.NoError(t, err)

			var got echoed
			require.NoError(t, json.Unmarshal(resp.Body, &got))
			assert.Equal(t, "/absolute", got.Path)
			assert.Equal(t, `{"order_id":"sp1"}`, got.Body)
		})
	}
}

func TestSender_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	for name, sender := range senders(baseURL) {
		t.Run(name, func(t *testing.T) {
			resp, err := sender.SendJSON(context.Background(), &HTTPRequest{Endpoint: "/api/get_token"})
			assert.Error(t, err)
			assert.Nil(t, resp)
		})
	}
}

func TestSender_RespectsContextDeadline(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()
	defer close(block)

	for name, sender := range senders(server.URL) {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			started := time.Now()
			_, err := sender.SendJSON(ctx, &HTTPRequest{Endpoint: "/slow"})
			assert.Error(t, err)
			assert.Less(t, time.Since(started), time.Second)
		})
	}
}

func TestFastHTTPClient_CancelledContext(t *testing.T) {
	server := echoServer(t, http.StatusOK)
	sender := NewFastHTTPClient(CreateHTTPClientConfig(server.URL, time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sender.SendJSON(ctx, &HTTPRequest{Endpoint: "/api/get_token"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJoinURL(t *testing.T) {
	tests := []struct {
		base     string
		endpoint string
		expected string
	}{
		{"https://sandbox.shurjopayment.com", "/api/get_token", "https://sandbox.shurjopayment.com/api/get_token"},
		{"https://sandbox.shurjopayment.com/", "/api/get_token", "https://sandbox.shurjopayment.com/api/get_token"},
		{"https://sandbox.shurjopayment.com", "api/get_token", "https://sandbox.shurjopayment.com/api/get_token"},
		{"https://sandbox.shurjopayment.com/", "api/get_token", "https://sandbox.shurjopayment.com/api/get_token"},
	}

	for _, tt := range tests {
		t.Run(tt.base+"|"+tt.endpoint, func(t *testing.T) {
			assert.Equal(t, tt.expected, JoinURL(tt.base, tt.endpoint))
		})
	}
}

func TestCreateHTTPClientConfig(t *testing.T) {
	config := CreateHTTPClientConfig("https://sandbox.shurjopayment.com", 0)

	assert.Equal(t, "https://sandbox.shurjopayment.com", config.BaseURL)
	assert.Equal(t, DefaultTimeout, config.Timeout)
	assert.Equal(t, "application/json", config.DefaultHeaders["Accept"])
}
