package opensearch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstgnz/shurjopay/infra/config"
)

// fakeCluster is a minimal OpenSearch stand-in
type fakeCluster struct {
	mu       sync.Mutex
	indices  map[string]bool
	docs     map[string][]map[string]any
	searches []map[string]any
	hits     string
	failDocs bool
}

func newFakeCluster(t *testing.T) (*fakeCluster, *httptest.Server) {
	fc := &fakeCluster{
		indices: map[string]bool{},
		docs:    map[string][]map[string]any{},
		hits:    `{"hits":{"hits":[]}}`,
	}
	server := httptest.NewServer(fc)
	t.Cleanup(server.Close)
	return fc, server
}

func (fc *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	path := strings.Trim(r.URL.Path, "/")
	parts := strings.Split(path, "/")

	switch {
	case path == "":
		_, _ = io.WriteString(w, `{"version":{"number":"2.11.0","distribution":"opensearch"},"tagline":"The OpenSearch Project: https://opensearch.org/"}`)
	case len(parts) == 1 && r.Method == http.MethodHead:
		if fc.indices[parts[0]] {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	case len(parts) == 1 && r.Method == http.MethodPut:
		fc.indices[parts[0]] = true
		_, _ = io.WriteString(w, `{"acknowledged":true}`)
	case len(parts) == 2 && parts[1] == "_doc":
		if fc.failDocs {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"error":"boom"}`)
			return
		}
		var doc map[string]any
		_ = json.NewDecoder(r.Body).Decode(&doc)
		fc.docs[parts[0]] = append(fc.docs[parts[0]], doc)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"result":"created"}`)
	case len(parts) == 2 && parts[1] == "_search":
		var query map[string]any
		_ = json.NewDecoder(r.Body).Decode(&query)
		fc.searches = append(fc.searches, query)
		_, _ = io.WriteString(w, fc.hits)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (fc *fakeCluster) documents(index string) []map[string]any {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return append([]map[string]any(nil), fc.docs[index]...)
}

func (fc *fakeCluster) hasIndex(index string) bool {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.indices[index]
}

func testAppConfig(url string, enabled bool) *config.AppConfig {
	return &config.AppConfig{
		OpenSearchURL: url,
		EnableLogging: enabled,
		Environment:   "test",
	}
}

func TestNewClient_CreatesIndices(t *testing.T) {
	cluster, server := newFakeCluster(t)

	client, err := NewClient(testAppConfig(server.URL, true))
	require.NoError(t, err)
	require.NotNil(t, client.GetClient())
	assert.True(t, client.IsEnabled())

	assert.True(t, cluster.hasIndex(ExchangeIndex))
	assert.True(t, cluster.hasIndex(SystemLogIndex))
}

func TestNewClient_Disabled(t *testing.T) {
	cluster, server := newFakeCluster(t)

	client, err := NewClient(testAppConfig(server.URL, false))
	require.NoError(t, err)
	assert.False(t, client.IsEnabled())
	assert.False(t, cluster.hasIndex(ExchangeIndex), "indices are not touched when logging is disabled")
}

func TestNewClient_WithAuth(t *testing.T) {
	_, server := newFakeCluster(t)

	cfg := testAppConfig(server.URL, false)
	cfg.OpenSearchUser = "admin"
	cfg.OpenSearchPass = "admin"

	client, err := NewClient(cfg)
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestMappingsAreValidJSON(t *testing.T) {
	for name, mapping := range map[string]string{"exchange": exchangeMapping, "system": systemLogMapping} {
		t.Run(name, func(t *testing.T) {
			var v map[string]any
			require.NoError(t, json.Unmarshal([]byte(mapping), &v))
			assert.Contains(t, v, "mappings")
		})
	}
}

func TestClient_Ping(t *testing.T) {
	_, server := newFakeCluster(t)
	client, err := NewClient(testAppConfig(server.URL, false))
	require.NoError(t, err)

	assert.NoError(t, client.Ping(context.Background()))

	server.Close()
	assert.Error(t, client.Ping(context.Background()))
}
