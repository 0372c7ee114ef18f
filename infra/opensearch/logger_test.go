package opensearch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstgnz/shurjopay/provider"
)

func TestLogger_Record(t *testing.T) {
	cluster, server := newFakeCluster(t)
	client, err := NewClient(testAppConfig(server.URL, true))
	require.NoError(t, err)
	logger := NewLogger(client)

	err = logger.Record(context.Background(), provider.Exchange{
		Provider:   "shurjopay",
		Operation:  "verify",
		OrderID:    "SP6350df3a5a8b9",
		StatusCode: 200,
		Outcome:    provider.OutcomeFailure,
		Error:      "Please check your order id",
		Duration:   120 * time.Millisecond,
	})
	require.NoError(t, err)

	docs := cluster.documents(ExchangeIndex)
	require.Len(t, docs, 1)
	assert.Equal(t, "verify", docs[0]["operation"])
	assert.Equal(t, "SP6350df3a5a8b9", docs[0]["order_id"])
	assert.Equal(t, "failure", docs[0]["outcome"])
	assert.NotEmpty(t, docs[0]["request_id"], "request id is generated")
	assert.NotEmpty(t, docs[0]["timestamp"], "timestamp is filled in")
}

func TestLogger_RecordDisabled(t *testing.T) {
	cluster, server := newFakeCluster(t)
	client, err := NewClient(testAppConfig(server.URL, false))
	require.NoError(t, err)

	require.NoError(t, NewLogger(client).Record(context.Background(), provider.Exchange{Operation: "token"}))
	assert.Empty(t, cluster.documents(ExchangeIndex))
}

func TestLogger_RecordError(t *testing.T) {
	cluster, server := newFakeCluster(t)
	client, err := NewClient(testAppConfig(server.URL, true))
	require.NoError(t, err)

	cluster.mu.Lock()
	cluster.failDocs = true
	cluster.mu.Unlock()

	err = NewLogger(client).Record(context.Background(), provider.Exchange{Operation: "token"})
	assert.Error(t, err)
}

func TestLogger_LogSystemEvent(t *testing.T) {
	cluster, server := newFakeCluster(t)
	client, err := NewClient(testAppConfig(server.URL, true))
	require.NoError(t, err)

	entry := map[string]any{"level": "info", "message": "shurjopay: token acquired"}
	require.NoError(t, NewLogger(client).LogSystemEvent(context.Background(), entry))

	docs := cluster.documents(SystemLogIndex)
	require.Len(t, docs, 1)
	assert.Equal(t, "shurjopay: token acquired", docs[0]["message"])
}

func TestLogger_ExchangesByOrderID(t *testing.T) {
	cluster, server := newFakeCluster(t)
	client, err := NewClient(testAppConfig(server.URL, true))
	require.NoError(t, err)

	cluster.mu.Lock()
	cluster.hits = `{"hits":{"hits":[
		{"_source":{"request_id":"r2","operation":"verify","order_id":"SP1","outcome":"success"}},
		{"_source":{"request_id":"r1","operation":"checkout","order_id":"SP1","outcome":"success"}}
	]}}`
	cluster.mu.Unlock()

	exchanges, err := NewLogger(client).ExchangesByOrderID(context.Background(), "SP1")
	require.NoError(t, err)
	require.Len(t, exchanges, 2)
	assert.Equal(t, "r2", exchanges[0].RequestID)
	assert.Equal(t, "checkout", exchanges[1].Operation)

	cluster.mu.Lock()
	defer cluster.mu.Unlock()
	require.Len(t, cluster.searches, 1)
	assert.Equal(t, float64(100), cluster.searches[0]["size"])
	assert.Contains(t, cluster.searches[0], "query")
}

func TestLogger_RecentFailures(t *testing.T) {
	cluster, server := newFakeCluster(t)
	client, err := NewClient(testAppConfig(server.URL, true))
	require.NoError(t, err)

	exchanges, err := NewLogger(client).RecentFailures(context.Background(), 24)
	require.NoError(t, err)
	assert.Empty(t, exchanges)

	cluster.mu.Lock()
	defer cluster.mu.Unlock()
	require.Len(t, cluster.searches, 1)
	query := cluster.searches[0]["query"].(map[string]any)
	assert.Contains(t, query, "bool")
}

func TestLogger_SearchDisabled(t *testing.T) {
	_, server := newFakeCluster(t)
	client, err := NewClient(testAppConfig(server.URL, false))
	require.NoError(t, err)

	_, err = NewLogger(client).SearchExchanges(context.Background(), map[string]any{"match_all": map[string]any{}}, 10)
	assert.Error(t, err)
}
