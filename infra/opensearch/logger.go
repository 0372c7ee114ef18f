package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/mstgnz/shurjopay/provider"
)

// Logger indexes gateway exchanges and system logs
type Logger struct {
	client *Client
}

// NewLogger creates a new OpenSearch logger
func NewLogger(client *Client) *Logger {
	return &Logger{
		client: client,
	}
}

// Record indexes a gateway exchange. It satisfies provider.ExchangeRecorder.
func (l *Logger) Record(ctx context.Context, exchange provider.Exchange) error {
	if !l.client.IsEnabled() {
		return nil
	}

	if exchange.Timestamp.IsZero() {
		exchange.Timestamp = time.Now().UTC()
	}
	if exchange.RequestID == "" {
		exchange.RequestID = uuid.New().String()
	}

	return l.index(ctx, ExchangeIndex, exchange)
}

// LogSystemEvent indexes a system log entry
func (l *Logger) LogSystemEvent(ctx context.Context, entry any) error {
	if !l.client.IsEnabled() {
		return nil
	}
	return l.index(ctx, SystemLogIndex, entry)
}

func (l *Logger) index(ctx context.Context, indexName string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	req := opensearchapi.IndexRequest{
		Index: indexName,
		Body:  bytes.NewReader(body),
	}

	res, err := req.Do(ctx, l.client.GetClient())
	if err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("opensearch error: %s", res.String())
	}
	return nil
}

// SearchExchanges runs a query against the exchange index, newest first
func (l *Logger) SearchExchanges(ctx context.Context, query map[string]any, size int) ([]provider.Exchange, error) {
	if !l.client.IsEnabled() {
		return nil, fmt.Errorf("logging is disabled")
	}
	if size <= 0 {
		size = 100
	}

	searchQuery := map[string]any{
		"query": query,
		"sort": []map[string]any{
			{"timestamp": map[string]string{"order": "desc"}},
		},
		"size": size,
	}

	queryJSON, err := json.Marshal(searchQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	req := opensearchapi.SearchRequest{
		Index: []string{ExchangeIndex},
		Body:  bytes.NewReader(queryJSON),
	}

	res, err := req.Do(ctx, l.client.GetClient())
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("opensearch search error: %s", res.String())
	}

	var searchResult struct {
		Hits struct {
			Hits []struct {
				Source provider.Exchange `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&searchResult); err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}

	exchanges := make([]provider.Exchange, len(searchResult.Hits.Hits))
	for i, hit := range searchResult.Hits.Hits {
		exchanges[i] = hit.Source
	}
	return exchanges, nil
}

// ExchangesByOrderID returns every recorded exchange for an order
func (l *Logger) ExchangesByOrderID(ctx context.Context, orderID string) ([]provider.Exchange, error) {
	query := map[string]any{
		"term": map[string]any{
			"order_id": orderID,
		},
	}
	return l.SearchExchanges(ctx, query, 100)
}

// RecentFailures returns exchanges from the last hours that did not succeed
func (l *Logger) RecentFailures(ctx context.Context, hours int) ([]provider.Exchange, error) {
	query := map[string]any{
		"bool": map[string]any{
			"must": []map[string]any{
				{
					"range": map[string]any{
						"timestamp": map[string]any{
							"gte": fmt.Sprintf("now-%dh", hours),
						},
					},
				},
			},
			"must_not": []map[string]any{
				{
					"term": map[string]any{
						"outcome": string(provider.OutcomeSuccess),
					},
				},
			},
		},
	}
	return l.SearchExchanges(ctx, query, 100)
}
