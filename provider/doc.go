// Package provider holds the gateway-independent plumbing used by payment
// gateway clients: JSON transports and exchange recording.
//
// # Transports
//
// A Sender executes one JSON request and returns the raw response. A non-2xx
// status is returned as a response, not as an error; only a round trip that
// could not complete is an error. Two implementations are provided:
//
//   - ProviderHTTPClient: net/http with a per-request timeout
//   - FastHTTPClient: valyala/fasthttp with pooled connections
//
// Both resolve relative endpoints against HTTPClientConfig.BaseURL and send
// absolute URLs unchanged:
//
//	sender := provider.NewProviderHTTPClient(
//	    provider.CreateHTTPClientConfig("https://sandbox.shurjopayment.com", 30*time.Second),
//	)
//	resp, err := sender.SendJSON(ctx, &provider.HTTPRequest{
//	    Endpoint: "/api/get_token",
//	    Body:     map[string]string{"username": "...", "password": "..."},
//	})
//
// # Exchange Recording
//
// Every round trip with a gateway can be captured as an Exchange and handed
// to an ExchangeRecorder (SQLite and OpenSearch implementations live under
// infra). MultiRecorder fans out to several recorders. Bodies are passed
// through MaskJSON first so passwords and tokens are never persisted.
//
// # Thread Safety
//
// Senders and MultiRecorder are safe for concurrent use.
package provider
