// Package shurjopay is a ShurjoPay payment gateway client and a small HTTP
// service built on it.
//
// # Layout
//
//	provider/            transport (net/http and fasthttp Senders) and exchange recording
//	provider/shurjopay/  the gateway client: token management, response
//	                     normalization, checkout, verification and status
//	handler/, router/    the HTTP surface (chi)
//	infra/               config, logging (logrus), SQLite and OpenSearch recorders, middleware
//	cmd/                 the service entry point
//
// # Library use
//
//	client, err := shurjopay.NewClient(shurjopay.SandboxConfig())
//	if err != nil {
//	    return err
//	}
//
//	req := client.NewPaymentRequest(shurjopay.PaymentDetails{
//	    Amount:          10,
//	    Currency:        "BDT",
//	    CustomerName:    "Shakil Anwar",
//	    CustomerAddress: "Dhaka",
//	    CustomerPhone:   "01521308009",
//	    CustomerCity:    "Dhaka",
//	})
//	checkoutURL, err := client.Checkout(ctx, req)
//
//	// after the customer has paid
//	result, err := client.Verify(ctx, "") // "" verifies the last checkout
//	if err == nil && result.IsSuccessful() {
//	    // sp_code 1000
//	}
//
// The client fetches a bearer token on first use and again once the token
// has expired. Concurrent callers share a single token request.
//
// # Service
//
// cmd/main.go reads its settings from the environment (or a .env file):
//
//	SP_USERNAME, SP_PASSWORD, SHURJOPAY_API, SP_CALLBACK   gateway credentials and URLs
//	SP_TRANSPORT=fasthttp                                  use fasthttp instead of net/http
//	SQLITE_PATH                                            record exchanges to SQLite
//	ENABLE_OPENSEARCH_LOGGING, OPENSEARCH_URL              record exchanges and logs to OpenSearch
//
// Endpoints:
//
//	POST /v1/payments                  start a checkout (?redirect=true answers 302)
//	GET  /v1/payments/{orderID}        payment status
//	POST /v1/payments/{orderID}/verify verify a payment
//	GET  /v1/payments/last/verify      verify the last checkout
//	GET  /v1/exchanges[/{orderID}]     recorded gateway exchanges
//	GET  /return, /cancel              gateway redirect landing pages
//	GET  /health
package shurjopay
