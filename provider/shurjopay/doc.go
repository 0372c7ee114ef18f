// Package shurjopay is a client for the ShurjoPay payment gateway.
//
// A Client obtains a bearer token, creates checkouts and verifies payments:
//
//	client, err := shurjopay.NewClient(shurjopay.SandboxConfig())
//	if err != nil {
//	    log.Fatal(err)
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
//	// after the customer returns
//	result, err := client.Verify(ctx, "") // verifies the last checkout
//	if err == nil && result.IsSuccessful() {
//	    // settled
//	}
//
// # Tokens
//
// Tokens are acquired lazily and reused until they expire. The gateway
// reports token_create_time in its own wall clock (UTC+6 by default, see
// Config.ServerUTCOffset), so validity is checked against the current UTC
// time shifted by that offset. Concurrent callers share one acquisition.
//
// # Responses
//
// Gateway responses are either the expected payload or {sp_code, message},
// sometimes wrapped in a one element array. Normalize resolves both into a
// Result. Errors returned by the client are one of:
//
//   - *TransportError: the request did not complete
//   - *AuthError: token acquisition failed (ErrInvalidCredentials or ErrUnexpectedResponse)
//   - *DeclinedError: the gateway reported a failure
//   - *SchemaError: the response matched no known shape
//   - ErrMissingOrderID: nothing to verify
package shurjopay
