// Package handler provides the HTTP surface of the ShurjoPay service.
//
//   - PaymentHandler starts checkouts and verifies payments through a
//     PaymentClient (normally *shurjopay.Client). It also serves the return
//     and cancel landing pages the gateway redirects customers to.
//   - ExchangesHandler reads the audit trail of gateway exchanges.
//   - HealthHandler reports the gateway session and backing stores.
//
// Gateway errors map onto status codes with StatusForError:
//
//	ErrMissingOrderID          400
//	*AuthError (credentials)   401
//	*DeclinedError             402
//	*SchemaError, *TransportError, other *AuthError  502
//	context.DeadlineExceeded   504
package handler
