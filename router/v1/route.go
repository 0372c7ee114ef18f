package v1

import (
	"github.com/go-chi/chi/v5"

	"github.com/mstgnz/shurjopay/handler"
)

// Handlers groups the handlers served under /v1. Exchanges may be nil when
// no exchange store is configured.
type Handlers struct {
	Payments  *handler.PaymentHandler
	Exchanges *handler.ExchangesHandler
}

// Routes registers all API routes
func Routes(r chi.Router, h Handlers) {
	r.Route("/payments", func(r chi.Router) {
		r.Post("/", h.Payments.CreatePayment)
		r.Get("/last/verify", h.Payments.VerifyLastPayment)
		r.Get("/{orderID}", h.Payments.GetPaymentStatus)
		r.Post("/{orderID}/verify", h.Payments.VerifyPayment)
	})

	if h.Exchanges != nil {
		r.Route("/exchanges", func(r chi.Router) {
			r.Get("/", h.Exchanges.ListRecent)
			r.Get("/failures", h.Exchanges.ListFailures)
			r.Get("/{orderID}", h.Exchanges.ListByOrder)
		})
	}
}
