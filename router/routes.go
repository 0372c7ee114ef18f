package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mstgnz/shurjopay/handler"
	"github.com/mstgnz/shurjopay/infra/response"
	v1 "github.com/mstgnz/shurjopay/router/v1"
)

// Routes registers the public landing pages, the health check and the /v1 API
func Routes(r chi.Router, api v1.Handlers, health *handler.HealthHandler) {
	r.Get("/health", health.CheckHealth)

	// Gateway redirects land here
	r.Get("/return", api.Payments.HandleReturn)
	r.Get("/cancel", api.Payments.HandleCancel)

	r.Route("/v1", func(r chi.Router) {
		v1.Routes(r, api)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotFound, "Not Found", nil)
	})
}
