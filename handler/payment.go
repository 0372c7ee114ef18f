package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mstgnz/shurjopay/infra/logger"
	"github.com/mstgnz/shurjopay/infra/middle"
	"github.com/mstgnz/shurjopay/infra/response"
	"github.com/mstgnz/shurjopay/provider/shurjopay"
)

const requestTimeout = 30 * time.Second

// PaymentClient is the part of *shurjopay.Client the HTTP surface uses
type PaymentClient interface {
	NewPaymentRequest(details shurjopay.PaymentDetails) shurjopay.CheckoutRequest
	CreateCheckout(ctx context.Context, req shurjopay.CheckoutRequest) (*shurjopay.CheckoutResponse, error)
	Verify(ctx context.Context, orderID string) (*shurjopay.VerifyResponse, error)
	CheckStatus(ctx context.Context, orderID string) (*shurjopay.VerifyResponse, error)
}

// PaymentHandler handles payment related HTTP requests
type PaymentHandler struct {
	client   PaymentClient
	validate *validator.Validate
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(client PaymentClient, validate *validator.Validate) *PaymentHandler {
	return &PaymentHandler{
		client:   client,
		validate: validate,
	}
}

// CheckoutResult is returned by CreatePayment
type CheckoutResult struct {
	CheckoutURL       string `json:"checkout_url"`
	SPOrderID         string `json:"sp_order_id"`
	OrderID           string `json:"order_id"`
	TransactionStatus string `json:"transaction_status,omitempty"`
}

// CreatePayment starts a checkout. With ?redirect=true the customer is sent
// straight to the gateway.
func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var details shurjopay.PaymentDetails
	if err := json.NewDecoder(r.Body).Decode(&details); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if details.ClientIP == "" {
		if ip := middle.GetClientIP(r); h.validate.Var(ip, "ip") == nil {
			details.ClientIP = ip
		}
	}

	if err := h.validate.Struct(details); err != nil {
		response.Error(w, http.StatusBadRequest, "Validation error", err)
		return
	}

	req := h.client.NewPaymentRequest(details)
	resp, err := h.client.CreateCheckout(ctx, req)
	if err != nil {
		h.gatewayError(w, r, "Checkout failed", err)
		return
	}

	if r.URL.Query().Get("redirect") == "true" {
		http.Redirect(w, r, resp.CheckoutURL, http.StatusFound)
		return
	}

	response.Success(w, http.StatusCreated, "Checkout created", CheckoutResult{
		CheckoutURL:       resp.CheckoutURL,
		SPOrderID:         resp.SPOrderID,
		OrderID:           req.OrderID,
		TransactionStatus: resp.TransactionStatus,
	})
}

// VerifyPayment confirms the payment named in the path
func (h *PaymentHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	h.verify(w, r, chi.URLParam(r, "orderID"))
}

// VerifyLastPayment verifies the most recent checkout made by this service
func (h *PaymentHandler) VerifyLastPayment(w http.ResponseWriter, r *http.Request) {
	h.verify(w, r, "")
}

// GetPaymentStatus reads the current state of a payment
func (h *PaymentHandler) GetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	resp, err := h.client.CheckStatus(ctx, chi.URLParam(r, "orderID"))
	if err != nil {
		h.gatewayError(w, r, "Failed to get payment status", err)
		return
	}

	response.Success(w, http.StatusOK, "Payment status retrieved", resp)
}

// HandleReturn is the landing page for the gateway's return redirect
func (h *PaymentHandler) HandleReturn(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("order_id")
	if orderID == "" {
		response.Error(w, http.StatusBadRequest, "Missing order_id", nil)
		return
	}
	h.verify(w, r, orderID)
}

// HandleCancel is the landing page for the gateway's cancel redirect. The
// order is still verified so the caller sees the gateway's final word.
func (h *PaymentHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	orderID := r.URL.Query().Get("order_id")
	if orderID == "" {
		response.Error(w, http.StatusBadRequest, "Missing order_id", nil)
		return
	}

	resp, err := h.client.Verify(ctx, orderID)
	if err != nil {
		h.gatewayError(w, r, "Payment cancelled", err)
		return
	}

	response.Success(w, http.StatusOK, "Payment cancelled", resp)
}

func (h *PaymentHandler) verify(w http.ResponseWriter, r *http.Request, orderID string) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	resp, err := h.client.Verify(ctx, orderID)
	if err != nil {
		h.gatewayError(w, r, "Verification failed", err)
		return
	}

	message := "Payment verified"
	if !resp.IsSuccessful() {
		message = "Payment not completed"
	}
	response.Success(w, http.StatusOK, message, resp)
}

func (h *PaymentHandler) gatewayError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := StatusForError(err)
	if status >= http.StatusInternalServerError {
		logger.Error(message, err, logger.LogContext{
			Provider:  "shurjopay",
			RequestID: middle.GetRequestID(r.Context()),
			Fields:    map[string]any{"path": r.URL.Path},
		})
	}
	response.Error(w, status, message, err)
}

// StatusForError maps client errors onto HTTP status codes
func StatusForError(err error) int {
	var (
		declined  *shurjopay.DeclinedError
		authErr   *shurjopay.AuthError
		schemaErr *shurjopay.SchemaError
		transport *shurjopay.TransportError
	)

	switch {
	case errors.Is(err, shurjopay.ErrMissingOrderID):
		return http.StatusBadRequest
	case errors.As(err, &declined):
		return http.StatusPaymentRequired
	case errors.As(err, &authErr):
		if authErr.Kind == shurjopay.InvalidCredentials {
			return http.StatusUnauthorized
		}
		return http.StatusBadGateway
	case errors.As(err, &schemaErr), errors.As(err, &transport):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
