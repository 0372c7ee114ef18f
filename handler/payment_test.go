package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstgnz/shurjopay/infra/config"
	"github.com/mstgnz/shurjopay/infra/response"
	"github.com/mstgnz/shurjopay/provider/shurjopay"
)

type mockPaymentClient struct {
	checkoutFunc func(ctx context.Context, req shurjopay.CheckoutRequest) (*shurjopay.CheckoutResponse, error)
	verifyFunc   func(ctx context.Context, orderID string) (*shurjopay.VerifyResponse, error)
	statusFunc   func(ctx context.Context, orderID string) (*shurjopay.VerifyResponse, error)

	lastRequest  shurjopay.CheckoutRequest
	verifiedIDs  []string
	statusOrders []string
}

func (m *mockPaymentClient) NewPaymentRequest(details shurjopay.PaymentDetails) shurjopay.CheckoutRequest {
	orderID := details.OrderID
	if orderID == "" {
		orderID = "spgenerated01"
	}
	return shurjopay.CheckoutRequest{
		Prefix:       "sp",
		OrderID:      orderID,
		Amount:       details.Amount,
		Currency:     details.Currency,
		CustomerName: details.CustomerName,
		ClientIP:     details.ClientIP,
	}
}

func (m *mockPaymentClient) CreateCheckout(ctx context.Context, req shurjopay.CheckoutRequest) (*shurjopay.CheckoutResponse, error) {
	m.lastRequest = req
	if m.checkoutFunc != nil {
		return m.checkoutFunc(ctx, req)
	}
	return &shurjopay.CheckoutResponse{
		CheckoutURL:       "https://sandbox.shurjopayment.com/spaycheckout/?token=abc",
		SPOrderID:         "SP6350df3a5a8b9",
		TransactionStatus: "Initiated",
	}, nil
}

func (m *mockPaymentClient) Verify(ctx context.Context, orderID string) (*shurjopay.VerifyResponse, error) {
	m.verifiedIDs = append(m.verifiedIDs, orderID)
	if m.verifyFunc != nil {
		return m.verifyFunc(ctx, orderID)
	}
	return &shurjopay.VerifyResponse{OrderID: orderID, SPCode: 1000, SPMessage: "Success"}, nil
}

func (m *mockPaymentClient) CheckStatus(ctx context.Context, orderID string) (*shurjopay.VerifyResponse, error) {
	m.statusOrders = append(m.statusOrders, orderID)
	if m.statusFunc != nil {
		return m.statusFunc(ctx, orderID)
	}
	return &shurjopay.VerifyResponse{OrderID: orderID, SPCode: 1000}, nil
}

func newPaymentRouter(client PaymentClient) http.Handler {
	h := NewPaymentHandler(client, config.App().Validator)
	r := chi.NewRouter()
	r.Post("/v1/payments", h.CreatePayment)
	r.Get("/v1/payments/last/verify", h.VerifyLastPayment)
	r.Post("/v1/payments/{orderID}/verify", h.VerifyPayment)
	r.Get("/v1/payments/{orderID}", h.GetPaymentStatus)
	r.Get("/return", h.HandleReturn)
	r.Get("/cancel", h.HandleCancel)
	return r
}

func serve(t *testing.T, handler http.Handler, method, target, body string) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	var resp response.Response
	if strings.Contains(rr.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	}
	return rr, resp
}

const validPayment = `{
	"amount": 10,
	"order_id": "sp315689",
	"currency": "BDT",
	"customer_name": "Shakil Anwar",
	"customer_address": "Dhaka",
	"customer_phone": "01521308009",
	"customer_city": "Dhaka",
	"customer_post_code": "1212"
}`

func TestPaymentHandler_CreatePayment(t *testing.T) {
	client := &mockPaymentClient{}
	rr, resp := serve(t, newPaymentRouter(client), http.MethodPost, "/v1/payments", validPayment)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]any)
	assert.Equal(t, "https://sandbox.shurjopayment.com/spaycheckout/?token=abc", data["checkout_url"])
	assert.Equal(t, "SP6350df3a5a8b9", data["sp_order_id"])
	assert.Equal(t, "sp315689", data["order_id"])

	assert.Equal(t, 10.0, client.lastRequest.Amount)
	assert.Equal(t, "192.0.2.1", client.lastRequest.ClientIP, "client ip taken from the request")
}

func TestPaymentHandler_CreatePaymentRedirect(t *testing.T) {
	rr, _ := serve(t, newPaymentRouter(&mockPaymentClient{}), http.MethodPost, "/v1/payments?redirect=true", validPayment)

	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "https://sandbox.shurjopayment.com/spaycheckout/?token=abc", rr.Header().Get("Location"))
}

func TestPaymentHandler_CreatePaymentValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed_json", `{"amount":`},
		{"missing_amount", `{"currency":"BDT","customer_name":"A","customer_address":"B","customer_phone":"1","customer_city":"C"}`},
		{"bad_currency", `{"amount":10,"currency":"TAKA","customer_name":"A","customer_address":"B","customer_phone":"1","customer_city":"C"}`},
		{"bad_email", `{"amount":10,"currency":"BDT","customer_name":"A","customer_address":"B","customer_phone":"1","customer_city":"C","customer_email":"nope"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockPaymentClient{}
			rr, resp := serve(t, newPaymentRouter(client), http.MethodPost, "/v1/payments", tt.body)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.False(t, resp.Success)
			assert.Empty(t, client.lastRequest.OrderID, "gateway not called")
		})
	}
}

func TestPaymentHandler_CreatePaymentGatewayErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"declined", &shurjopay.DeclinedError{Op: shurjopay.OpCheckout, Code: 1068, Message: "Amount is required"}, http.StatusPaymentRequired},
		{"invalid_credentials", &shurjopay.AuthError{Kind: shurjopay.InvalidCredentials, Code: 1064}, http.StatusUnauthorized},
		{"unexpected_token_response", &shurjopay.AuthError{Kind: shurjopay.UnexpectedResponse}, http.StatusBadGateway},
		{"token_endpoint_outage", &shurjopay.AuthError{Kind: shurjopay.UnexpectedResponse, Code: http.StatusServiceUnavailable, Message: "Service Unavailable"}, http.StatusBadGateway},
		{"schema", &shurjopay.SchemaError{Status: 200, Body: "<html>"}, http.StatusBadGateway},
		{"transport", &shurjopay.TransportError{Op: shurjopay.OpCheckout, Err: errors.New("connection refused")}, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockPaymentClient{
				checkoutFunc: func(ctx context.Context, req shurjopay.CheckoutRequest) (*shurjopay.CheckoutResponse, error) {
					return nil, tt.err
				},
			}
			rr, resp := serve(t, newPaymentRouter(client), http.MethodPost, "/v1/payments", validPayment)

			assert.Equal(t, tt.expected, rr.Code)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.err.Error(), resp.Error)
		})
	}
}

func TestPaymentHandler_VerifyPayment(t *testing.T) {
	client := &mockPaymentClient{}
	rr, resp := serve(t, newPaymentRouter(client), http.MethodPost, "/v1/payments/SP6350df3a5a8b9/verify", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Payment verified", resp.Message)
	assert.Equal(t, []string{"SP6350df3a5a8b9"}, client.verifiedIDs)
}

func TestPaymentHandler_VerifyNotCompleted(t *testing.T) {
	client := &mockPaymentClient{
		verifyFunc: func(ctx context.Context, orderID string) (*shurjopay.VerifyResponse, error) {
			return &shurjopay.VerifyResponse{OrderID: orderID, SPCode: 1002, SPMessage: "Cancel"}, nil
		},
	}
	rr, resp := serve(t, newPaymentRouter(client), http.MethodPost, "/v1/payments/SP1/verify", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Payment not completed", resp.Message)
}

func TestPaymentHandler_VerifyLastPayment(t *testing.T) {
	client := &mockPaymentClient{}
	rr, _ := serve(t, newPaymentRouter(client), http.MethodGet, "/v1/payments/last/verify", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{""}, client.verifiedIDs, "empty order id defers to the last checkout")
}

func TestPaymentHandler_VerifyLastPaymentWithoutCheckout(t *testing.T) {
	client := &mockPaymentClient{
		verifyFunc: func(ctx context.Context, orderID string) (*shurjopay.VerifyResponse, error) {
			return nil, shurjopay.ErrMissingOrderID
		},
	}
	rr, resp := serve(t, newPaymentRouter(client), http.MethodGet, "/v1/payments/last/verify", "")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.False(t, resp.Success)
}

func TestPaymentHandler_GetPaymentStatus(t *testing.T) {
	client := &mockPaymentClient{}
	rr, resp := serve(t, newPaymentRouter(client), http.MethodGet, "/v1/payments/SP6350df3a5a8b9", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Payment status retrieved", resp.Message)
	assert.Equal(t, []string{"SP6350df3a5a8b9"}, client.statusOrders)
	assert.Empty(t, client.verifiedIDs)
}

func TestPaymentHandler_GetPaymentStatusDeclined(t *testing.T) {
	client := &mockPaymentClient{
		statusFunc: func(ctx context.Context, orderID string) (*shurjopay.VerifyResponse, error) {
			return nil, &shurjopay.DeclinedError{Op: shurjopay.OpPaymentStatus, Code: 1011, Message: "Please check your order id"}
		},
	}
	rr, _ := serve(t, newPaymentRouter(client), http.MethodGet, "/v1/payments/SPunknown", "")

	assert.Equal(t, http.StatusPaymentRequired, rr.Code)
}

func TestPaymentHandler_ReturnAndCancel(t *testing.T) {
	client := &mockPaymentClient{}
	router := newPaymentRouter(client)

	rr, resp := serve(t, router, http.MethodGet, "/return?order_id=SP1", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Payment verified", resp.Message)

	rr, resp = serve(t, router, http.MethodGet, "/cancel?order_id=SP2", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Payment cancelled", resp.Message)

	assert.Equal(t, []string{"SP1", "SP2"}, client.verifiedIDs)

	for _, target := range []string{"/return", "/cancel"} {
		rr, _ = serve(t, router, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)
	}
	assert.Len(t, client.verifiedIDs, 2, "no order id, no gateway call")
}

func TestStatusForError(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusForError(shurjopay.ErrMissingOrderID))
	assert.Equal(t, http.StatusGatewayTimeout, StatusForError(context.DeadlineExceeded))
	assert.Equal(t, http.StatusInternalServerError, StatusForError(errors.New("boom")))
	assert.Equal(t, http.StatusBadGateway, StatusForError(&shurjopay.TransportError{Op: "token", Err: context.Canceled}))
}
