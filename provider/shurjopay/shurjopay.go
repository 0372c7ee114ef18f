package shurjopay

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mstgnz/shurjopay/infra/logger"
	"github.com/mstgnz/shurjopay/provider"
)

const providerName = "shurjopay"

// Operation names used in errors, logs and recorded exchanges
const (
	OpToken         = "token"
	OpCheckout      = "checkout"
	OpVerify        = "verify"
	OpPaymentStatus = "payment_status"
)

// Option configures a Client
type Option func(*Client)

// WithSender replaces the default net/http transport
func WithSender(sender provider.Sender) Option {
	return func(c *Client) {
		c.sender = sender
	}
}

// WithRecorder records every gateway exchange. Recording errors are logged
// and never fail the operation.
func WithRecorder(recorder provider.ExchangeRecorder) Option {
	return func(c *Client) {
		c.recorder = recorder
	}
}

// WithClock replaces time.Now for token validity and exchange timing
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// Client talks to one ShurjoPay merchant account. It is safe for concurrent use.
type Client struct {
	config   Config
	sender   provider.Sender
	recorder provider.ExchangeRecorder
	tokens   *TokenManager
	now      func() time.Time

	mu           sync.RWMutex
	lastCheckout *CheckoutResponse
}

// NewClient validates cfg and creates a client
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		config: cfg,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.sender == nil {
		c.sender = provider.NewProviderHTTPClient(provider.CreateHTTPClientConfig(cfg.BaseURL, cfg.Timeout))
	}

	c.tokens = NewTokenManager(c.acquireToken,
		WithServerOffset(cfg.ServerUTCOffset),
		WithTokenClock(c.now),
	)
	return c, nil
}

// Config returns a copy of the client configuration
func (c *Client) Config() Config {
	return c.config
}

// Tokens exposes the credential holder
func (c *Client) Tokens() *TokenManager {
	return c.tokens
}

// RequestToken acquires a fresh credential unconditionally and makes it the
// active one.
func (c *Client) RequestToken(ctx context.Context) (Credential, error) {
	return c.tokens.Refresh(ctx)
}

// EnsureValidToken returns a usable token, acquiring one only when needed
func (c *Client) EnsureValidToken(ctx context.Context) (string, error) {
	return c.tokens.EnsureValid(ctx)
}

// Checkout initiates a payment and returns the URL the customer must visit.
// The request's token and store id are replaced by the active credential's.
func (c *Client) Checkout(ctx context.Context, req CheckoutRequest) (string, error) {
	resp, err := c.CreateCheckout(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.CheckoutURL, nil
}

// CreateCheckout is Checkout returning the whole gateway response
func (c *Client) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResponse, error) {
	cred, err := c.tokens.Credential(ctx)
	if err != nil {
		return nil, err
	}
	req.Token = cred.Token
	req.StoreID = cred.StoreID

	result, err := send[CheckoutResponse](ctx, c, OpCheckout, c.config.Endpoints.SecretPay, cred.Authorization(), req.OrderID, req)
	if err != nil {
		return nil, err
	}
	if f, failed := result.Failure(); failed {
		return nil, c.declined(OpCheckout, req.OrderID, f)
	}

	resp, _ := result.Value()
	c.mu.Lock()
	last := resp
	c.lastCheckout = &last
	c.mu.Unlock()

	logger.Info("shurjopay: checkout created", logger.LogContext{
		Provider: providerName,
		Fields: map[string]any{
			"order_id":    req.OrderID,
			"sp_order_id": resp.SPOrderID,
			"amount":      req.Amount,
			"currency":    req.Currency,
		},
	})
	return &resp, nil
}

// Verify confirms a payment. An empty orderID means the sp_order_id of the
// last successful checkout.
func (c *Client) Verify(ctx context.Context, orderID string) (*VerifyResponse, error) {
	return c.query(ctx, OpVerify, c.config.Endpoints.Verification, orderID)
}

// CheckStatus reads the current state of a payment. An empty orderID means
// the sp_order_id of the last successful checkout.
func (c *Client) CheckStatus(ctx context.Context, orderID string) (*VerifyResponse, error) {
	return c.query(ctx, OpPaymentStatus, c.config.Endpoints.PaymentStatus, orderID)
}

// LastCheckout returns a copy of the most recent successful checkout response
func (c *Client) LastCheckout() (CheckoutResponse, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.lastCheckout == nil {
		return CheckoutResponse{}, false
	}
	return *c.lastCheckout, true
}

// NewPaymentRequest fills the gateway plumbing around merchant payment
// details. An order id is generated when none is given.
func (c *Client) NewPaymentRequest(details PaymentDetails) CheckoutRequest {
	orderID := details.OrderID
	if orderID == "" {
		orderID = c.config.Prefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	}
	clientIP := details.ClientIP
	if clientIP == "" {
		clientIP = c.config.ClientIP
	}

	return CheckoutRequest{
		Prefix:           c.config.Prefix,
		ReturnURL:        c.config.ReturnURL,
		CancelURL:        c.config.CancelURL,
		Amount:           details.Amount,
		OrderID:          orderID,
		Currency:         details.Currency,
		CustomerName:     details.CustomerName,
		CustomerAddress:  details.CustomerAddress,
		CustomerPhone:    details.CustomerPhone,
		CustomerCity:     details.CustomerCity,
		CustomerPostCode: details.CustomerPostCode,
		CustomerEmail:    details.CustomerEmail,
		ClientIP:         clientIP,
		Value1:           details.Value1,
		Value2:           details.Value2,
		Value3:           details.Value3,
		Value4:           details.Value4,
	}
}

func (c *Client) query(ctx context.Context, op, endpoint, orderID string) (*VerifyResponse, error) {
	if orderID == "" {
		if last, ok := c.LastCheckout(); ok {
			orderID = last.SPOrderID
		}
	}
	if orderID == "" {
		return nil, ErrMissingOrderID
	}

	cred, err := c.tokens.Credential(ctx)
	if err != nil {
		return nil, err
	}

	result, err := send[VerifyResponse](ctx, c, op, endpoint, cred.Authorization(), orderID, orderQuery{OrderID: orderID})
	if err != nil {
		return nil, err
	}
	if f, failed := result.Failure(); failed {
		return nil, c.declined(op, orderID, f)
	}

	resp, _ := result.Value()
	return &resp, nil
}

func (c *Client) acquireToken(ctx context.Context) (Credential, error) {
	body := map[string]string{
		"username": c.config.Username,
		"password": c.config.Password,
	}

	result, err := send[tokenPayload](ctx, c, OpToken, c.config.Endpoints.Token, "", "", body)
	if err != nil {
		var schemaErr *SchemaError
		if errors.As(err, &schemaErr) {
			return Credential{}, &AuthError{Kind: UnexpectedResponse, Err: schemaErr}
		}
		return Credential{}, err
	}
	if f, failed := result.Failure(); failed && result.FromHTTPStatus() {
		return Credential{}, &AuthError{
			Kind:    UnexpectedResponse,
			Code:    f.Code,
			Message: f.Message,
			Err:     errors.Errorf("gateway answered status %d: %s", f.Code, truncate(f.Message, 256)),
		}
	}
	if f, failed := result.Failure(); failed {
		logger.Warn("shurjopay: token request rejected", logger.LogContext{
			Provider: providerName,
			Fields:   map[string]any{"sp_code": f.Code, "message": f.Message, "username": c.config.Username},
		})
		return Credential{}, &AuthError{Kind: InvalidCredentials, Code: f.Code, Message: f.Message}
	}

	payload, _ := result.Value()
	cred := payload.credential()
	logger.Info("shurjopay: token acquired", logger.LogContext{
		Provider: providerName,
		Fields: map[string]any{
			"store_id":          cred.StoreID,
			"token_create_time": cred.CreatedAt,
			"expires_in":        cred.ExpiresIn,
		},
	})
	return cred, nil
}

func (c *Client) declined(op, orderID string, f Failure) error {
	logger.Warn("shurjopay: gateway declined request", logger.LogContext{
		Provider: providerName,
		Fields:   map[string]any{"operation": op, "order_id": orderID, "sp_code": f.Code, "message": f.Message},
	})
	return &DeclinedError{Op: op, Code: f.Code, Message: f.Message}
}

// send performs one exchange with the gateway and normalizes the response.
// It returns *TransportError or *SchemaError; gateway failures come back as
// a failed Result.
func send[T any](ctx context.Context, c *Client, op, endpoint, authorization, orderID string, payload any) (Result[T], error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Result[T]{}, errors.Wrapf(err, "shurjopay: failed to encode %s request", op)
	}

	headers := map[string]string{}
	if authorization != "" {
		headers["Authorization"] = authorization
	}

	url := provider.JoinURL(c.config.BaseURL, endpoint)
	exchange := provider.Exchange{
		RequestID:   uuid.NewString(),
		Provider:    providerName,
		Operation:   op,
		URL:         url,
		OrderID:     orderID,
		RequestBody: provider.MaskJSON(body),
		Timestamp:   c.now().UTC(),
	}

	started := c.now()
	resp, err := c.sender.SendJSON(ctx, &provider.HTTPRequest{
		Method:   http.MethodPost,
		Endpoint: url,
		Headers:  headers,
		Body:     body,
	})
	exchange.Duration = c.now().Sub(started)

	if err != nil {
		exchange.Outcome = provider.OutcomeTransportError
		exchange.Error = err.Error()
		c.record(ctx, exchange)
		logger.Error("shurjopay: gateway unreachable", err, logger.LogContext{
			Provider:  providerName,
			RequestID: exchange.RequestID,
			Fields:    map[string]any{"operation": op, "url": url},
		})
		return Result[T]{}, &TransportError{Op: op, Err: err}
	}

	exchange.StatusCode = resp.StatusCode
	exchange.ResponseBody = provider.MaskJSON(resp.Body)

	result, err := Normalize[T](resp.StatusCode, resp.Body)
	switch {
	case err != nil:
		exchange.Outcome = provider.OutcomeSchemaError
		exchange.Error = err.Error()
		logger.Error("shurjopay: unrecognised gateway response", err, logger.LogContext{
			Provider:  providerName,
			RequestID: exchange.RequestID,
			Fields: map[string]any{
				"operation": op,
				"status":    resp.StatusCode,
				"body":      exchange.ResponseBody,
			},
		})
	case result.IsSuccess():
		exchange.Outcome = provider.OutcomeSuccess
	default:
		f, _ := result.Failure()
		exchange.Outcome = provider.OutcomeFailure
		exchange.Error = f.Message
	}
	c.record(ctx, exchange)

	return result, err
}

func (c *Client) record(ctx context.Context, exchange provider.Exchange) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.Record(ctx, exchange); err != nil {
		logger.Warn("shurjopay: failed to record gateway exchange", logger.LogContext{
			Provider:  providerName,
			RequestID: exchange.RequestID,
			Fields:    map[string]any{"operation": exchange.Operation, "error": err.Error()},
		})
	}
}
