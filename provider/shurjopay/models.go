package shurjopay

// SuccessCode is the sp_code of a successful payment
const SuccessCode = 1000

// CheckoutRequest is the body of a secret-pay call. Token and StoreID are
// overwritten from the active credential by Client.Checkout.
type CheckoutRequest struct {
	Prefix           string  `json:"prefix"`
	Token            string  `json:"token"`
	ReturnURL        string  `json:"return_url"`
	CancelURL        string  `json:"cancel_url"`
	StoreID          int     `json:"store_id,string"`
	Amount           float64 `json:"amount,string"`
	OrderID          string  `json:"order_id"`
	Currency         string  `json:"currency"`
	CustomerName     string  `json:"customer_name"`
	CustomerAddress  string  `json:"customer_address"`
	CustomerPhone    string  `json:"customer_phone"`
	CustomerCity     string  `json:"customer_city"`
	CustomerPostCode string  `json:"customer_post_code"`
	ClientIP         string  `json:"client_ip"`

	CustomerEmail   string `json:"customer_email,omitempty"`
	CustomerState   string `json:"customer_state,omitempty"`
	CustomerCountry string `json:"customer_country,omitempty"`
	ShippingAddress string `json:"shipping_address,omitempty"`
	ShippingCity    string `json:"shipping_city,omitempty"`
	ShippingCountry string `json:"shipping_country,omitempty"`
	ReceivedPerson  string `json:"received_person_name,omitempty"`
	ShippingPhone   string `json:"shipping_phone_number,omitempty"`
	Value1          string `json:"value1,omitempty"`
	Value2          string `json:"value2,omitempty"`
	Value3          string `json:"value3,omitempty"`
	Value4          string `json:"value4,omitempty"`
}

// CheckoutResponse is the success payload of secret-pay
type CheckoutResponse struct {
	CheckoutURL       string    `json:"checkout_url" validate:"required"`
	Amount            FlexFloat `json:"amount"`
	Currency          string    `json:"currency"`
	SPOrderID         string    `json:"sp_order_id" validate:"required"`
	CustomerOrderID   string    `json:"customer_order_id"`
	CustomerName      string    `json:"customer_name"`
	CustomerAddress   string    `json:"customer_address"`
	CustomerCity      string    `json:"customer_city"`
	CustomerPhone     string    `json:"customer_phone"`
	CustomerEmail     *string   `json:"customer_email"`
	ClientIP          string    `json:"client_ip"`
	Intent            string    `json:"intent"`
	TransactionStatus string    `json:"transactionStatus"`
}

// VerifyResponse is the success payload of verification and payment-status.
// Pointer fields may be null on the wire.
type VerifyResponse struct {
	ID                FlexInt    `json:"id"`
	OrderID           string     `json:"order_id" validate:"required"`
	Currency          string     `json:"currency"`
	Amount            FlexFloat  `json:"amount"`
	PayableAmount     FlexFloat  `json:"payable_amount"`
	DiscountAmount    *FlexFloat `json:"discsount_amount"`
	DiscPercent       FlexFloat  `json:"disc_percent"`
	ReceivedAmount    FlexFloat  `json:"received_amount"`
	USDAmount         FlexFloat  `json:"usd_amt"`
	USDRate           FlexFloat  `json:"usd_rate"`
	CardHolderName    *string    `json:"card_holder_name"`
	CardNumber        *string    `json:"card_number"`
	PhoneNo           string     `json:"phone_no"`
	BankTrxID         string     `json:"bank_trx_id"`
	InvoiceNo         string     `json:"invoice_no"`
	BankStatus        string     `json:"bank_status"`
	CustomerOrderID   string     `json:"customer_order_id"`
	SPCode            FlexInt    `json:"sp_code"`
	SPMessage         string     `json:"sp_message"`
	Name              string     `json:"name"`
	Email             *string    `json:"email"`
	Address           string     `json:"address"`
	City              string     `json:"city"`
	Value1            *string    `json:"value1"`
	Value2            *string    `json:"value2"`
	Value3            *string    `json:"value3"`
	Value4            *string    `json:"value4"`
	TransactionStatus *string    `json:"transaction_status"`
	Method            *string    `json:"method"`
	DateTime          string     `json:"date_time"`
}

// IsSuccessful reports whether the gateway settled the payment
func (v VerifyResponse) IsSuccessful() bool {
	return int(v.SPCode) == SuccessCode
}

// PaymentDetails is the merchant side of a checkout; NewPaymentRequest fills
// in the gateway plumbing.
type PaymentDetails struct {
	Amount           float64 `json:"amount" validate:"required,gt=0"`
	OrderID          string  `json:"order_id,omitempty" validate:"omitempty,max=64"`
	Currency         string  `json:"currency" validate:"required,len=3"`
	CustomerName     string  `json:"customer_name" validate:"required"`
	CustomerAddress  string  `json:"customer_address" validate:"required"`
	CustomerPhone    string  `json:"customer_phone" validate:"required"`
	CustomerCity     string  `json:"customer_city" validate:"required"`
	CustomerPostCode string  `json:"customer_post_code"`
	CustomerEmail    string  `json:"customer_email,omitempty" validate:"omitempty,email"`
	ClientIP         string  `json:"client_ip,omitempty" validate:"omitempty,ip"`
	Value1           string  `json:"value1,omitempty"`
	Value2           string  `json:"value2,omitempty"`
	Value3           string  `json:"value3,omitempty"`
	Value4           string  `json:"value4,omitempty"`
}

type tokenPayload struct {
	Token           string  `json:"token" validate:"required"`
	StoreID         FlexInt `json:"store_id"`
	ExecuteURL      string  `json:"execute_url"`
	TokenType       string  `json:"token_type" validate:"required"`
	SPCode          FlexInt `json:"sp_code"`
	Message         string  `json:"message"`
	TokenCreateTime string  `json:"token_create_time"`
	ExpiresIn       FlexInt `json:"expires_in"`
}

func (p tokenPayload) credential() Credential {
	return Credential{
		Token:      p.Token,
		TokenType:  p.TokenType,
		StoreID:    int(p.StoreID),
		ExecuteURL: p.ExecuteURL,
		CreatedAt:  p.TokenCreateTime,
		ExpiresIn:  int64(p.ExpiresIn),
	}
}

type orderQuery struct {
	OrderID string `json:"order_id"`
}
