package provider

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Outcome classifies how a gateway exchange ended
type Outcome string

const (
	OutcomeSuccess        Outcome = "success"
	OutcomeFailure        Outcome = "failure"
	OutcomeSchemaError    Outcome = "schema_error"
	OutcomeTransportError Outcome = "transport_error"
)

// Exchange is one request/response round trip with the gateway
type Exchange struct {
	RequestID    string        `json:"request_id"`
	Provider     string        `json:"provider"`
	Operation    string        `json:"operation"`
	URL          string        `json:"url"`
	OrderID      string        `json:"order_id,omitempty"`
	StatusCode   int           `json:"status_code"`
	RequestBody  string        `json:"request_body,omitempty"`
	ResponseBody string        `json:"response_body,omitempty"`
	Outcome      Outcome       `json:"outcome"`
	Error        string        `json:"error,omitempty"`
	Duration     time.Duration `json:"duration"`
	Timestamp    time.Time     `json:"timestamp"`
}

// ExchangeRecorder persists gateway exchanges for auditing
type ExchangeRecorder interface {
	Record(ctx context.Context, exchange Exchange) error
}

// MultiRecorder fans an exchange out to several recorders
type MultiRecorder []ExchangeRecorder

// Record forwards the exchange to every recorder and joins their errors
func (m MultiRecorder) Record(ctx context.Context, exchange Exchange) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Record(ctx, exchange); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// secretKeys are masked by MaskJSON
var secretKeys = map[string]bool{
	"password": true,
	"token":    true,
}

// MaskJSON replaces the values of secret keys in a JSON object (or an array of
// objects) with "***". Bodies that are not JSON are returned unchanged.
func MaskJSON(body []byte) string {
	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		return string(body)
	}
	masked, err := json.Marshal(maskValue(value))
	if err != nil {
		return string(body)
	}
	return string(masked)
}

func maskValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		for key, inner := range v {
			if secretKeys[key] {
				v[key] = "***"
				continue
			}
			v[key] = maskValue(inner)
		}
		return v
	case []any:
		for i := range v {
			v[i] = maskValue(v[i])
		}
		return v
	default:
		return v
	}
}
