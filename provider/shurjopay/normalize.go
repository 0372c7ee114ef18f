package shurjopay

import (
	"bytes"
	"encoding/json"
	"net/http"
	"reflect"
	"strings"

	"github.com/mstgnz/shurjopay/infra/config"
	"github.com/mstgnz/shurjopay/provider"
)

// Failure is the gateway's failure schema: {"sp_code": ..., "message": ...}
type Failure struct {
	Code    int    `json:"sp_code"`
	Message string `json:"message"`
}

// Result is either a decoded success payload or a gateway Failure.
type Result[T any] struct {
	value   T
	failure *Failure
	// set when a non-200 body did not match the failure schema
	fromStatus bool
}

// Succeeded builds a success result
func Succeeded[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Failed builds a failure result
func Failed[T any](f Failure) Result[T] {
	return Result[T]{failure: &f}
}

// IsSuccess reports whether the result carries a success payload
func (r Result[T]) IsSuccess() bool { return r.failure == nil }

// FromHTTPStatus reports whether the failure was built from the HTTP status
// alone because the body did not match the failure schema.
func (r Result[T]) FromHTTPStatus() bool { return r.failure != nil && r.fromStatus }

// Value returns the success payload; ok is false for a failure
func (r Result[T]) Value() (value T, ok bool) {
	return r.value, r.failure == nil
}

// Failure returns the gateway failure; ok is false for a success
func (r Result[T]) Failure() (f Failure, ok bool) {
	if r.failure == nil {
		return Failure{}, false
	}
	return *r.failure, true
}

type failurePayload struct {
	Code    *FlexInt `json:"sp_code"`
	Message *string  `json:"message"`
}

// Normalize turns a gateway HTTP response into a Result.
//
// A non-200 status is always a failure; the body supplies the code and
// message when it matches the failure schema. A 200 body may arrive bare or
// wrapped in a one element array; it is decoded into T first and into the
// failure schema second. A body matching neither yields *SchemaError.
// Secret fields are masked in any body text carried by the result.
func Normalize[T any](status int, body []byte) (Result[T], error) {
	payload := unwrapSingle(body)

	if status != http.StatusOK {
		if f, ok := decodeFailure(payload); ok {
			return Failed[T](f), nil
		}
		msg := strings.TrimSpace(provider.MaskJSON(bytes.TrimSpace(body)))
		if msg == "" {
			msg = http.StatusText(status)
		}
		if msg == "" {
			msg = "gateway request failed"
		}
		result := Failed[T](Failure{Code: status, Message: msg})
		result.fromStatus = true
		return result, nil
	}

	if value, ok := decodeSuccess[T](payload); ok {
		return Succeeded(value), nil
	}
	if f, ok := decodeFailure(payload); ok {
		return Failed[T](f), nil
	}
	return Result[T]{}, &SchemaError{Status: status, Body: provider.MaskJSON(bytes.TrimSpace(body))}
}

// unwrapSingle strips one array layer when the body is a JSON array holding
// exactly one element. Any other body is returned trimmed but untouched.
func unwrapSingle(body []byte) []byte {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return trimmed
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil || len(items) != 1 {
		return trimmed
	}
	return bytes.TrimSpace(items[0])
}

func isObject(payload []byte) bool {
	return len(payload) > 0 && payload[0] == '{'
}

// decodeSuccess decodes payload into T and checks its required fields
func decodeSuccess[T any](payload []byte) (T, bool) {
	var value T
	if !isObject(payload) {
		return value, false
	}
	if err := json.Unmarshal(payload, &value); err != nil {
		return value, false
	}
	if reflect.TypeOf(value).Kind() == reflect.Struct {
		if err := config.App().Validator.Struct(&value); err != nil {
			return value, false
		}
	}
	return value, true
}

func decodeFailure(payload []byte) (Failure, bool) {
	if !isObject(payload) {
		return Failure{}, false
	}
	var p failurePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return Failure{}, false
	}
	if p.Code == nil || p.Message == nil {
		return Failure{}, false
	}
	return Failure{Code: int(*p.Code), Message: *p.Message}, true
}
