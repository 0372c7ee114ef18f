package shurjopay

import (
	"fmt"
	"unicode/utf8"

	"github.com/pkg/errors"
)

var (
	// ErrMissingOrderID is returned by Verify and CheckStatus when neither an
	// order id nor a previous checkout is available. No request is sent.
	ErrMissingOrderID = errors.New("shurjopay: order id is required and no checkout has been made")

	// ErrInvalidCredentials matches an *AuthError raised because the token
	// endpoint answered with the failure schema.
	ErrInvalidCredentials = errors.New("shurjopay: invalid credentials")

	// ErrUnexpectedResponse matches an *AuthError raised because the token
	// endpoint answered with a body matching neither known schema.
	ErrUnexpectedResponse = errors.New("shurjopay: unexpected token response")
)

// AuthErrorKind distinguishes rejected credentials from a changed token API
type AuthErrorKind int

const (
	InvalidCredentials AuthErrorKind = iota + 1
	UnexpectedResponse
)

func (k AuthErrorKind) String() string {
	switch k {
	case InvalidCredentials:
		return "invalid credentials"
	case UnexpectedResponse:
		return "unexpected response"
	default:
		return "unknown"
	}
}

// AuthError reports a failed token acquisition
type AuthError struct {
	Kind    AuthErrorKind
	Code    int
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	switch {
	case e.Kind == InvalidCredentials:
		return fmt.Sprintf("shurjopay: token request rejected (%d): %s", e.Code, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("shurjopay: token request failed: %s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("shurjopay: token request failed: %s", e.Kind)
	}
}

// Is lets errors.Is match the kind sentinels
func (e *AuthError) Is(target error) bool {
	switch target {
	case ErrInvalidCredentials:
		return e.Kind == InvalidCredentials
	case ErrUnexpectedResponse:
		return e.Kind == UnexpectedResponse
	}
	return false
}

func (e *AuthError) Unwrap() error { return e.Err }

// TransportError means the HTTP round trip itself did not complete
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("shurjopay: %s: transport failure: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DeclinedError carries a failure reported by the gateway, verbatim
type DeclinedError struct {
	Op      string
	Code    int
	Message string
}

func (e *DeclinedError) Error() string {
	return fmt.Sprintf("shurjopay: %s declined (%d): %s", e.Op, e.Code, e.Message)
}

// SchemaError means the body parsed as neither the expected shape nor the
// failure shape. It signals a contract break with the gateway.
type SchemaError struct {
	Status int
	Body   string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("shurjopay: unrecognised response (status %d): %s", e.Status, truncate(e.Body, 256))
}

// truncate cuts s to at most n bytes without splitting a rune
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
