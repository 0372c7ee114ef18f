package shurjopay

import (
	"time"

	"github.com/pkg/errors"

	"github.com/mstgnz/shurjopay/infra/config"
)

// Sandbox defaults
const (
	SandboxBaseURL     = "https://sandbox.shurjopayment.com"
	SandboxUsername    = "sp_sandbox"
	SandboxPassword    = "pyyk97hu&6u6"
	SandboxResponseURL = "https://sandbox.shurjopayment.com/response"
)

const (
	DefaultTokenPath         = "/api/get_token"
	DefaultSecretPayPath     = "/api/secret-pay"
	DefaultVerificationPath  = "/api/verification"
	DefaultPaymentStatusPath = "/api/payment-status"

	DefaultClientIP = "192.168.0.99"
	DefaultPrefix   = "sp"

	// DefaultServerUTCOffset is the gateway's wall clock offset from UTC
	// (Asia/Dhaka). token_create_time is expressed in that clock.
	DefaultServerUTCOffset = 6 * time.Hour
)

// Endpoints are the gateway paths, relative to Config.BaseURL
type Endpoints struct {
	Token         string `validate:"required"`
	SecretPay     string `validate:"required"`
	Verification  string `validate:"required"`
	PaymentStatus string `validate:"required"`
}

// DefaultEndpoints returns the paths used by both sandbox and live gateways
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Token:         DefaultTokenPath,
		SecretPay:     DefaultSecretPayPath,
		Verification:  DefaultVerificationPath,
		PaymentStatus: DefaultPaymentStatusPath,
	}
}

// Config is a value type. The With* methods return modified copies and the
// Client keeps its own copy, so a Config can be shared freely.
type Config struct {
	BaseURL   string `validate:"required,url"`
	Username  string `validate:"required"`
	Password  string `validate:"required"`
	ReturnURL string `validate:"required,url"`
	CancelURL string `validate:"required,url"`
	ClientIP  string `validate:"required,ip"`
	Prefix    string `validate:"required"`

	Endpoints       Endpoints
	Timeout         time.Duration
	ServerUTCOffset time.Duration
}

// SandboxConfig targets the public sandbox with its shared credentials
func SandboxConfig() Config {
	return WithCredentials(SandboxUsername, SandboxPassword)
}

// WithCredentials targets the sandbox with merchant credentials
func WithCredentials(username, password string) Config {
	return NewConfig(SandboxBaseURL, username, password, SandboxResponseURL, SandboxResponseURL)
}

// NewConfig builds a config for any gateway deployment
func NewConfig(baseURL, username, password, returnURL, cancelURL string) Config {
	return Config{
		BaseURL:         baseURL,
		Endpoints:       DefaultEndpoints(),
		Username:        username,
		Password:        password,
		ReturnURL:       returnURL,
		CancelURL:       cancelURL,
		ClientIP:        DefaultClientIP,
		Prefix:          DefaultPrefix,
		ServerUTCOffset: DefaultServerUTCOffset,
	}
}

// ConfigFromEnv reads SP_* variables. Unset URLs fall back to the sandbox;
// credentials have no fallback.
func ConfigFromEnv() (Config, error) {
	returnURL := config.GetEnv("SP_CALLBACK", SandboxResponseURL)
	cfg := Config{
		BaseURL: config.GetEnv("SHURJOPAY_API", SandboxBaseURL),
		Endpoints: Endpoints{
			Token:         config.GetEnv("SP_TOKEN_PATH", DefaultTokenPath),
			SecretPay:     config.GetEnv("SP_SECRET_PAY_PATH", DefaultSecretPayPath),
			Verification:  config.GetEnv("SP_VERIFICATION_PATH", DefaultVerificationPath),
			PaymentStatus: config.GetEnv("SP_PAYMENT_STATUS_PATH", DefaultPaymentStatusPath),
		},
		Username:        config.GetEnv("SP_USERNAME", ""),
		Password:        config.GetEnv("SP_PASSWORD", ""),
		ReturnURL:       returnURL,
		CancelURL:       config.GetEnv("SP_CANCEL_URL", returnURL),
		ClientIP:        config.GetEnv("SP_CLIENT_IP", DefaultClientIP),
		Prefix:          config.GetEnv("SP_PREFIX", DefaultPrefix),
		Timeout:         config.GetDurationEnv("SP_TIMEOUT", 0),
		ServerUTCOffset: config.GetDurationEnv("SP_SERVER_UTC_OFFSET", DefaultServerUTCOffset),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ConfigFromEnvFile loads the given .env files (".env" by default) and then
// reads the environment.
func ConfigFromEnvFile(paths ...string) (Config, error) {
	if err := config.LoadEnvFile(paths...); err != nil {
		return Config{}, errors.Wrap(err, "shurjopay: failed to load env file")
	}
	return ConfigFromEnv()
}

// Validate checks that every required field is present and well formed
func (c Config) Validate() error {
	if err := config.App().Validator.Struct(c); err != nil {
		return errors.Wrap(err, "shurjopay: invalid config")
	}
	if c.Timeout < 0 {
		return errors.New("shurjopay: invalid config: timeout must not be negative")
	}
	return nil
}

func (c Config) WithBaseURL(baseURL string) Config {
	c.BaseURL = baseURL
	return c
}

func (c Config) WithEndpoints(endpoints Endpoints) Config {
	c.Endpoints = endpoints
	return c
}

func (c Config) WithReturnURL(returnURL string) Config {
	c.ReturnURL = returnURL
	return c
}

func (c Config) WithCancelURL(cancelURL string) Config {
	c.CancelURL = cancelURL
	return c
}

func (c Config) WithClientIP(ip string) Config {
	c.ClientIP = ip
	return c
}

func (c Config) WithPrefix(prefix string) Config {
	c.Prefix = prefix
	return c
}

// WithTimeout bounds each gateway round trip; zero means the transport default
func (c Config) WithTimeout(timeout time.Duration) Config {
	c.Timeout = timeout
	return c
}

func (c Config) WithServerUTCOffset(offset time.Duration) Config {
	c.ServerUTCOffset = offset
	return c
}

// String never prints the password
func (c Config) String() string {
	return "shurjopay.Config{BaseURL: " + c.BaseURL + ", Username: " + c.Username + ", Password: ***}"
}
