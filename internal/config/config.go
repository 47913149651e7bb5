// Package config defines the relay's process-wide configuration. It is
// loaded once at startup and immutable thereafter: environment variables
// (optionally seeded from a .env file) populate the Config struct, and the
// routing table is read from a JSON document. Any missing required value or
// invalid format fails startup immediately.
package config

import (
	"fmt"
	"time"
)

// Config is the top-level configuration for the relay. Populated once
// during process initialization and never modified afterwards; components
// receive only the subsets they need.
type Config struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server ServerConfig
	OneBot OneBotConfig
	Routes RoutesConfig
}

// ServerConfig holds the inbound HTTP listener settings.
type ServerConfig struct {
	ListenAddr string `envconfig:"LISTEN_ADDR" default:"127.0.0.1:5800" validate:"required"`

	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"29s"`
}

// OneBotConfig holds the chat provider endpoint settings.
type OneBotConfig struct {
	// APIURL is the OneBot HTTP API base URL, no trailing slash.
	APIURL string `envconfig:"ONEBOT_API_URL" validate:"required,url"`

	// Timeout bounds each outbound call to the provider.
	Timeout time.Duration `envconfig:"ONEBOT_TIMEOUT" default:"10s"`

	UserAgent string `envconfig:"ONEBOT_USER_AGENT" default:"relaybot/1.0"`
}

// RoutesConfig locates the webhook routing table. Inline JSON takes
// priority over the file so deployments can inject the table through the
// environment without shipping a file.
type RoutesConfig struct {
	// File is a path to a JSON document mapping identifiers to routes.
	File string `envconfig:"ROUTES_FILE" default:"routes.json"`

	// Inline is the same JSON document passed directly through the
	// environment. When set, File is ignored.
	Inline string `envconfig:"WEBHOOK_ROUTES"`
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrParsing indicates environment values failed to parse into their
	// target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
	// ErrValidation indicates the configuration failed struct validation.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrRoutes indicates the routing table document was missing or invalid.
	ErrRoutes ConfigErrorType = "ROUTES_INVALID"
)

// ConfigError is the diagnostic error type returned by the loaders.
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}
