package server

import (
	"fmt"
	"strconv"
	"time"
)

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API.
	ApiKey string `mapstructure:"api_key" default:""`
	// RequestTimeoutSeconds bounds one sync request, including its remote calls.
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds" default:"300"`
}

// Validate checks the port and timeout.
func (c Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid server port %q", c.Port)
	}
	if c.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("invalid request timeout %d", c.RequestTimeoutSeconds)
	}
	return nil
}

// Address is the listen address.
func (c Config) Address() string {
	return ":" + c.Port
}

// RequestTimeout is the per-request deadline; zero disables it.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}
