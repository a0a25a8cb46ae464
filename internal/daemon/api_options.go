package daemon

import (
	"fmt"
	"time"
)

// DefaultShutdownTimeout bounds graceful API shutdown.
const DefaultShutdownTimeout = 5 * time.Second

// CORSConfig controls cross-origin behavior for the API.
type CORSConfig struct {
	Enabled          bool
	AllowOrigins     []string
	AllowMethods     []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// APIOption defines a functional option for configuring APIServer.
type APIOption func(*APIOptions) error

// APIOptions contains optional configuration for the API server.
type APIOptions struct {
	CORS            CORSConfig
	ShutdownTimeout time.Duration
}

// NewAPIOptions applies defaults first, then user options on top.
func NewAPIOptions(opts ...APIOption) (APIOptions, error) {
	o := APIOptions{
		CORS: CORSConfig{
			Enabled:      false,
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			MaxAge:       5 * time.Minute,
		},
		ShutdownTimeout: DefaultShutdownTimeout,
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&o); err != nil {
			return APIOptions{}, err
		}
	}

	return o, nil
}

// WithCORS enables CORS with the supplied configuration.
func WithCORS(cors CORSConfig) APIOption {
	return func(o *APIOptions) error {
		o.CORS = cors
		return nil
	}
}

// WithShutdownTimeout sets how long to wait for graceful shutdown.
func WithShutdownTimeout(timeout time.Duration) APIOption {
	return func(o *APIOptions) error {
		if timeout <= 0 {
			return fmt.Errorf("shutdown timeout must be positive, got %v", timeout)
		}
		o.ShutdownTimeout = timeout
		return nil
	}
}
