package repository

import (
	"fmt"
	"net/http"
	"time"
)

// DefaultMaxChecksumAttempts bounds the download retry loop. Mismatches are
// assumed to come from an intermediary cache serving a stale copy, so each
// attempt carries a fresh cache-defeating parameter.
const DefaultMaxChecksumAttempts = 3

// DefaultDownloadTimeout bounds each script content request.
const DefaultDownloadTimeout = 30 * time.Second

// Option defines a functional option for configuring Manager.
type Option func(*Options) error

// Options contains optional configuration for the manager.
type Options struct {
	// client performs script content downloads.
	client *http.Client

	// maxChecksumAttempts is the total number of download attempts before a
	// checksum mismatch becomes terminal.
	maxChecksumAttempts int
}

func NewManagerOptions(opts ...Option) (Options, error) {
	// Default options.
	o := Options{
		client:              &http.Client{Timeout: DefaultDownloadTimeout},
		maxChecksumAttempts: DefaultMaxChecksumAttempts,
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&o); err != nil {
			return Options{}, err
		}
	}

	return o, nil
}

// WithHTTPClient sets the HTTP client used for script downloads.
func WithHTTPClient(client *http.Client) Option {
	return func(o *Options) error {
		if client == nil {
			return fmt.Errorf("HTTP client cannot be nil")
		}
		o.client = client
		return nil
	}
}

// WithMaxChecksumAttempts sets the total number of download attempts.
func WithMaxChecksumAttempts(attempts int) Option {
	return func(o *Options) error {
		if attempts < 1 {
			return fmt.Errorf("checksum attempts must be at least 1, got %d", attempts)
		}
		o.maxChecksumAttempts = attempts
		return nil
	}
}

// CheckOption defines a per-invocation option for update checks.
type CheckOption func(*CheckOptions) error

// CheckOptions contains per-invocation configuration for update checks.
type CheckOptions struct {
	// force bypasses throttling and always fetches the manifest.
	force bool

	// interval overrides the configured minimum re-check interval.
	interval time.Duration
}

func NewCheckOptions(configured time.Duration, opts ...CheckOption) (CheckOptions, error) {
	o := CheckOptions{
		interval: configured,
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&o); err != nil {
			return CheckOptions{}, err
		}
	}

	return o, nil
}

// WithForce bypasses the throttling rule for this invocation.
func WithForce() CheckOption {
	return func(o *CheckOptions) error {
		o.force = true
		return nil
	}
}

// WithInterval overrides the configured re-check interval for this invocation.
func WithInterval(interval time.Duration) CheckOption {
	return func(o *CheckOptions) error {
		if interval < 0 {
			return fmt.Errorf("interval cannot be negative, got %v", interval)
		}
		o.interval = interval
		return nil
	}
}
