package cache

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/scriptler-dev/scriptler/internal/files"
)

// scriptsSubDir separates script content from other application cache files.
const scriptsSubDir = "scripts"

// Option defines a functional option for configuring Cache.
type Option func(*Options) error

// Options contains optional configuration for the cache.
type Options struct {
	// dir is the root directory where cached scripts are stored.
	dir string
}

func NewOptions(opts ...Option) (Options, error) {
	dir, err := DefaultDir()
	if err != nil {
		return Options{}, err
	}

	// Default options.
	o := Options{
		dir: dir,
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

// WithDirectory sets the cache root directory.
func WithDirectory(dir string) Option {
	return func(o *Options) error {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			return fmt.Errorf("cache directory cannot be empty")
		}
		o.dir = dir
		return nil
	}
}

// DefaultDir returns the default script cache directory, following the XDG
// Base Directory Specification.
func DefaultDir() (string, error) {
	base, err := files.UserSpecificCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine cache directory: %w", err)
	}
	return filepath.Join(base, scriptsSubDir), nil
}
