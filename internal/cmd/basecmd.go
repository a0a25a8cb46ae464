package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/scriptler-dev/scriptler/internal/cache"
	"github.com/scriptler-dev/scriptler/internal/config"
	"github.com/scriptler-dev/scriptler/internal/flags"
	"github.com/scriptler-dev/scriptler/internal/manifest"
	"github.com/scriptler-dev/scriptler/internal/repository"
)

// BaseCmd carries shared wiring for CLI commands.
type BaseCmd struct {
	logger hclog.Logger
}

// SetLogger updates the command's logger.
func (c *BaseCmd) SetLogger(logger hclog.Logger) {
	c.logger = logger
}

// Logger returns the current logger for the command, building one from flags
// and environment on first use.
func (c *BaseCmd) Logger() (hclog.Logger, error) {
	if c.logger != nil {
		return c.logger, nil
	}

	logLevel := flags.LogLevel
	if logLevel == "" {
		logLevel = strings.ToLower(os.Getenv(flags.EnvVarLogLevel))
		if logLevel == "" {
			logLevel = flags.DefaultLogLevel
		}
	}

	logPath := flags.LogPath
	if logPath == "" {
		logPath = strings.TrimSpace(os.Getenv(flags.EnvVarLogPath))
	}

	// The CLI stays quiet unless a log path is configured.
	var output io.Writer = io.Discard
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file (%s): %w", logPath, err)
		}
		output = f
	}

	c.logger = hclog.New(&hclog.LoggerOptions{
		Name:   "scriptler",
		Level:  hclog.LevelFromString(logLevel),
		Output: output,
	})

	return c.logger, nil
}

// LoadConfig loads the project configuration from the configured path.
func (c *BaseCmd) LoadConfig() (config.Modifier, error) {
	loader := &config.DefaultLoader{}
	return loader.Load(flags.ConfigFile)
}

// CreateManager wires up the repository manager with its collaborators.
func (c *BaseCmd) CreateManager() (*repository.Manager, error) {
	logger, err := c.Logger()
	if err != nil {
		return nil, err
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return nil, err
	}

	loader, err := manifest.NewLoader(logger)
	if err != nil {
		return nil, err
	}

	scriptCache, err := cache.NewCache(logger)
	if err != nil {
		return nil, err
	}

	statePath, err := config.DefaultStatePath()
	if err != nil {
		return nil, err
	}
	state, err := config.LoadUpdateState(logger, statePath)
	if err != nil {
		return nil, err
	}

	return repository.NewManager(repository.Dependencies{
		Logger: logger,
		Config: cfg,
		Cache:  scriptCache,
		Loader: loader,
		State:  state,
	})
}
