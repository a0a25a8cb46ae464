package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/scriptler-dev/scriptler/cmd/repo"
	"github.com/scriptler-dev/scriptler/internal/cmd"
	"github.com/scriptler-dev/scriptler/internal/flags"
)

var version = "dev" // Set at build time using -ldflags

type RootCmd struct {
	*cmd.BaseCmd
}

func Execute() error {
	logger, err := configureLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error executing root command: %s", err)
		os.Exit(1)
	}

	rootCmd := NewRootCmd(logger)

	return rootCmd.Execute()
}

func NewRootCmd(logger hclog.Logger) *cobra.Command {
	base := &cmd.BaseCmd{}
	base.SetLogger(logger)

	c := &RootCmd{
		BaseCmd: base,
	}

	rootCmd := &cobra.Command{
		Use:          "scriptler <command> [args]",
		Short:        "'scriptler' manages collections of scripts published by remote repositories.",
		Long:         c.longDescription(),
		SilenceUsage: true,
		Version:      version,
	}

	// Global flags
	flags.InitFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(NewInitCmd(base))
	rootCmd.AddCommand(NewListCmd(base))
	rootCmd.AddCommand(NewFetchCmd(base))
	rootCmd.AddCommand(NewUpdateCmd(base))
	rootCmd.AddCommand(NewDaemonCmd(base))
	rootCmd.AddCommand(repo.NewRepoCmd(base))

	return rootCmd
}

func (c *RootCmd) longDescription() string {
	return `The 'scriptler' CLI browses, downloads, caches, and keeps current the
scripts published by one or more configured repositories. Downloads are
verified by checksum before anything reaches the cache.`
}

func configureLogger() (hclog.Logger, error) {
	logPath := strings.TrimSpace(os.Getenv(flags.EnvVarLogPath))

	// If SCRIPTLER_LOG_PATH is not set, don't log anywhere.
	logOutput := io.Discard

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file (%s): %w", logPath, err)
		}
		logOutput = f
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "scriptler",
		Level:  hclog.LevelFromString(getLogLevel()),
		Output: logOutput,
	})

	return logger, nil
}

func getLogLevel() string {
	lvl := strings.ToLower(os.Getenv(flags.EnvVarLogLevel))
	switch lvl {
	case "trace", "debug", "info", "warn", "error", "off":
		return lvl
	default:
		return "info"
	}
}
