package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/scriptler-dev/scriptler/internal/cmd"
	"github.com/scriptler-dev/scriptler/internal/config"
	"github.com/scriptler-dev/scriptler/internal/flags"
)

type InitCmd struct {
	*cmd.BaseCmd
	cfgInitializer config.Initializer
}

func NewInitCmd(baseCmd *cmd.BaseCmd) *cobra.Command {
	c := &InitCmd{
		BaseCmd:        baseCmd,
		cfgInitializer: &config.DefaultLoader{},
	}

	return &cobra.Command{
		Use:   "init",
		Short: "Initializes the current directory as a `scriptler` project",
		Long:  c.longDescription(),
		RunE:  c.run,
	}
}

func (c *InitCmd) longDescription() string {
	return fmt.Sprintf(
		"Initializes the current directory as a `scriptler` project, creating a %s configuration file.\n\n"+
			"The configuration file path can be overridden using the `--%s` flag or the `%s` environment variable",
		flags.DefaultConfigFile,
		flags.FlagNameConfigFile,
		flags.EnvVarConfigFile,
	)
}

func (c *InitCmd) run(cobraCmd *cobra.Command, _ []string) error {
	logger, err := c.Logger()
	if err != nil {
		return err
	}

	initFilePath := flags.ConfigFile

	// With the default value we create the file in the current working directory.
	if flags.ConfigFile == flags.DefaultConfigFile {
		cwd, err := os.Getwd()
		if err != nil {
			logger.Error("Failed to get working directory", "error", err)
			return fmt.Errorf("error getting current directory: %w", err)
		}
		initFilePath = filepath.Join(cwd, flags.DefaultConfigFile)
	}

	if err := c.cfgInitializer.Init(initFilePath); err != nil {
		logger.Error("Project initialization failed", "error", err)
		return fmt.Errorf("error initializing scriptler project: %w", err)
	}

	_, err = fmt.Fprintf(cobraCmd.OutOrStdout(), "✅ Config file created: %s\n", initFilePath)
	return err
}
