package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scriptler-dev/scriptler/internal/cmd"
)

type FetchCmd struct {
	*cmd.BaseCmd
}

func NewFetchCmd(baseCmd *cmd.BaseCmd) *cobra.Command {
	c := &FetchCmd{
		BaseCmd: baseCmd,
	}

	return &cobra.Command{
		Use:   "fetch <repo> <script>",
		Short: "Downloads a script with checksum verification and stores it in the cache",
		Args:  cobra.ExactArgs(2),
		RunE:  c.run,
	}
}

func (c *FetchCmd) run(cobraCmd *cobra.Command, args []string) error {
	logger, err := c.Logger()
	if err != nil {
		return err
	}

	manager, err := c.CreateManager()
	if err != nil {
		return err
	}

	repoID, scriptID := args[0], args[1]
	entry, err := manager.DownloadScript(cobraCmd.Context(), repoID, scriptID)
	if err != nil {
		logger.Error("Download failed", "repository", repoID, "script", scriptID, "error", err)
		return err
	}

	_, err = fmt.Fprintf(cobraCmd.OutOrStdout(), "✅ Cached '%s' from repository '%s'\n   %s\n", scriptID, repoID, entry.Path)
	return err
}
