package repo

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scriptler-dev/scriptler/internal/cmd"
)

type RemoveCmd struct {
	*cmd.BaseCmd
}

func NewRemoveCmd(baseCmd *cmd.BaseCmd) *cobra.Command {
	c := &RemoveCmd{
		BaseCmd: baseCmd,
	}

	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Removes a user-added repository along with its cached scripts",
		Args:  cobra.ExactArgs(1),
		RunE:  c.run,
	}
}

func (c *RemoveCmd) run(cobraCmd *cobra.Command, args []string) error {
	manager, err := c.CreateManager()
	if err != nil {
		return err
	}

	if err := manager.RemoveRepository(args[0]); err != nil {
		return err
	}

	_, err = fmt.Fprintf(cobraCmd.OutOrStdout(), "✅ Removed repository '%s'\n", args[0])
	return err
}
