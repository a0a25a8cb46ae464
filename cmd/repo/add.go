package repo

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scriptler-dev/scriptler/internal/cmd"
	"github.com/scriptler-dev/scriptler/internal/config"
)

type AddCmd struct {
	*cmd.BaseCmd

	id       string
	name     string
	priority int
}

func NewAddCmd(baseCmd *cmd.BaseCmd) *cobra.Command {
	c := &AddCmd{
		BaseCmd: baseCmd,
	}

	cobraCommand := &cobra.Command{
		Use:   "add <source>",
		Short: "Adds a custom repository by manifest URL or local path",
		Args:  cobra.ExactArgs(1),
		RunE:  c.run,
	}

	cobraCommand.Flags().StringVar(&c.id, "id", "", "repository ID (generated when omitted)")
	cobraCommand.Flags().StringVar(&c.name, "name", "", "human-readable repository name")
	cobraCommand.Flags().IntVar(&c.priority, "priority", 0, "listing priority, lower comes first")

	return cobraCommand
}

func (c *AddCmd) run(cobraCmd *cobra.Command, args []string) error {
	manager, err := c.CreateManager()
	if err != nil {
		return err
	}

	added, err := manager.AddRepository(config.RepositoryEntry{
		ID:       c.id,
		Name:     c.name,
		Source:   args[0],
		Priority: c.priority,
	})
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(cobraCmd.OutOrStdout(), "✅ Added repository '%s' (%s)\n", added.ID, added.Source)
	return err
}
