// Package repo groups the repository CRUD subcommands.
package repo

import (
	"github.com/spf13/cobra"

	"github.com/scriptler-dev/scriptler/internal/cmd"
)

func NewRepoCmd(baseCmd *cmd.BaseCmd) *cobra.Command {
	repoCmd := &cobra.Command{
		Use:   "repo <command> [args]",
		Short: "Manages configured script repositories",
	}

	repoCmd.AddCommand(NewAddCmd(baseCmd))
	repoCmd.AddCommand(NewRemoveCmd(baseCmd))
	repoCmd.AddCommand(NewListCmd(baseCmd))

	return repoCmd
}
