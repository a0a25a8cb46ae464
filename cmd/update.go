package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scriptler-dev/scriptler/internal/cmd"
	"github.com/scriptler-dev/scriptler/internal/repository"
)

type UpdateCmd struct {
	*cmd.BaseCmd

	repoID    string
	checkOnly bool
	force     bool
}

func NewUpdateCmd(baseCmd *cmd.BaseCmd) *cobra.Command {
	c := &UpdateCmd{
		BaseCmd: baseCmd,
	}

	cobraCommand := &cobra.Command{
		Use:   "update",
		Short: "Checks repositories for script updates and applies them",
		Long: "Checks configured repositories for updates to cached scripts and re-downloads\n" +
			"any whose manifest checksum changed. Checks are throttled by the configured\n" +
			"interval unless --force is given.",
		RunE: c.run,
	}

	cobraCommand.Flags().StringVar(&c.repoID, "repo", "", "limit to one repository ID")
	cobraCommand.Flags().BoolVar(&c.checkOnly, "check", false, "only check for updates, don't apply them")
	cobraCommand.Flags().BoolVar(&c.force, "force", false, "bypass the re-check throttle")

	return cobraCommand
}

func (c *UpdateCmd) run(cobraCmd *cobra.Command, _ []string) error {
	manager, err := c.CreateManager()
	if err != nil {
		return err
	}

	var opts []repository.CheckOption
	if c.force {
		opts = append(opts, repository.WithForce())
	}

	ctx := cobraCmd.Context()
	out := cobraCmd.OutOrStdout()

	if c.repoID != "" {
		count, err := manager.CheckForUpdates(ctx, c.repoID, opts...)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(out, "Repository '%s': %d update(s) available\n", c.repoID, count); err != nil {
			return err
		}
		if c.checkOnly || count == 0 {
			return nil
		}

		result, err := manager.UpdateAllScripts(ctx, c.repoID)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "Updated %d script(s), %d failed\n", result.Updated, result.Failed)
		return err
	}

	counts := manager.CheckAllRepositories(ctx, opts...)
	for repoID, count := range counts {
		if _, err := fmt.Fprintf(out, "Repository '%s': %d update(s) available\n", repoID, count); err != nil {
			return err
		}
		if c.checkOnly || count == 0 {
			continue
		}
		result, err := manager.UpdateAllScripts(ctx, repoID)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(out, "Updated %d script(s), %d failed\n", result.Updated, result.Failed); err != nil {
			return err
		}
	}
	return nil
}
