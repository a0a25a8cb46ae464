package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/scriptler-dev/scriptler/internal/cmd"
	"github.com/scriptler-dev/scriptler/internal/repository"
)

type ListCmd struct {
	*cmd.BaseCmd

	repoID      string
	updatesOnly bool
}

func NewListCmd(baseCmd *cmd.BaseCmd) *cobra.Command {
	c := &ListCmd{
		BaseCmd: baseCmd,
	}

	cobraCommand := &cobra.Command{
		Use:   "list",
		Short: "Lists scripts from configured repositories with cache status",
		RunE:  c.run,
	}

	cobraCommand.Flags().StringVar(&c.repoID, "repo", "", "limit the listing to one repository ID")
	cobraCommand.Flags().BoolVar(&c.updatesOnly, "updates", false, "show only cached scripts with an update available")

	return cobraCommand
}

func (c *ListCmd) run(cobraCmd *cobra.Command, _ []string) error {
	manager, err := c.CreateManager()
	if err != nil {
		return err
	}

	scripts, err := manager.GetScripts(cobraCmd.Context(), c.repoID)
	if err != nil {
		return err
	}

	if c.updatesOnly {
		filtered := make([]repository.ScriptStatus, 0, len(scripts))
		for _, s := range scripts {
			if s.UpdateAvailable {
				filtered = append(filtered, s)
			}
		}
		scripts = filtered
	}

	if len(scripts) == 0 {
		_, err = fmt.Fprintln(cobraCmd.OutOrStdout(), "No scripts found")
		return err
	}

	w := tabwriter.NewWriter(cobraCmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "REPO\tID\tNAME\tCATEGORY\tCACHED\tUPDATE")
	for _, s := range scripts {
		cached := "-"
		if s.Cached {
			cached = "yes"
		}
		update := "-"
		if s.UpdateAvailable {
			update = "available"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", s.RepositoryID, s.ID, s.Name, s.Category, cached, update)
	}
	return w.Flush()
}
