package repo

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/scriptler-dev/scriptler/internal/cmd"
)

type ListCmd struct {
	*cmd.BaseCmd
}

func NewListCmd(baseCmd *cmd.BaseCmd) *cobra.Command {
	c := &ListCmd{
		BaseCmd: baseCmd,
	}

	return &cobra.Command{
		Use:   "list",
		Short: "Lists configured repositories in priority order",
		RunE:  c.run,
	}
}

func (c *ListCmd) run(cobraCmd *cobra.Command, _ []string) error {
	manager, err := c.CreateManager()
	if err != nil {
		return err
	}

	repos := manager.ListRepositories()
	if len(repos) == 0 {
		_, err = fmt.Fprintln(cobraCmd.OutOrStdout(), "No repositories configured, run: 'scriptler repo add'")
		return err
	}

	w := tabwriter.NewWriter(cobraCmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tSOURCE\tPRIORITY\tORIGIN")
	for _, r := range repos {
		origin := "built-in"
		if r.UserAdded {
			origin = "user"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", r.ID, r.Name, r.Source, r.Priority, origin)
	}
	return w.Flush()
}
