package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/scriptler-dev/scriptler/internal/cmd"
	"github.com/scriptler-dev/scriptler/internal/daemon"
)

const defaultDaemonAddr = "localhost:8090"

type DaemonCmd struct {
	*cmd.BaseCmd

	addr        string
	corsEnabled bool
	corsOrigins []string
}

func NewDaemonCmd(baseCmd *cmd.BaseCmd) *cobra.Command {
	c := &DaemonCmd{
		BaseCmd: baseCmd,
	}

	cobraCommand := &cobra.Command{
		Use:   "daemon",
		Short: "Runs the HTTP API that front ends use to browse, download, and update scripts",
		RunE:  c.run,
	}

	cobraCommand.Flags().StringVar(&c.addr, "addr", defaultDaemonAddr, "address for the API server to bind")
	cobraCommand.Flags().BoolVar(&c.corsEnabled, "cors", false, "enable CORS for browser front ends")
	cobraCommand.Flags().StringSliceVar(&c.corsOrigins, "cors-origin", []string{"*"}, "allowed CORS origins")

	return cobraCommand
}

func (c *DaemonCmd) run(cobraCmd *cobra.Command, _ []string) error {
	logger, err := c.Logger()
	if err != nil {
		return err
	}

	manager, err := c.CreateManager()
	if err != nil {
		return err
	}

	var opts []daemon.APIOption
	if c.corsEnabled {
		opts = append(opts, daemon.WithCORS(daemon.CORSConfig{
			Enabled:      true,
			AllowOrigins: c.corsOrigins,
			AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		}))
	}

	server, err := daemon.NewAPIServer(daemon.APIDependencies{
		Logger:  logger,
		Manager: manager,
		Addr:    c.addr,
	}, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cobraCmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
