package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/ctxd/internal/config"
	"github.com/Aman-CERP/ctxd/internal/server"
)

func newServeCmd() *cobra.Command {
	var socketPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the ctxd daemon",
		Long: `Serve runs the context store as a daemon on a Unix socket. Other ctxd
commands detect the daemon and route their operations through it, so
every client shares one store and one similarity index. Stops on
SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if socketPath != "" {
				cfg.Server.SocketPath = socketPath
			}

			if server.NewClient(cfg.Server.SocketPath, 0).IsRunning() {
				return fmt.Errorf("daemon already running on %s", cfg.Server.SocketPath)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svcs, err := openServices(ctx, cfg)
			if err != nil {
				return err
			}
			defer svcs.close()

			srv := server.NewServer(cfg.Server.SocketPath, svcs.manager, svcs.searcher, nil)
			if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&socketPath, "socket", "", "Socket path (overrides config)")

	return cmd
}
