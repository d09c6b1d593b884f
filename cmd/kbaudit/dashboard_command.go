package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"kbaudit/internal/config"
	"kbaudit/internal/dashboard"
	"kbaudit/internal/logging"
	"kbaudit/internal/store"
)

func newDashboardCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Serve the web dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				if bind != "" {
					cfg.Dashboard.Bind = bind
				}
				launcher := dashboard.NewProcessLauncher(ctx.configPath, cfg.LogPath(), nil, logger)
				srv, err := dashboard.New(cfg, st, launcher, dashboard.WithLogger(logger))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Dashboard at http://%s (Ctrl+C to stop)\n", cfg.Dashboard.Bind)
				err = srv.Serve(signalCtx)
				if stage, running := launcher.Running(); running {
					logger.Warn("dashboard stopped while a stage was running", logging.String(logging.FieldStage, stage))
				}
				return err
			})
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Override the listen address (host:port)")
	return cmd
}
