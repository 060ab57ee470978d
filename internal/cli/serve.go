package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vegasq/csvview/server"
	"github.com/vegasq/csvview/session"
)

func newServeCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the session HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr := a.cfg.ListenAddr
			if cmd.Flags().Changed("listen") {
				addr = listen
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			manager := session.NewManager(a.logger, a.cfg.SessionTTL, session.Options{Reader: a.cfg.ReaderOptions()})
			srv := server.New(manager, a.logger, server.Options{
				MaxUploadBytes: a.cfg.MaxUploadBytes,
				RateLimitRPS:   a.cfg.RateLimitRPS,
				RateLimitBurst: a.cfg.RateLimitBurst,
				CORSOrigins:    a.cfg.CORSOrigins,
			})
			a.logger.Info("starting csvview api", "addr", addr, "session_ttl", a.cfg.SessionTTL)
			return srv.Run(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config, \":8080\")")
	return cmd
}
