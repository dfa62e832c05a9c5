package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/codequiz/internal/metrics"
	"github.com/abhisek/codequiz/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		m := metrics.New()
		rt, err := buildRuntime(ctx, st, m, m)
		if err != nil {
			return fmt.Errorf("wire services: %w", err)
		}
		defer rt.Close()

		if cfg.Server.PruneInterval > 0 {
			go rt.svc.RunPruner(ctx, cfg.Server.PruneInterval, cfg.Server.QuestionRetention)
		}

		if cfg.Server.JWTSecret == "" {
			logger.Warn("no JWT secret configured, trusting the X-User-ID header")
		}

		srv := server.New(rt.svc, server.Options{
			JWTSecret:   cfg.Server.JWTSecret,
			CORSOrigins: cfg.Server.CORSOrigins,
			Metrics:     m.Handler(),
			Health:      st.Ping,
			Logger:      logger,
		})
		return srv.ListenAndServe(ctx, cfg.Server.Addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}
