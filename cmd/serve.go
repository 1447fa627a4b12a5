package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/aimentor/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.HTTP.Addr = addr
		}
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		d, err := buildDeps(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer d.Close()

		rc := server.RouterConfig{
			Prefix:       cfg.HTTP.Prefix,
			AllowOrigins: cfg.HTTP.AllowOrigins,
			ChatHandler:  server.NewChatHandler(d.chat, log),
			EduHandler:   server.NewEduHandler(d.edu, log),
			Logger:       log,
		}
		if cfg.HTTP.AdminRoutes {
			rc.AdminHandler = server.NewAdminHandler(d.store, log)
		}
		srv := server.NewServer(cfg.HTTP.Addr, rc)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return srv.Run(gctx, cfg.HTTP.ShutdownTimeout)
		})
		g.Go(func() error {
			// Warm the catalog cache.
			if _, err := d.catalog.Fragment(gctx); err != nil && gctx.Err() == nil {
				log.Warn("catalog warm-up failed", "error", err)
			}
			return nil
		})

		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("serve: %w", err)
		}
		log.Info("stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides http.addr)")
}
