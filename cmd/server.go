package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/manualview/internal/manuals"
	"github.com/ziadkadry99/manualview/internal/qa"
	"github.com/ziadkadry99/manualview/internal/server"
	"github.com/ziadkadry99/manualview/internal/web"
)

var serverAddr string

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the manual API and browser viewer",
	Long: `Starts the HTTP server: the JSON API under /api, the browser viewer,
live viewer sessions over websocket, and the step images and narration
clips under /manual_images and /manual_audio.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serverAddr != "" {
			cfg.Server.Addr = serverAddr
		}
		logger, closer, err := setupLogger(cfg, nil)
		if err != nil {
			return err
		}
		defer closer.Close()

		database, store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		idx := loadIndex(cfg, logger)
		engine := buildEngine(cfg, database, store, idx, logger)

		resolver := cfg.Resolver()
		srv := server.New(server.Config{
			Addr:        cfg.Server.Addr,
			CORSOrigins: cfg.Server.CORSOrigins,
			ImageDir:    cfg.Assets.ImageDir,
			AudioDir:    cfg.Assets.AudioDir,
			ImageBase:   resolver.ImageBase,
			AudioBase:   resolver.AudioBase,
		}, database, logger)

		browser, err := web.New(web.Options{
			Library:  store,
			Asker:    engine,
			Resolver: resolver,
			Prober:   localProber(cfg, resolver),
			Logger:   logger,
		})
		if err != nil {
			return fmt.Errorf("creating browser viewer: %w", err)
		}

		r := srv.Router()
		manuals.RegisterRoutes(r, store)
		qa.RegisterRoutes(r, engine, qa.NewLog(database))
		browser.RegisterRoutes(r)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("shutdown failed", "error", err)
			}
		}()

		list, err := store.List(ctx)
		if err != nil {
			return err
		}
		logger.Info("manualview server starting",
			"version", Version,
			"database", database.Path(),
			"manuals", len(list),
			"qa", engine.Enabled(),
			"semantic_search", idx != nil,
		)
		return srv.Start()
	},
}

func init() {
	serverCmd.Flags().StringVar(&serverAddr, "addr", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(serverCmd)
}
