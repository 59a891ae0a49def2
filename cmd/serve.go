package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Chiragbhatt711/ai-jarvis/api"
	"github.com/Chiragbhatt711/ai-jarvis/internal/app"
	"github.com/Chiragbhatt711/ai-jarvis/internal/config"
	"github.com/Chiragbhatt711/ai-jarvis/internal/log"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

// runServe wires the application and serves until SIGINT/SIGTERM.
func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := log.New(log.Config{})
	logger.Info("starting", "version", AppVersion, "model", cfg.ModelName)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer a.Close()

	addr := cfg.ListenAddr
	if serveAddr != "" {
		addr = serveAddr
	}

	srv := api.NewServer(a.Service, a.Store, cfg.CORSOrigins, logger)
	if err := srv.Run(ctx, addr); err != nil {
		return fmt.Errorf("running server: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
