package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/user/planstream/internal/api"
	"github.com/user/planstream/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the planning API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (1-65535)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogging(os.Stdout, cfg.LogLevel)
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}
	if err := cfg.Finalize(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	j, err := openJournal(ctx, cfg)
	if err != nil {
		return err
	}
	apiOpts := api.Options{Token: cfg.Token}
	if j != nil {
		defer j.Close()
		apiOpts.Runs = j
	}

	p, err := buildPipeline(ctx, cfg, j)
	if err != nil {
		slog.Warn("planning pipeline unavailable", "error", err)
		apiOpts.Unavailable = err
	} else {
		apiOpts.Planner = p
	}

	fmt.Printf("\nplanstream running at http://localhost:%d?token=%s\n\n", cfg.Port, cfg.Token)

	srv := server.New(cfg, api.NewRouter(apiOpts))
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
