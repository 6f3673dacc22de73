package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/logger"
	"wedding-rsvp/internal/storage"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:           "wedding-rsvp",
	Short:         "Wedding guest list, signup and RSVP service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (yaml, json or toml)")
	rootCmd.AddCommand(serveCmd(), guestsCmd(), eventsCmd(), rsvpsCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

// app holds what every command needs
type app struct {
	cfg   *config.Config
	log   zerolog.Logger
	store *storage.Storage
	// closers run before the store is closed
	closers []func() error
}

func openApp() (*app, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	store, err := storage.NewStorage(cfg.Database, logger.Component(log, "Storage"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return &app{cfg: cfg, log: log, store: store}, nil
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.log.Warn().Err(err).Msg("Failed to close resource")
		}
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("Failed to close storage")
	}
}
