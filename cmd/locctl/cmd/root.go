// Package cmd implements locctl, an operator CLI for the location service's
// persisted state and geocoding gateway.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/weather-location-service/internal/app"
	"github.com/couchcryptid/weather-location-service/internal/config"
	"github.com/couchcryptid/weather-location-service/internal/observability"
)

// metrics is shared by every command built in this process so the default
// registry sees each collector once.
var metrics = sync.OnceValue(observability.NewMetrics)

type rootOptions struct {
	envFile string
	verbose bool
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "locctl",
		Short: "Inspect and drive the weather location service",
		Long: `locctl works against the same configuration and state backend as the
locator service. It can run a geolocation attempt, query the geocoder,
and inspect or reset the cached location and unit preference.

Configuration is read from the environment, after loading --env-file.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log component activity to stderr")

	root.AddCommand(
		newResolveCommand(opts),
		newSearchCommand(opts),
		newCacheCommand(opts),
		newUnitCommand(opts),
	)
	return root
}

// loadConfig reads the dotenv file and the environment.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(o.envFile); err != nil {
		return nil, err
	}
	return config.Load()
}

func (o *rootOptions) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelError
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// build wires the full service for commands that need it. The caller closes the app.
func (o *rootOptions) build(cmd *cobra.Command) (*app.App, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(cmd.Context(), cfg, o.logger(cmd), metrics())
}
