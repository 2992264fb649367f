package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/weather-location-service/internal/app"
	"github.com/couchcryptid/weather-location-service/internal/loccache"
)

func newCacheCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the cached geolocation result",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the cached location and its age",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := opts.build(cmd)
				if err != nil {
					return err
				}
				defer a.Close()
				return showCache(cmd, a)
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove the cached location so the next attempt asks the device",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := opts.build(cmd)
				if err != nil {
					return err
				}
				defer a.Close()
				if err := a.Cache.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Cached location cleared")
				return nil
			},
		},
	)
	return cmd
}

func showCache(cmd *cobra.Command, a *app.App) error {
	out := cmd.OutOrStdout()
	entry, found := a.Cache.Read(cmd.Context())
	if !found {
		fmt.Fprintln(out, "No cached location")
		return nil
	}
	freshness := "stale"
	if a.Cache.IsFresh(entry) {
		freshness = "fresh"
	}
	fmt.Fprintf(out, "%s (stored %s, %s, ttl %s)\n",
		entry.Value, entry.StoredAt.Format(time.RFC3339), freshness, loccache.TTL)
	return nil
}

func newUnitCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unit",
		Short: "Show or toggle the temperature unit preference",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the stored unit",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := opts.build(cmd)
				if err != nil {
					return err
				}
				defer a.Close()
				u, err := a.Units.Load(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), u)
				return nil
			},
		},
		&cobra.Command{
			Use:   "toggle",
			Short: "Flip between C and F and store the result",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := opts.build(cmd)
				if err != nil {
					return err
				}
				defer a.Close()
				a.Coordinator.Start(cmd.Context())
				u, err := a.Coordinator.ToggleUnit(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), u)
				return nil
			},
		},
	)
	return cmd
}
