package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/weather-location-service/internal/coordinator"
	"github.com/couchcryptid/weather-location-service/internal/geolocation"
)

type resolveOutput struct {
	Geolocation geolocation.Status   `json:"geolocation"`
	FromCache   bool                 `json:"from_cache"`
	Location    coordinator.Snapshot `json:"location"`
}

func newResolveCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve",
		Short: "Run one geolocation attempt and print the result",
		Long: `Run one geolocation attempt with the configured device source. A fresh
cached location is used without touching the device or the geocoder.
When weather is configured the forecast for the result is fetched too.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.build(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			a.Coordinator.Start(cmd.Context())
			result, err := a.Resolver.Resolve(cmd.Context())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resolveOutput{
				Geolocation: a.Resolver.Status(),
				FromCache:   result.FromCache,
				Location:    a.Coordinator.Snapshot(),
			})
		},
	}
}
