package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/weather-location-service/internal/app"
	"github.com/couchcryptid/weather-location-service/internal/domain"
)

func newSearchCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Query the geocoder for place suggestions",
		Long: `Send one forward search to the configured geocoder and print the
suggestions in provider order. Text shorter than two characters returns
nothing without a request.

Examples:
  locctl search kampala
  locctl search "new york" --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			geocoder := app.NewGeocoder(cfg, metrics(), opts.logger(cmd))

			suggestions, err := geocoder.ForwardSearch(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(suggestions)
			}
			printSuggestions(cmd, suggestions)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print suggestions as JSON")
	return cmd
}

func printSuggestions(cmd *cobra.Command, suggestions []domain.PlaceSuggestion) {
	out := cmd.OutOrStdout()
	if len(suggestions) == 0 {
		fmt.Fprintln(out, "No results")
		return
	}
	for i, s := range suggestions {
		fmt.Fprintf(out, "%d. %s (%s)\n", i+1, s.DisplayName, s.Coordinates().String())
	}
}
