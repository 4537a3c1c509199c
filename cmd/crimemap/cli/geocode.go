package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/crimemap/crimemap/internal/explorer"
	"github.com/crimemap/crimemap/internal/geocode"
)

func newGeocodeCmd() *cobra.Command {
	var (
		reverse string
		block   bool
	)

	cmd := &cobra.Command{
		Use:   "geocode [query]",
		Short: "Resolve a place name or block address through the configured geocoder",
		Example: `  crimemap geocode "Como Park"
  crimemap geocode --block "98X UNIVERSITY AV W"
  crimemap geocode --reverse 44.9537,-93.0900`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg.Logging, false)
			geo, release := newGeocoder(cfg, logger)
			defer release()

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			if reverse != "" {
				loc, err := parseLatLon(reverse)
				if err != nil {
					return err
				}
				label, err := geo.Reverse(ctx, loc)
				if err != nil {
					return fmt.Errorf("reverse %s: %w", loc, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), label)
				return nil
			}

			if len(args) == 0 {
				return fmt.Errorf("specify a query or use --reverse lat,lon")
			}
			q := args[0]
			if block {
				q = explorer.LocateQuery(q, cfg.Geocoder.City)
			}
			loc, err := geo.Forward(ctx, q)
			if err != nil {
				return fmt.Errorf("locate %q: %w", q, err)
			}
			if loc.Label != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n  at %s\n", loc.Label, loc)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), loc)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&reverse, "reverse", "", "Reverse-geocode coordinates given as lat,lon")
	cmd.Flags().BoolVar(&block, "block", false, "Treat the query as an incident block (expand 98X, append the city)")

	return cmd
}

func parseLatLon(s string) (geocode.Location, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return geocode.Location{}, fmt.Errorf("invalid coordinates %q: want lat,lon", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return geocode.Location{}, fmt.Errorf("invalid latitude %q", parts[0])
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return geocode.Location{}, fmt.Errorf("invalid longitude %q", parts[1])
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return geocode.Location{}, fmt.Errorf("coordinates %q out of range", s)
	}
	return geocode.Location{Lat: lat, Lon: lon}, nil
}
