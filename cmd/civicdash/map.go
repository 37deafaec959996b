package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nhle/civic-dashboard/internal/api"
	"github.com/nhle/civic-dashboard/internal/filter"
	"github.com/nhle/civic-dashboard/internal/geo"
	"github.com/nhle/civic-dashboard/internal/model"
)

var mapCmd = &cobra.Command{
	Use:     "map",
	Short:   "Cluster issues by location",
	Long:    "Fetches the map issue set, applies the filters and radius locally and prints one row per location.",
	GroupID: "issues",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := filterFromFlags(cmd)
		if err != nil {
			return err
		}

		var loc filter.SetLocation
		if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
			lat, _ := cmd.Flags().GetFloat64("lat")
			lon, _ := cmd.Flags().GetFloat64("lon")
			loc.Center = &model.LatLng{Latitude: lat, Longitude: lon}
		} else if cfg.Map.Home != nil {
			home := *cfg.Map.Home
			loc.Center = &home
		}
		if cmd.Flags().Changed("radius") {
			r, _ := cmd.Flags().GetFloat64("radius")
			loc.RadiusKm = &r
		} else {
			r := cfg.Map.RadiusKm
			loc.RadiusKm = &r
		}
		s = filter.Reduce(s, loc)

		page, err := client.ListIssues(context.Background(), filter.MapParams(s, cfg.Map.PageSize))
		issues := page.Issues
		if err != nil {
			if !api.IsTransport(err) {
				return fmt.Errorf("loading map issues: %s", api.Message(err))
			}
			saved, serr := snapshotIssues(filter.Reduce(filter.Default(), filter.Update{
				Search: &s.Search,
				Limit:  &cfg.Map.PageSize,
			}))
			if serr != nil {
				return fmt.Errorf("loading map issues: %s", api.Message(err))
			}
			fmt.Fprintln(os.Stderr, "Server unreachable, showing the saved snapshot")
			issues = saved
		}

		var area *model.Bounds
		if b, _ := cmd.Flags().GetFloat64Slice("bounds"); len(b) == 4 {
			area = &model.Bounds{North: b[0], South: b[1], East: b[2], West: b[3]}
		} else if len(b) != 0 {
			return fmt.Errorf("--bounds takes north,south,east,west")
		}

		criteria := filter.Criteria(s, area)
		clusters := geo.FilterAndCluster(issues, criteria)
		stats := geo.Summarize(geo.Filter(issues, criteria))

		if jsonOutput {
			printJSON(struct {
				Stats    geo.Stats     `json:"stats"`
				Clusters []geo.Cluster `json:"clusters"`
			}{stats, clusters})
			return nil
		}

		fmt.Printf("%d issues · %d resolved · %d in progress · %d pending\n\n",
			stats.Total, stats.Resolved, stats.InProgress, stats.Pending)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "LOCATION\tISSUES\tDISTANCE\tFIRST")
		for _, c := range clusters {
			dist := "-"
			if criteria.User != nil {
				d := geo.DistanceKm(*criteria.User, model.LatLng{Latitude: c.Latitude, Longitude: c.Longitude})
				dist = fmt.Sprintf("%.1f km", d)
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", c.Key, c.Count(), dist, truncate(c.Issues[0].Title, 50))
		}
		w.Flush()
		return nil
	},
}

func init() {
	addFilterFlags(mapCmd)
	mapCmd.Flags().Float64("lat", 0, "your latitude")
	mapCmd.Flags().Float64("lon", 0, "your longitude")
	mapCmd.Flags().Float64("radius", 0, "radius in km around your position")
	mapCmd.Flags().Float64Slice("bounds", nil, "area bounds as north,south,east,west")
}
