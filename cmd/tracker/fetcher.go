package main

import (
	"fmt"
	"log"
	"time"

	"github.com/theoremus-urban-solutions/trajectory-tracker/config"
	"github.com/theoremus-urban-solutions/trajectory-tracker/feed"
	"github.com/theoremus-urban-solutions/trajectory-tracker/gtfs"
	"github.com/theoremus-urban-solutions/trajectory-tracker/gtfsrt"
)

// newFetcher picks the trajectory source for the configured feed format and
// returns it with the URL the layer should poll.
func newFetcher(cfg config.FeedConfig) (feed.Fetcher, string, error) {
	client := feed.NewClient(time.Duration(cfg.TimeoutMS) * time.Millisecond)
	if cfg.Format != "gtfsrt" {
		return client, cfg.URL, nil
	}

	url := cfg.VehiclePositionsURL
	if url == "" {
		url = cfg.URL
	}
	opts := []gtfsrt.Option{
		gtfsrt.WithTripUpdates(cfg.TripUpdatesURL),
		gtfsrt.WithRouteTypes(cfg.RouteTypes),
	}
	if cfg.HoldSeconds > 0 {
		opts = append(opts, gtfsrt.WithHold(time.Duration(cfg.HoldSeconds)*time.Second))
	}
	if cfg.GTFSPath != "" {
		idx, err := gtfs.LoadFile(cfg.GTFSPath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load GTFS static feed: %w", err)
		}
		log.Printf("GTFS static feed loaded: %d routes, %d trips", idx.RouteCount(), idx.TripCount())
		opts = append(opts, gtfsrt.WithStaticIndex(idx))
	}
	return gtfsrt.NewSource(client, opts...), url, nil
}
