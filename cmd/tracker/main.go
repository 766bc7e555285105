package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/theoremus-urban-solutions/trajectory-tracker/config"
	"github.com/theoremus-urban-solutions/trajectory-tracker/formatter"
	"github.com/theoremus-urban-solutions/trajectory-tracker/internal"
	"github.com/theoremus-urban-solutions/trajectory-tracker/layer"
	"github.com/theoremus-urban-solutions/trajectory-tracker/tracking"
)

func main() {
	mode := flag.String("mode", "serve", "serve|oneshot")
	configPath := flag.String("config", "", "path to config.yml")
	url := flag.String("url", "", "trajectory feed URL or file (overrides config)")
	at := flag.String("time", "", "virtual start time, RFC3339 (default now)")
	speed := flag.Float64("speed", -1, "playback speed (overrides config)")
	out := flag.String("out", "frame.png", "PNG output path for oneshot mode")
	flag.Parse()

	internal.InitLogging()
	var paths []string
	if *configPath != "" {
		paths = append(paths, *configPath)
	}
	if err := config.LoadAppConfig(paths...); err != nil {
		if *configPath != "" {
			log.Fatalf("failed to load config: %v", err)
		}
		log.Printf("no config file, using defaults: %v", err)
		config.Config = config.Default()
	}
	cfg := config.Config
	if *url != "" {
		cfg.Feed.URL = *url
		cfg.Feed.VehiclePositionsURL = *url
	}

	view := newMercatorView(cfg.View.CenterLon, cfg.View.CenterLat, cfg.View.Zoom, cfg.View.Width, cfg.View.Height)
	canvas := newImageCanvas(cfg.View.Width, cfg.View.Height)
	fetcher, feedURL, err := newFetcher(cfg.Feed)
	if err != nil {
		log.Fatal(err)
	}

	opts := layer.OptionsFromConfig(cfg)
	opts.URL = feedURL
	if *speed >= 0 {
		opts = opts.WithSpeed(*speed)
	}
	l, err := layer.New(view, canvas, fetcher, opts)
	if err != nil {
		log.Fatalf("failed to create layer: %v", err)
	}
	if *at != "" {
		t, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			log.Fatalf("invalid -time: %v", err)
		}
		l.SetTime(t)
	}
	l.OnClick(func(hit *tracking.Trajectory, _ any) {
		if hit != nil {
			log.Printf("vehicle %s (%s) selected", hit.ID, hit.Name)
		}
	})

	switch *mode {
	case "oneshot":
		if err := oneshot(l, canvas, *out); err != nil {
			log.Fatal(err)
		}
	case "serve":
		if err := run(l, view, canvas, cfg.Server.Port); err != nil {
			log.Fatal(err)
		}
	default:
		log.Fatalf("unknown mode %q", *mode)
	}
}

// oneshot loads trajectories once, renders a single frame to out and prints
// the positions snapshot.
func oneshot(l *layer.Layer, canvas *imageCanvas, out string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := l.Refresh(ctx); err != nil {
		return err
	}
	var buf []byte
	stats, err := l.RenderCapture(func() (err error) {
		buf, err = canvas.PNG()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	log.Printf("rendered %d vehicles (%d expired, %d failed, %d hidden)",
		stats.Drawn, stats.Expired, stats.Failed, stats.Hidden)

	if err := os.WriteFile(out, buf, 0644); err != nil {
		return err
	}
	snap := formatter.BuildSnapshot(l.Tracker(), l.Time(), l.Speed())
	fmt.Println(string(formatter.NewResponseBuilder().BuildJSON(snap)))
	return nil
}

// run plays back trajectories and serves them until SIGINT or SIGTERM.
func run(l *layer.Layer, view *mercatorView, canvas *imageCanvas, port int) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		l.Start(ctx)
		<-ctx.Done()
		l.Destroy()
		log.Printf("playback stopped")
		return nil
	})
	g.Go(func() error {
		return serve(ctx, port, newServer(l, view, canvas).routes())
	})
	return g.Wait()
}
