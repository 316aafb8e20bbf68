package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/unklstewy/flightmatrix/internal/store"
	"github.com/unklstewy/flightmatrix/pkg/adsb"
	"github.com/unklstewy/flightmatrix/pkg/config"
	"github.com/unklstewy/flightmatrix/pkg/coordinates"
	"github.com/unklstewy/flightmatrix/pkg/render"
)

// main is a test program to verify OpenSky integration.
// It fetches the configured area once (or repeatedly with -once=false) and
// prints the flights in display order with the values the pages would show.
func main() {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	once := flag.Bool("once", true, "Fetch once and exit; otherwise repeat every fetch interval")
	limit := flag.Int("limit", 10, "Maximum number of flights to print per fetch")
	flag.Parse()

	log.Println("OpenSky Data Source Test")
	log.Println("=====================================")

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			log.Printf("Error loading .env file: %v", err)
		}
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	reference := cfg.Observer.Reference()
	box := cfg.OpenSky.BoundingBox()
	log.Printf("Observer Location: %.4f, %.4f (%s)", reference.Latitude, reference.Longitude, cfg.Observer.Name)
	log.Printf("Area: lat %.4f..%.4f, lon %.4f..%.4f", box.MinLatitude, box.MaxLatitude, box.MinLongitude, box.MaxLongitude)

	client := adsb.NewOpenSkyClient(cfg.OpenSky.Options(config.Seconds(cfg.Schedule.FetchTimeoutSeconds)))
	defer client.Close()
	if client.Authenticated() {
		log.Println("Using OAuth2 client credentials")
	} else {
		log.Println("Using anonymous access")
	}

	filter, err := store.ParseFilterPolicy(cfg.Store.Filter)
	if err != nil {
		log.Fatalf("Invalid store filter: %v", err)
	}
	unknown, err := store.ParseUnknownPositionPolicy(cfg.Store.UnknownPosition)
	if err != nil {
		log.Fatalf("Invalid unknown position policy: %v", err)
	}
	queue := store.New(reference, store.Options{Filter: filter, UnknownPosition: unknown})
	labels := render.DefaultLabels().Merge(cfg.Labels.Airlines, cfg.Labels.Categories, cfg.Labels.DefaultAirline)
	renderer := render.New(render.DefaultLayout(), reference, labels, render.DefaultPalette())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	interval := config.Seconds(cfg.Schedule.FetchIntervalSeconds)
	for {
		delay := interval
		if err := fetchAndPrint(ctx, client, box, queue, renderer, labels, *limit); err != nil {
			log.Printf("Fetch failed: %v", err)
			if *once {
				os.Exit(1)
			}
			delay = adsb.NextFetchDelay(err, interval)
		}
		if *once {
			break
		}

		log.Printf("Next fetch in %v", delay)
		select {
		case <-ctx.Done():
			log.Println("Interrupted")
			return
		case <-time.After(delay):
		}
	}

	log.Println("=====================================")
	log.Println("Test complete!")
}

func fetchAndPrint(ctx context.Context, client *adsb.OpenSkyClient, box adsb.BoundingBox,
	queue *store.Store, renderer *render.Renderer, labels render.Labels, limit int) error {
	start := time.Now()
	raws, err := client.FetchStates(ctx, box)
	if err != nil {
		if rle, ok := adsb.IsRateLimitError(err); ok && rle.Headers.Remaining >= 0 {
			log.Printf("Rate limit: %d requests remaining", rle.Headers.Remaining)
		}
		return err
	}

	result := queue.Refresh(raws)
	log.Printf("Fetched %d states in %v: %d queued, %d malformed, %d filtered",
		result.Received, time.Since(start).Round(time.Millisecond), result.Kept, result.Malformed, result.Filtered)
	log.Println("=====================================")

	now := time.Now()
	for i, rec := range queue.Snapshot() {
		if i >= limit {
			log.Printf("\n... and %d more aircraft", queue.Len()-limit)
			break
		}

		log.Printf("\nAircraft #%d:", i+1)
		log.Printf("  ICAO:     %s", rec.ICAO)
		log.Printf("  Callsign: %s (%s)", rec.DisplayName(), labels.Airline(rec.Callsign))
		log.Printf("  Type:     %s", labels.CategoryOrOrigin(rec))
		log.Printf("  %s", render.AltitudeText(rec))
		log.Printf("  %s", render.SpeedText(rec))
		log.Printf("  %s", render.VerticalRateText(rec))
		log.Printf("  %s", renderer.DistanceText(rec, true))
		if rec.Position != nil {
			log.Printf("  Position: %.4f, %.4f (bearing %.0f°)", rec.Position.Latitude, rec.Position.Longitude,
				coordinates.Bearing(queue.Reference(), *rec.Position))
		}
		log.Printf("  Squawk:   %s", rec.Squawk)
		if rec.OnGround {
			log.Printf("  Status:   GROUND")
		} else {
			log.Printf("  Status:   AIRBORNE")
		}
	}

	log.Printf("\nFetched %s", humanize.RelTime(start, now, "ago", "from now"))
	return nil
}
