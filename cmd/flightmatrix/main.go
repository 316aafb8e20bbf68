package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/unklstewy/flightmatrix/internal/logging"
	"github.com/unklstewy/flightmatrix/internal/telemetry"
	"github.com/unklstewy/flightmatrix/pkg/adsb"
	"github.com/unklstewy/flightmatrix/pkg/config"
	"github.com/unklstewy/flightmatrix/pkg/matrix"
)

var version = "dev"

// flightmatrix polls OpenSky for flights around the observer and cycles
// through them on the LED matrix until interrupted.
func main() {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags]\n\nShows nearby flights on a pixel matrix.\n\nFlags:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("flightmatrix %s\n", version)
		return
	}

	// Credentials usually live in .env next to the binary
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

	if err := run(cfg, *configPath); err != nil {
		if errors.Is(err, matrix.ErrSurfaceUnavailable) {
			log.Fatalf("Display unavailable: %v", err)
		}
		log.Fatalf("flightmatrix: %v", err)
	}
}

func run(cfg *config.Config, configPath string) error {
	// The terminal backend owns the screen, so logs must go elsewhere
	if cfg.Display.Backend == matrix.BackendTerminal && cfg.Logging.File == "" {
		cfg.Logging.File = "flightmatrix.log"
		log.Printf("Terminal backend selected, logging to %s", cfg.Logging.File)
	}

	logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, File: cfg.Logging.File})
	if err != nil {
		return err
	}
	defer logger.Close()

	for _, line := range figure.NewFigure("FLIGHTMATRIX", "", false).Slicify() {
		logger.Info(line)
	}
	logger.LogSystemInfo(version)
	logger.Infof("Configuration loaded from: %s", configPath)
	logger.Infof("Observer: %s at %.4f, %.4f (%s)",
		cfg.Observer.Name, cfg.Observer.Latitude, cfg.Observer.Longitude, cfg.Observer.TimeZone)
	logger.Infof("Area: %.4f to %.4f N, %.4f to %.4f E",
		cfg.OpenSky.MinLatitude, cfg.OpenSky.MaxLatitude, cfg.OpenSky.MinLongitude, cfg.OpenSky.MaxLongitude)

	font, err := loadFont(cfg.Display.FontPath)
	if err != nil {
		return err
	}

	surface, err := matrix.Open(matrix.Options{
		Backend:    cfg.Display.Backend,
		Cols:       cfg.Display.Cols,
		Rows:       cfg.Display.Rows,
		Brightness: cfg.Display.Brightness,
		Font:       font,
	})
	if err != nil {
		return err
	}
	defer surface.Close()
	logger.Infof("✓ Display ready: %s %dx%d, brightness %d%%",
		cfg.Display.Backend, cfg.Display.Cols, cfg.Display.Rows, cfg.Display.Brightness)

	client := adsb.NewOpenSkyClient(cfg.OpenSky.Options(config.Seconds(cfg.Schedule.FetchTimeoutSeconds)))
	defer client.Close()
	if client.Authenticated() {
		logger.Info("✓ OpenSky OAuth2 client credentials configured")
	} else {
		logger.Info("Using anonymous OpenSky access")
	}

	metrics := telemetry.New(cfg.Metrics.TextfilePath)
	if cfg.Metrics.TextfilePath != "" {
		logger.Infof("Writing metrics to %s", cfg.Metrics.TextfilePath)
	}

	sched, err := newScheduler(cfg, client, surface, font, logger, metrics)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if in, ok := surface.(matrix.Interruptible); ok {
		in.NotifyInterrupt(stop)
		logger.Info("Press Ctrl-C or Esc to quit")
	}

	err = sched.Run(ctx)
	logger.Info("Shutdown complete")
	return err
}

func loadFont(path string) (*matrix.Font, error) {
	if path == "" {
		return matrix.DefaultFont(), nil
	}
	font, err := matrix.LoadBDF(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	return font, nil
}
