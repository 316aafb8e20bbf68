package main

import (
	"fmt"
	"math"

	"github.com/unklstewy/flightmatrix/internal/logging"
	"github.com/unklstewy/flightmatrix/internal/scheduler"
	"github.com/unklstewy/flightmatrix/internal/store"
	"github.com/unklstewy/flightmatrix/internal/telemetry"
	"github.com/unklstewy/flightmatrix/pkg/adsb"
	"github.com/unklstewy/flightmatrix/pkg/config"
	"github.com/unklstewy/flightmatrix/pkg/matrix"
	"github.com/unklstewy/flightmatrix/pkg/render"
)

// schedulerConfig converts the schedule settings.
func schedulerConfig(cfg *config.Config) scheduler.Config {
	s := cfg.Schedule
	return scheduler.Config{
		BoundingBox:     cfg.OpenSky.BoundingBox(),
		FetchInterval:   config.Seconds(s.FetchIntervalSeconds),
		FetchTimeout:    config.Seconds(s.FetchTimeoutSeconds),
		PageDuration:    config.Seconds(s.PageDurationSeconds),
		SummaryDuration: config.Seconds(s.SummaryDurationSeconds),
		IdleRetry:       config.Seconds(s.IdleRetrySeconds),
		NightPoll:       config.Seconds(s.NightPollSeconds),
		Pages:           cfg.Display.Pages,
	}
}

// layoutFor fits the text grid to the panel and font.
func layoutFor(cfg *config.Config, font *matrix.Font) render.Layout {
	layout := render.DefaultLayout()
	layout.Cols = cfg.Display.Cols
	layout.Rows = cfg.Display.Rows
	if advance := font.Glyph('M').Advance; advance > 0 {
		layout.CharWidth = advance
	}
	if h := font.Height() + 2; h > layout.LineHeight {
		layout.LineHeight = h
		layout.Top = font.Ascent + 1
	}
	return layout
}

func transitionFor(cfg *config.Config) (render.Sweep, error) {
	col, err := matrix.ParseColor(cfg.Display.TransitionColor)
	if err != nil {
		return render.Sweep{}, err
	}
	sweep := render.DefaultSweep()
	sweep.Steps = cfg.Schedule.TransitionSteps
	sweep.FrameDelay = config.Millis(cfg.Schedule.TransitionFrameMillis)
	// half the panel diagonal, whole pixels: 45 on a 64x64 panel
	sweep.Radius = math.Floor(math.Hypot(float64(cfg.Display.Cols), float64(cfg.Display.Rows)) / 2)
	sweep.Color = col
	return sweep, nil
}

func newScheduler(cfg *config.Config, source adsb.DataSource, surface matrix.Surface, font *matrix.Font,
	logger *logging.Logger, metrics *telemetry.Metrics) (*scheduler.Scheduler, error) {
	reference := cfg.Observer.Reference()

	loc, err := cfg.Observer.Location()
	if err != nil {
		return nil, err
	}
	night, err := scheduler.NewNightPolicy(cfg.Night.Enabled, cfg.Night.Policy,
		cfg.Night.StartHour, cfg.Night.EndHour, loc, reference)
	if err != nil {
		return nil, err
	}

	filter, err := store.ParseFilterPolicy(cfg.Store.Filter)
	if err != nil {
		return nil, err
	}
	unknown, err := store.ParseUnknownPositionPolicy(cfg.Store.UnknownPosition)
	if err != nil {
		return nil, err
	}

	textColor, err := matrix.ParseColor(cfg.Display.TextColor)
	if err != nil {
		return nil, fmt.Errorf("display.text_color: %w", err)
	}
	palette := render.DefaultPalette()
	palette.Text = textColor

	transition, err := transitionFor(cfg)
	if err != nil {
		return nil, fmt.Errorf("display.transition_color: %w", err)
	}

	labels := render.DefaultLabels().Merge(cfg.Labels.Airlines, cfg.Labels.Categories, cfg.Labels.DefaultAirline)

	return scheduler.New(schedulerConfig(cfg), scheduler.Dependencies{
		Source:     source,
		Store:      store.New(reference, store.Options{Filter: filter, UnknownPosition: unknown}),
		Renderer:   render.New(layoutFor(cfg, font), reference, labels, palette),
		Transition: transition,
		Surface:    surface,
		Night:      night,
		Clock:      scheduler.SystemClock(),
		Logger:     logger.With("component", "scheduler"),
		Metrics:    metrics,
	}), nil
}
