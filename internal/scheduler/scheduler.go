// Package scheduler drives the display: it decides when to fetch, what to
// show and when to go dark.
//
// The scheduler is a single cooperative loop. Each Step evaluates one tick
// of the state machine and blocks only in Clock.Sleep or in the bounded
// fetch, so cancelling the context stops it within one sleep slice.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/unklstewy/flightmatrix/internal/logging"
	"github.com/unklstewy/flightmatrix/internal/store"
	"github.com/unklstewy/flightmatrix/internal/telemetry"
	"github.com/unklstewy/flightmatrix/pkg/adsb"
	"github.com/unklstewy/flightmatrix/pkg/matrix"
	"github.com/unklstewy/flightmatrix/pkg/render"
)

// Pause after a failed tick before the next one
const errorBackoff = time.Second

var errTickPanic = errors.New("panic in display tick")

// Mode is the state of the display.
type Mode int

const (
	ModeFetching Mode = iota
	ModeSummary
	ModePaging
	ModeIdleEmpty
	ModeNight
)

var modeNames = []string{"FETCHING", "SUMMARY", "PAGING", "IDLE_EMPTY", "NIGHT"}

func (m Mode) String() string {
	if m >= 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Page kinds reported to metrics
const (
	kindSummary   = "summary"
	kindFlight    = "flight"
	kindNoFlights = "no_flights"
	kindError     = "error"
)

// Config holds the timing of the display cycle.
type Config struct {
	BoundingBox     adsb.BoundingBox
	FetchInterval   time.Duration
	FetchTimeout    time.Duration
	PageDuration    time.Duration
	SummaryDuration time.Duration // 0 skips the summary page
	IdleRetry       time.Duration
	NightPoll       time.Duration
	Pages           int // 1 shows the compact page, 2 the two-page view
}

// DefaultConfig returns the standard timings.
func DefaultConfig() Config {
	return Config{
		FetchInterval:   60 * time.Second,
		FetchTimeout:    10 * time.Second,
		PageDuration:    10 * time.Second,
		SummaryDuration: 10 * time.Second,
		IdleRetry:       10 * time.Second,
		NightPoll:       60 * time.Second,
		Pages:           2,
	}
}

// Dependencies are the collaborators the scheduler drives. Night, Clock,
// Logger and Metrics are optional.
type Dependencies struct {
	Source     adsb.DataSource
	Store      *store.Store
	Renderer   *render.Renderer
	Transition render.Sweep
	Surface    matrix.Surface
	Night      NightPolicy
	Clock      Clock
	Logger     *logging.Logger
	Metrics    *telemetry.Metrics
}

// Session is the observable state of the scheduler.
type Session struct {
	Mode        Mode
	LastSuccess time.Time
	NextAttempt time.Time
	LastError   error  // error of the most recent fetch, nil after a success
	Current     string // ICAO of the flight on screen while paging
	Page        int
}

// Scheduler runs the display state machine.
type Scheduler struct {
	cfg        Config
	source     adsb.DataSource
	store      *store.Store
	renderer   *render.Renderer
	transition render.Sweep
	surface    matrix.Surface
	night      NightPolicy
	clock      Clock
	log        *logging.Logger
	metrics    *telemetry.Metrics

	session Session
	resume  Mode // mode to return to when night ends
}

// New creates a scheduler. The first Step fetches immediately unless it is
// night.
func New(cfg Config, deps Dependencies) *Scheduler {
	if cfg.Pages < 1 {
		cfg.Pages = 1
	}
	if deps.Night == nil {
		deps.Night = neverNight{}
	}
	if deps.Clock == nil {
		deps.Clock = SystemClock()
	}
	s := &Scheduler{
		cfg:        cfg,
		source:     deps.Source,
		store:      deps.Store,
		renderer:   deps.Renderer,
		transition: deps.Transition,
		surface:    deps.Surface,
		night:      deps.Night,
		clock:      deps.Clock,
		log:        deps.Logger,
		metrics:    deps.Metrics,
	}
	s.metrics.SetMode(s.session.Mode.String(), modeNames)
	return s
}

// Session returns a copy of the current state.
func (s *Scheduler) Session() Session {
	return s.session
}

// Run steps the state machine until ctx is cancelled. The surface is
// cleared before Run returns.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info("Display scheduler started",
		"fetch_interval", s.cfg.FetchInterval,
		"page_duration", s.cfg.PageDuration,
		"pages", s.cfg.Pages)
	defer s.clear()

	for ctx.Err() == nil {
		if err := s.Step(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			s.log.Warnf("Display tick failed: %v", err)
			if err := s.clock.Sleep(ctx, errorBackoff); err != nil {
				break
			}
		}
	}

	s.log.Info("Display scheduler stopped")
	return nil
}

// Step evaluates one tick: night handling, a due fetch, or the display
// action of the current mode.
func (s *Scheduler) Step(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorf("PANIC in display tick: %v", r)
			err = errTickPanic
		}
	}()

	now := s.clock.Now()
	if s.night.IsNight(now) {
		return s.stepNight(ctx)
	}
	if s.session.Mode == ModeNight {
		s.log.Info("Night mode ended, display on")
		s.setMode(s.resume)
	}

	if s.fetchDue(now) {
		return s.fetch(ctx)
	}

	switch s.session.Mode {
	case ModeSummary:
		return s.stepSummary(ctx)
	case ModePaging:
		return s.stepPaging(ctx)
	case ModeIdleEmpty:
		return s.stepIdleEmpty(ctx)
	default:
		return s.stepWaiting(ctx, now)
	}
}

func (s *Scheduler) fetchDue(now time.Time) bool {
	return !now.Before(s.session.NextAttempt)
}

// interrupted reports whether paging should stop for a fetch or for night.
func (s *Scheduler) interrupted() bool {
	now := s.clock.Now()
	return s.fetchDue(now) || s.night.IsNight(now)
}

func (s *Scheduler) stepNight(ctx context.Context) error {
	if s.session.Mode != ModeNight {
		s.resume = s.session.Mode
		s.setMode(ModeNight)
		s.log.Info("Night mode, display off")
		s.clear()
	}
	return s.clock.Sleep(ctx, s.cfg.NightPoll)
}

// fetch refreshes the queue. A failed fetch is not a tick error: the queue
// and mode are kept and the next attempt is pushed back.
func (s *Scheduler) fetch(ctx context.Context) error {
	previous := s.session.Mode
	s.setMode(ModeFetching)

	fetchCtx := ctx
	if s.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.cfg.FetchTimeout)
		defer cancel()
	}

	start := s.clock.Now()
	raws, err := s.source.FetchStates(fetchCtx, s.cfg.BoundingBox)
	now := s.clock.Now()
	elapsed := now.Sub(start)

	if err != nil {
		s.setMode(previous)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		delay := adsb.NextFetchDelay(err, s.cfg.FetchInterval)
		s.session.LastError = err
		s.session.NextAttempt = now.Add(delay)
		s.metrics.FetchFailed(elapsed)
		s.writeMetrics()

		lastSuccess := "never"
		if !s.session.LastSuccess.IsZero() {
			lastSuccess = humanize.RelTime(s.session.LastSuccess, now, "ago", "from now")
		}
		s.log.Warnf("Fetch failed, keeping %d queued flights (last success %s, retry in %v): %v",
			s.store.Len(), lastSuccess, delay, err)
		return nil
	}

	result := s.store.Refresh(raws)
	s.session.LastSuccess = now
	s.session.LastError = nil
	s.session.NextAttempt = now.Add(s.cfg.FetchInterval)
	s.metrics.FetchSucceeded(elapsed, result.Kept, result.Malformed, result.Filtered)
	s.writeMetrics()

	s.log.Infof("✓ Fetched %d states: %d queued, %d malformed, %d filtered",
		result.Received, result.Kept, result.Malformed, result.Filtered)
	if n := s.store.Outside(s.cfg.BoundingBox); n > 0 {
		s.log.Debugf("%d queued states report a position outside the requested area", n)
	}

	if s.store.IsEmpty() {
		s.setMode(ModeIdleEmpty)
	} else {
		s.setMode(ModeSummary)
	}
	return nil
}

func (s *Scheduler) stepSummary(ctx context.Context) error {
	if s.cfg.SummaryDuration > 0 {
		if err := s.playTransition(ctx); err != nil {
			return err
		}
		now := s.clock.Now()
		s.present(s.renderer.Summary(s.store.Snapshot(), s.session.LastSuccess, now), kindSummary)
		if err := s.clock.Sleep(ctx, s.cfg.SummaryDuration); err != nil {
			return err
		}
	}
	s.setMode(ModePaging)
	return nil
}

// stepPaging shows every page of the flight at the front of the queue and
// puts it back at the end, also when interrupted between pages.
func (s *Scheduler) stepPaging(ctx context.Context) error {
	rec, ok := s.store.Next()
	if !ok {
		if s.session.LastSuccess.IsZero() {
			return s.stepWaiting(ctx, s.clock.Now())
		}
		s.setMode(ModeIdleEmpty)
		return nil
	}

	s.session.Current = rec.ICAO
	defer func() {
		s.store.Requeue(rec)
		s.session.Current = ""
		s.session.Page = 0
	}()

	for page := 0; page < s.cfg.Pages; page++ {
		if page > 0 && s.interrupted() {
			s.log.Debug("Paging interrupted", "icao", rec.ICAO, "page", page)
			return nil
		}
		s.session.Page = page
		if err := s.playTransition(ctx); err != nil {
			return err
		}

		var instructions []render.Instruction
		if s.cfg.Pages == 1 {
			instructions = s.renderer.Compact(rec)
		} else {
			instructions = s.renderer.Page(rec, page)
		}
		s.present(instructions, kindFlight)

		if err := s.clock.Sleep(ctx, s.cfg.PageDuration); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) stepIdleEmpty(ctx context.Context) error {
	s.present(s.renderer.NoFlights(), kindNoFlights)
	if err := s.clock.Sleep(ctx, s.cfg.IdleRetry); err != nil {
		return err
	}
	// A failed fetch keeps its back-off
	if s.session.LastError == nil {
		s.session.NextAttempt = s.clock.Now()
	}
	return nil
}

// stepWaiting covers the time before the first successful fetch.
func (s *Scheduler) stepWaiting(ctx context.Context, now time.Time) error {
	if !s.store.IsEmpty() {
		s.setMode(ModePaging)
		return nil
	}

	s.present(s.renderer.FetchError(), kindError)
	wait := s.session.NextAttempt.Sub(now)
	if wait > s.cfg.IdleRetry {
		wait = s.cfg.IdleRetry
	}
	if wait <= 0 {
		return nil
	}
	return s.clock.Sleep(ctx, wait)
}

func (s *Scheduler) playTransition(ctx context.Context) error {
	if err := s.transition.Play(ctx, s.surface, s.clock); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.log.Warnf("Transition failed: %v", err)
	}
	return nil
}

func (s *Scheduler) present(instructions []render.Instruction, kind string) {
	frame := s.surface.NewFrame()
	render.Draw(frame, instructions)
	if err := s.surface.Present(frame); err != nil {
		s.log.Warnf("Failed to present %s page: %v", kind, err)
		return
	}
	s.metrics.PageRendered(kind)
}

func (s *Scheduler) clear() {
	if err := s.surface.Clear(); err != nil {
		s.log.Warnf("Failed to clear display: %v", err)
	}
}

func (s *Scheduler) setMode(m Mode) {
	if s.session.Mode == m {
		return
	}
	s.log.Debug("Mode changed", "from", s.session.Mode.String(), "to", m.String())
	s.session.Mode = m
	s.metrics.SetMode(m.String(), modeNames)
}

func (s *Scheduler) writeMetrics() {
	if err := s.metrics.WriteTextfile(); err != nil {
		s.log.Warnf("%v", err)
	}
}
