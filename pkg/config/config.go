package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/unklstewy/flightmatrix/pkg/adsb"
	"github.com/unklstewy/flightmatrix/pkg/coordinates"
	"github.com/unklstewy/flightmatrix/pkg/matrix"
)

// Config represents the complete application configuration.
type Config struct {
	Display  DisplayConfig  `json:"display"`
	Schedule ScheduleConfig `json:"schedule"`
	Night    NightConfig    `json:"night"`
	Observer ObserverConfig `json:"observer"`
	OpenSky  OpenSkyConfig  `json:"opensky"`
	Store    StoreConfig    `json:"store"`
	Labels   LabelsConfig   `json:"labels"`
	Logging  LoggingConfig  `json:"logging"`
	Metrics  MetricsConfig  `json:"metrics"`
}

// DisplayConfig describes the pixel surface.
type DisplayConfig struct {
	// Backend is the draw surface: "console" or "terminal"
	Backend string `json:"backend"`

	// Rows and Cols are the panel resolution in pixels
	Rows int `json:"rows"`
	Cols int `json:"cols"`

	// Brightness scales presented colors, 0-100
	Brightness int `json:"brightness"`

	// FontPath is a BDF font file. Empty uses the built-in font.
	FontPath string `json:"font_path"`

	// Pages is 1 for the compact single page, 2 for identity and telemetry pages
	Pages int `json:"pages"`

	// TextColor is the main text color as #rrggbb
	TextColor string `json:"text_color"`

	// TransitionColor is the sweep color as #rrggbb
	TransitionColor string `json:"transition_color"`
}

// ScheduleConfig contains the display cycle timings.
type ScheduleConfig struct {
	FetchIntervalSeconds   int `json:"fetch_interval_seconds"`
	FetchTimeoutSeconds    int `json:"fetch_timeout_seconds"`
	PageDurationSeconds    int `json:"page_duration_seconds"`
	SummaryDurationSeconds int `json:"summary_duration_seconds"` // 0 disables the summary page
	IdleRetrySeconds       int `json:"idle_retry_seconds"`
	NightPollSeconds       int `json:"night_poll_seconds"`
	TransitionSteps        int `json:"transition_steps"` // 0 disables the sweep
	TransitionFrameMillis  int `json:"transition_frame_millis"`
}

// NightConfig controls when the display is switched off.
type NightConfig struct {
	Enabled bool `json:"enabled"`

	// Policy is "hours" (StartHour to EndHour in the observer time zone)
	// or "solar" (sun below the horizon at the observer)
	Policy string `json:"policy"`

	StartHour int `json:"start_hour"`
	EndHour   int `json:"end_hour"`
}

// ObserverConfig is the reference point distances are measured from.
type ObserverConfig struct {
	// Name is a friendly identifier for this location
	Name string `json:"name"`

	// Latitude in decimal degrees (-90 to +90)
	Latitude float64 `json:"latitude"`

	// Longitude in decimal degrees (-180 to +180)
	Longitude float64 `json:"longitude"`

	// Elevation in meters above sea level
	Elevation float64 `json:"elevation"`

	// TimeZone is the IANA timezone name used for night hours
	TimeZone string `json:"timezone"`
}

// OpenSkyConfig contains the OpenSky Network API settings.
type OpenSkyConfig struct {
	BaseURL  string `json:"base_url"`
	TokenURL string `json:"token_url"`

	// ClientID and ClientSecret enable OAuth2 client credentials.
	// Both empty means anonymous access.
	ClientID     string `json:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`

	// MinRequestIntervalSeconds is the minimum time between API calls
	MinRequestIntervalSeconds int `json:"min_request_interval_seconds"`

	// Bounding box of the area to fetch
	MinLatitude  float64 `json:"min_latitude"`
	MaxLatitude  float64 `json:"max_latitude"`
	MinLongitude float64 `json:"min_longitude"`
	MaxLongitude float64 `json:"max_longitude"`
}

// StoreConfig selects the queue policies.
type StoreConfig struct {
	// Filter is "all" or "displayable"
	Filter string `json:"filter"`

	// UnknownPosition is "first" or "last"
	UnknownPosition string `json:"unknown_position"`
}

// LabelsConfig extends the built-in label tables.
type LabelsConfig struct {
	// Airlines maps a 3-letter callsign prefix to a label
	Airlines map[string]string `json:"airlines,omitempty"`

	// Categories maps an OpenSky emitter category id to a label
	Categories map[int]string `json:"categories,omitempty"`

	DefaultAirline string `json:"default_airline"`
}

// LoggingConfig contains log output settings.
type LoggingConfig struct {
	// Level is debug, info, warn or error
	Level string `json:"level"`

	// File enables rotated JSON logs at this path
	File string `json:"file"`
}

// MetricsConfig contains metrics export settings.
type MetricsConfig struct {
	// TextfilePath is written in Prometheus text format after every fetch.
	// Empty disables export.
	TextfilePath string `json:"textfile_path"`
}

// Load reads configuration from a JSON file. Fields missing from the file
// keep their defaults. If the file doesn't exist, returns the default
// configuration. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.applyEnvironmentOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to a JSON file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Display: DisplayConfig{
			Backend:         matrix.BackendConsole,
			Rows:            64,
			Cols:            64,
			Brightness:      100,
			Pages:           2,
			TextColor:       matrix.ColorWhite.Hex(),
			TransitionColor: matrix.ColorBlue.Hex(),
		},
		Schedule: ScheduleConfig{
			FetchIntervalSeconds:   60,
			FetchTimeoutSeconds:    10,
			PageDurationSeconds:    10,
			SummaryDurationSeconds: 10,
			IdleRetrySeconds:       10,
			NightPollSeconds:       60,
			TransitionSteps:        30,
			TransitionFrameMillis:  16,
		},
		Night: NightConfig{
			Enabled:   true,
			Policy:    "hours",
			StartHour: 23,
			EndHour:   7,
		},
		Observer: ObserverConfig{
			Name:      "London",
			Latitude:  51.5074,
			Longitude: -0.1278,
			Elevation: 11,
			TimeZone:  "Europe/London",
		},
		OpenSky: OpenSkyConfig{
			BaseURL:                   adsb.DefaultOpenSkyURL,
			TokenURL:                  adsb.DefaultOpenSkyTokenURL,
			MinRequestIntervalSeconds: 10,
			MinLatitude:               51.2868,
			MaxLatitude:               51.6918,
			MinLongitude:              -0.5103,
			MaxLongitude:              0.3340,
		},
		Store: StoreConfig{
			Filter:          "all",
			UnknownPosition: "first",
		},
		Labels: LabelsConfig{
			DefaultAirline: "PRIVATE/OTHER",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate rejects values the display cannot run with.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	d := c.Display
	check(d.Backend == matrix.BackendConsole || d.Backend == matrix.BackendTerminal,
		"display.backend must be %q or %q, got %q", matrix.BackendConsole, matrix.BackendTerminal, d.Backend)
	check(d.Rows > 0 && d.Cols > 0, "display size must be positive, got %dx%d", d.Cols, d.Rows)
	check(d.Brightness >= 0 && d.Brightness <= 100, "display.brightness must be 0-100, got %d", d.Brightness)
	check(d.Pages == 1 || d.Pages == 2, "display.pages must be 1 or 2, got %d", d.Pages)
	if _, err := matrix.ParseColor(d.TextColor); err != nil {
		errs = append(errs, fmt.Errorf("display.text_color: %w", err))
	}
	if _, err := matrix.ParseColor(d.TransitionColor); err != nil {
		errs = append(errs, fmt.Errorf("display.transition_color: %w", err))
	}

	s := c.Schedule
	check(s.FetchIntervalSeconds > 0, "schedule.fetch_interval_seconds must be positive")
	check(s.FetchTimeoutSeconds > 0, "schedule.fetch_timeout_seconds must be positive")
	check(s.PageDurationSeconds > 0, "schedule.page_duration_seconds must be positive")
	check(s.SummaryDurationSeconds >= 0, "schedule.summary_duration_seconds must not be negative")
	check(s.IdleRetrySeconds > 0, "schedule.idle_retry_seconds must be positive")
	check(s.NightPollSeconds > 0, "schedule.night_poll_seconds must be positive")
	check(s.TransitionSteps >= 0, "schedule.transition_steps must not be negative")
	check(s.TransitionFrameMillis >= 0, "schedule.transition_frame_millis must not be negative")

	n := c.Night
	check(n.Policy == "hours" || n.Policy == "solar", "night.policy must be hours or solar, got %q", n.Policy)
	check(n.StartHour >= 0 && n.StartHour <= 23 && n.EndHour >= 0 && n.EndHour <= 23,
		"night hours must be within 0-23, got %d-%d", n.StartHour, n.EndHour)

	o := c.Observer
	check(o.Latitude >= -90 && o.Latitude <= 90, "observer.latitude out of range: %f", o.Latitude)
	check(o.Longitude >= -180 && o.Longitude <= 180, "observer.longitude out of range: %f", o.Longitude)
	if _, err := o.Location(); err != nil {
		errs = append(errs, err)
	}

	b := c.OpenSky
	check(b.BaseURL != "", "opensky.base_url is required")
	check(b.MinLatitude < b.MaxLatitude, "opensky bounding box latitude range is empty")
	check(b.MinLongitude < b.MaxLongitude, "opensky bounding box longitude range is empty")
	check((b.ClientID == "") == (b.ClientSecret == ""), "opensky client_id and client_secret must be set together")

	check(oneOf(c.Store.Filter, "", "all", "displayable"), "store.filter must be all or displayable, got %q", c.Store.Filter)
	check(oneOf(c.Store.UnknownPosition, "", "first", "last"),
		"store.unknown_position must be first or last, got %q", c.Store.UnknownPosition)
	check(oneOf(c.Logging.Level, "", "debug", "info", "warn", "warning", "error"),
		"logging.level must be debug, info, warn or error, got %q", c.Logging.Level)

	return errors.Join(errs...)
}

// Reference returns the observer position.
func (o ObserverConfig) Reference() coordinates.Geographic {
	return coordinates.Geographic{Latitude: o.Latitude, Longitude: o.Longitude, Altitude: o.Elevation}
}

// Location loads the observer time zone. Empty means UTC.
func (o ObserverConfig) Location() (*time.Location, error) {
	if o.TimeZone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(o.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid observer timezone %q: %w", o.TimeZone, err)
	}
	return loc, nil
}

// BoundingBox returns the fetch area.
func (c OpenSkyConfig) BoundingBox() adsb.BoundingBox {
	return adsb.BoundingBox{
		MinLatitude:  c.MinLatitude,
		MaxLatitude:  c.MaxLatitude,
		MinLongitude: c.MinLongitude,
		MaxLongitude: c.MaxLongitude,
	}
}

// Options converts the settings for adsb.NewOpenSkyClient.
func (c OpenSkyConfig) Options(timeout time.Duration) adsb.OpenSkyOptions {
	return adsb.OpenSkyOptions{
		BaseURL:            c.BaseURL,
		TokenURL:           c.TokenURL,
		ClientID:           c.ClientID,
		ClientSecret:       c.ClientSecret,
		Timeout:            timeout,
		MinRequestInterval: Seconds(c.MinRequestIntervalSeconds),
	}
}

// Seconds converts a whole-second setting to a duration.
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// Millis converts a millisecond setting to a duration.
func Millis(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func oneOf(value string, allowed ...string) bool {
	value = strings.ToLower(value)
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
// This allows credentials to be kept out of config files.
func (c *Config) applyEnvironmentOverrides() error {
	if id := os.Getenv("FLIGHTMATRIX_OPENSKY_CLIENT_ID"); id != "" {
		c.OpenSky.ClientID = id
	}
	if secret := os.Getenv("FLIGHTMATRIX_OPENSKY_CLIENT_SECRET"); secret != "" {
		c.OpenSky.ClientSecret = secret
	}
	if backend := os.Getenv("FLIGHTMATRIX_BACKEND"); backend != "" {
		c.Display.Backend = backend
	}
	if brightness := os.Getenv("FLIGHTMATRIX_BRIGHTNESS"); brightness != "" {
		v, err := strconv.Atoi(brightness)
		if err != nil {
			return fmt.Errorf("invalid FLIGHTMATRIX_BRIGHTNESS %q: %w", brightness, err)
		}
		c.Display.Brightness = v
	}
	if level := os.Getenv("FLIGHTMATRIX_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	return nil
}
