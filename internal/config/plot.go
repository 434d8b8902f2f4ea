package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/humidity.report/internal/render"
	"github.com/banshee-data/humidity.report/internal/series"
	"github.com/banshee-data/humidity.report/internal/stats"
	"github.com/banshee-data/humidity.report/internal/units"
)

// ExampleConfigPath is the checked-in example configuration.
const ExampleConfigPath = "config/hygroplot.example.json"

// WindowLayout is the timestamp format of absolute window bounds.
const WindowLayout = time.DateTime

// WindowConfig selects part of the data span, either as fractions
// ({"fraction": [0.5, 1]}) or as timestamps ({"from": "...", "to": "..."}).
type WindowConfig struct {
	Fraction []float64 `json:"fraction,omitempty"`
	From     *string   `json:"from,omitempty"`
	To       *string   `json:"to,omitempty"`
}

// PlotConfig is the hygroplot configuration. Every field is optional; the
// Get* methods supply defaults for fields the JSON leaves out.
type PlotConfig struct {
	// Timing
	PollInterval     *string `json:"poll_interval,omitempty"`     // duration string like "5s"
	SnapshotInterval *string `json:"snapshot_interval,omitempty"` // duration string like "1h"

	// Windows
	PlotWindow   *WindowConfig `json:"plot_window,omitempty"`
	StatsWindow  *WindowConfig `json:"stats_window,omitempty"`
	StatsEnabled *bool         `json:"stats_enabled,omitempty"`
	OptimalBand  []float64     `json:"optimal_band,omitempty"`

	// Axes
	HumidityBounds    []float64 `json:"humidity_bounds,omitempty"`
	TemperatureBounds []float64 `json:"temperature_bounds,omitempty"`
	TickCount         *int      `json:"tick_count,omitempty"`
	WeatherLabel      *string   `json:"weather_label,omitempty"`

	// Output
	OutputDir     *string `json:"output_dir,omitempty"`
	LiveImage     *string `json:"live_image,omitempty"`
	HTMLSnapshots *bool   `json:"html_snapshots,omitempty"`

	// Input
	Timezone     *string `json:"timezone,omitempty"`
	Watch        *bool   `json:"watch,omitempty"`
	StopWhenIdle *bool   `json:"stop_when_idle,omitempty"`
}

// Helper functions to create pointers
func ptrBool(v bool) *bool       { return &v }
func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }

// EmptyPlotConfig returns a PlotConfig with all fields unset.
func EmptyPlotConfig() *PlotConfig {
	return &PlotConfig{}
}

// DefaultPlotConfig returns a PlotConfig with every field set to its default.
func DefaultPlotConfig() *PlotConfig {
	return &PlotConfig{
		PollInterval:      ptrString("5s"),
		SnapshotInterval:  ptrString("1h"),
		StatsEnabled:      ptrBool(false),
		OptimalBand:       []float64{stats.DefaultBand.Low, stats.DefaultBand.High},
		HumidityBounds:    []float64{48, 55},
		TemperatureBounds: []float64{0, 30},
		TickCount:         ptrInt(10),
		WeatherLabel:      ptrString("Weather"),
		OutputDir:         ptrString("plots"),
		LiveImage:         ptrString("live.png"),
		HTMLSnapshots:     ptrBool(false),
		Timezone:          ptrString(units.LocalTimezone),
		Watch:             ptrBool(false),
		StopWhenIdle:      ptrBool(false),
	}
}

// LoadPlotConfig loads a PlotConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Fields omitted
// from the file keep their defaults, so partial configs are safe.
func LoadPlotConfig(path string) (*PlotConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyPlotConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func validatePair(name string, v []float64) error {
	if v == nil {
		return nil
	}
	if len(v) != 2 {
		return fmt.Errorf("%s must have exactly two values, got %d", name, len(v))
	}
	if v[0] >= v[1] {
		return fmt.Errorf("%s lower bound %g must be below upper bound %g", name, v[0], v[1])
	}
	return nil
}

func validateDuration(name string, v *string) error {
	if v == nil || *v == "" {
		return nil
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s must be positive, got %s", name, d)
	}
	return nil
}

// Validate checks that the configuration values are valid. Inverted bounds
// and windows are configuration errors, never silently swapped.
func (c *PlotConfig) Validate() error {
	if err := validateDuration("poll_interval", c.PollInterval); err != nil {
		return err
	}
	if err := validateDuration("snapshot_interval", c.SnapshotInterval); err != nil {
		return err
	}

	if err := validatePair("humidity_bounds", c.HumidityBounds); err != nil {
		return err
	}
	if err := validatePair("temperature_bounds", c.TemperatureBounds); err != nil {
		return err
	}
	if err := validatePair("optimal_band", c.OptimalBand); err != nil {
		return err
	}

	if c.TickCount != nil && *c.TickCount < 1 {
		return fmt.Errorf("tick_count must be positive, got %d", *c.TickCount)
	}
	if c.OutputDir != nil && *c.OutputDir == "" {
		return errors.New("output_dir must not be empty")
	}
	if c.LiveImage != nil && *c.LiveImage != "" && filepath.Base(*c.LiveImage) != *c.LiveImage {
		return fmt.Errorf("live_image %q must be a file name, not a path", *c.LiveImage)
	}

	if tz := c.GetTimezone(); tz != units.LocalTimezone && !units.IsTimezoneValid(tz) {
		return fmt.Errorf("timezone %q is not in the tz database", tz)
	}
	loc, err := c.Location()
	if err != nil {
		return err
	}
	if _, err := c.PlotWindowSpec(loc); err != nil {
		return fmt.Errorf("plot_window: %w", err)
	}
	if _, err := c.StatsWindowSpec(loc); err != nil {
		return fmt.Errorf("stats_window: %w", err)
	}

	return nil
}

// Spec converts the window to a series.WindowSpec. A nil window is the full
// span.
func (w *WindowConfig) Spec(loc *time.Location) (series.WindowSpec, error) {
	if w == nil {
		return series.Full, nil
	}
	hasFraction := w.Fraction != nil
	hasAbsolute := w.From != nil || w.To != nil

	switch {
	case hasFraction && hasAbsolute:
		return series.WindowSpec{}, errors.New("use either fraction or from/to, not both")
	case hasFraction:
		if len(w.Fraction) != 2 {
			return series.WindowSpec{}, fmt.Errorf("fraction must have two values, got %d", len(w.Fraction))
		}
		spec := series.Fraction(w.Fraction[0], w.Fraction[1])
		return spec, spec.Validate()
	case hasAbsolute:
		if w.From == nil || w.To == nil {
			return series.WindowSpec{}, errors.New("from and to must both be set")
		}
		from, err := time.ParseInLocation(WindowLayout, *w.From, loc)
		if err != nil {
			return series.WindowSpec{}, fmt.Errorf("invalid from %q: %w", *w.From, err)
		}
		to, err := time.ParseInLocation(WindowLayout, *w.To, loc)
		if err != nil {
			return series.WindowSpec{}, fmt.Errorf("invalid to %q: %w", *w.To, err)
		}
		spec := series.Absolute(from, to)
		return spec, spec.Validate()
	}
	return series.Full, nil
}

// PlotWindowSpec returns the plotting window, the full span by default.
func (c *PlotConfig) PlotWindowSpec(loc *time.Location) (series.WindowSpec, error) {
	return c.PlotWindow.Spec(loc)
}

// StatsWindowSpec returns the statistics window. It defaults to the plot
// window.
func (c *PlotConfig) StatsWindowSpec(loc *time.Location) (series.WindowSpec, error) {
	if c.StatsWindow == nil {
		return c.PlotWindowSpec(loc)
	}
	return c.StatsWindow.Spec(loc)
}

// Location resolves the configured timezone.
func (c *PlotConfig) Location() (*time.Location, error) {
	return units.LoadTimezone(c.GetTimezone())
}

func getDuration(v *string, def time.Duration) time.Duration {
	if v == nil || *v == "" {
		return def
	}
	d, err := time.ParseDuration(*v)
	if err != nil || d <= 0 {
		return def // default on parse error
	}
	return d
}

func getPair(v []float64, lo, hi float64) [2]float64 {
	if len(v) != 2 {
		return [2]float64{lo, hi}
	}
	return [2]float64{v[0], v[1]}
}

// GetPollInterval returns the poll interval or the default of 5s.
func (c *PlotConfig) GetPollInterval() time.Duration {
	return getDuration(c.PollInterval, 5*time.Second)
}

// GetSnapshotInterval returns the snapshot interval or the default of 1h.
func (c *PlotConfig) GetSnapshotInterval() time.Duration {
	return getDuration(c.SnapshotInterval, time.Hour)
}

// GetStatsEnabled returns the stats_enabled value or false.
func (c *PlotConfig) GetStatsEnabled() bool {
	return c.StatsEnabled != nil && *c.StatsEnabled
}

// GetHumidityBounds returns the humidity axis bounds or [48, 55].
func (c *PlotConfig) GetHumidityBounds() [2]float64 {
	return getPair(c.HumidityBounds, 48, 55)
}

// GetTemperatureBounds returns the temperature axis bounds or [0, 30].
func (c *PlotConfig) GetTemperatureBounds() [2]float64 {
	return getPair(c.TemperatureBounds, 0, 30)
}

// GetOptimalBand returns the optimal humidity band or [40, 60].
func (c *PlotConfig) GetOptimalBand() stats.Band {
	b := getPair(c.OptimalBand, stats.DefaultBand.Low, stats.DefaultBand.High)
	return stats.Band{Low: b[0], High: b[1]}
}

// GetTickCount returns the x tick count or 10.
func (c *PlotConfig) GetTickCount() int {
	if c.TickCount == nil {
		return 10 // default
	}
	return *c.TickCount
}

// GetWeatherLabel returns the weather legend label or "Weather".
func (c *PlotConfig) GetWeatherLabel() string {
	if c.WeatherLabel == nil || *c.WeatherLabel == "" {
		return "Weather" // default
	}
	return *c.WeatherLabel
}

// GetOutputDir returns the output directory or "plots".
func (c *PlotConfig) GetOutputDir() string {
	if c.OutputDir == nil || *c.OutputDir == "" {
		return "plots" // default
	}
	return *c.OutputDir
}

// GetLiveImage returns the live image file name. An explicit empty string
// disables the live image.
func (c *PlotConfig) GetLiveImage() string {
	if c.LiveImage == nil {
		return "live.png" // default
	}
	return *c.LiveImage
}

// GetHTMLSnapshots returns the html_snapshots value or false.
func (c *PlotConfig) GetHTMLSnapshots() bool {
	return c.HTMLSnapshots != nil && *c.HTMLSnapshots
}

// GetTimezone returns the timezone name or "Local".
func (c *PlotConfig) GetTimezone() string {
	if c.Timezone == nil || *c.Timezone == "" {
		return units.LocalTimezone
	}
	return *c.Timezone
}

// GetWatch returns the watch value or false.
func (c *PlotConfig) GetWatch() bool {
	return c.Watch != nil && *c.Watch
}

// GetStopWhenIdle returns the stop_when_idle value or false.
func (c *PlotConfig) GetStopWhenIdle() bool {
	return c.StopWhenIdle != nil && *c.StopWhenIdle
}

// AxisConfig builds the renderer configuration.
func (c *PlotConfig) AxisConfig() render.AxisConfig {
	ac := render.DefaultAxisConfig()
	ac.HumidityBounds = c.GetHumidityBounds()
	ac.TemperatureBounds = c.GetTemperatureBounds()
	ac.TickCount = c.GetTickCount()
	ac.WeatherLabel = c.GetWeatherLabel()
	ac.OutputDir = c.GetOutputDir()
	ac.LiveImage = c.GetLiveImage()
	ac.HTML = c.GetHTMLSnapshots()
	return ac
}

// StatsOptions builds the statistics table options.
func (c *PlotConfig) StatsOptions() stats.Options {
	return stats.Options{Band: c.GetOptimalBand(), WeatherLabel: c.GetWeatherLabel()}
}
