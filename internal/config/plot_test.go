package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/banshee-data/humidity.report/internal/series"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hygroplot.json")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestDefaultPlotConfig(t *testing.T) {
	cfg := DefaultPlotConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}

	if cfg.GetPollInterval() != 5*time.Second {
		t.Errorf("GetPollInterval() = %v, want 5s", cfg.GetPollInterval())
	}
	if cfg.GetSnapshotInterval() != time.Hour {
		t.Errorf("GetSnapshotInterval() = %v, want 1h", cfg.GetSnapshotInterval())
	}
	if cfg.GetHumidityBounds() != [2]float64{48, 55} {
		t.Errorf("GetHumidityBounds() = %v", cfg.GetHumidityBounds())
	}
	if cfg.GetTemperatureBounds() != [2]float64{0, 30} {
		t.Errorf("GetTemperatureBounds() = %v", cfg.GetTemperatureBounds())
	}
	if cfg.GetTickCount() != 10 {
		t.Errorf("GetTickCount() = %d, want 10", cfg.GetTickCount())
	}
	if cfg.GetLiveImage() != "live.png" || cfg.GetOutputDir() != "plots" {
		t.Errorf("unexpected output defaults %q %q", cfg.GetOutputDir(), cfg.GetLiveImage())
	}
}

func TestGetterDefaults(t *testing.T) {
	cfg := EmptyPlotConfig()
	def := DefaultPlotConfig()

	if cfg.GetPollInterval() != def.GetPollInterval() {
		t.Errorf("poll interval default mismatch")
	}
	if cfg.GetSnapshotInterval() != def.GetSnapshotInterval() {
		t.Errorf("snapshot interval default mismatch")
	}
	if cfg.GetOptimalBand() != def.GetOptimalBand() {
		t.Errorf("optimal band default mismatch: %v", cfg.GetOptimalBand())
	}
	if cfg.GetWeatherLabel() != "Weather" {
		t.Errorf("GetWeatherLabel() = %q", cfg.GetWeatherLabel())
	}
	if cfg.GetTimezone() != "Local" {
		t.Errorf("GetTimezone() = %q", cfg.GetTimezone())
	}
	if cfg.GetStatsEnabled() || cfg.GetWatch() || cfg.GetStopWhenIdle() || cfg.GetHTMLSnapshots() {
		t.Errorf("boolean flags must default to false")
	}
	if cfg.AxisConfig() != def.AxisConfig() {
		t.Errorf("AxisConfig mismatch:\n%+v\n%+v", cfg.AxisConfig(), def.AxisConfig())
	}
}

func TestLoadPlotConfig(t *testing.T) {
	path := writeConfig(t, `{
  "poll_interval": "2s",
  "snapshot_interval": "15m",
  "humidity_bounds": [30, 80],
  "tick_count": 4,
  "weather_label": "Outside",
  "live_image": "",
  "stats_enabled": true,
  "stats_window": {"from": "2024-06-17 10:00:00", "to": "2024-06-17 12:00:00"},
  "timezone": "UTC"
}`)

	cfg, err := LoadPlotConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GetPollInterval() != 2*time.Second {
		t.Errorf("GetPollInterval() = %v", cfg.GetPollInterval())
	}
	if cfg.GetSnapshotInterval() != 15*time.Minute {
		t.Errorf("GetSnapshotInterval() = %v", cfg.GetSnapshotInterval())
	}
	if !cfg.GetStatsEnabled() {
		t.Error("expected stats enabled")
	}

	ac := cfg.AxisConfig()
	if ac.HumidityBounds != [2]float64{30, 80} || ac.TickCount != 4 || ac.WeatherLabel != "Outside" {
		t.Errorf("unexpected axis config %+v", ac)
	}
	if ac.LiveImage != "" {
		t.Errorf("explicit empty live_image should disable the live image, got %q", ac.LiveImage)
	}
	if ac.TemperatureBounds != [2]float64{0, 30} {
		t.Errorf("omitted temperature bounds should keep defaults, got %v", ac.TemperatureBounds)
	}

	if opts := cfg.StatsOptions(); opts.WeatherLabel != "Outside" || opts.Band.Low != 40 {
		t.Errorf("unexpected stats options %+v", opts)
	}
}

func TestWindowSpecs(t *testing.T) {
	st := series.NewStore()
	cfg := EmptyPlotConfig()

	spec, err := cfg.PlotWindowSpec(time.UTC)
	if err != nil || spec.String() != series.Full.String() {
		t.Errorf("default plot window = %v, %v; want full span", spec, err)
	}

	cfg.PlotWindow = &WindowConfig{Fraction: []float64{0.25, 0.75}}
	spec, err = cfg.StatsWindowSpec(time.UTC)
	if err != nil {
		t.Fatalf("StatsWindowSpec: %v", err)
	}
	if spec.String() != series.Fraction(0.25, 0.75).String() {
		t.Errorf("stats window should default to the plot window, got %v", spec)
	}

	from, to := "2024-06-17 10:00:00", "2024-06-17 11:00:00"
	cfg.StatsWindow = &WindowConfig{From: &from, To: &to}
	spec, err = cfg.StatsWindowSpec(time.UTC)
	if err != nil {
		t.Fatalf("StatsWindowSpec: %v", err)
	}
	want := series.Absolute(time.Date(2024, 6, 17, 10, 0, 0, 0, time.UTC), time.Date(2024, 6, 17, 11, 0, 0, 0, time.UTC))
	if spec.String() != want.String() {
		t.Errorf("got %v, want %v", spec, want)
	}

	if _, err := series.Resolve(st, spec); !errors.Is(err, series.ErrNoData) {
		t.Errorf("resolving against an empty store: %v", err)
	}
}

func TestValidate(t *testing.T) {
	from, to := "2024-06-17 12:00:00", "2024-06-17 10:00:00"
	bad := "yesterday"

	tests := []struct {
		name    string
		cfg     PlotConfig
		wantErr string
	}{
		{"valid empty", PlotConfig{}, ""},
		{"bad poll interval", PlotConfig{PollInterval: ptrString("soon")}, "poll_interval"},
		{"negative snapshot interval", PlotConfig{SnapshotInterval: ptrString("-1h")}, "snapshot_interval"},
		{"inverted humidity bounds", PlotConfig{HumidityBounds: []float64{55, 48}}, "humidity_bounds"},
		{"three temperature bounds", PlotConfig{TemperatureBounds: []float64{0, 10, 20}}, "temperature_bounds"},
		{"inverted band", PlotConfig{OptimalBand: []float64{60, 40}}, "optimal_band"},
		{"zero ticks", PlotConfig{TickCount: ptrInt(0)}, "tick_count"},
		{"empty output dir", PlotConfig{OutputDir: ptrString("")}, "output_dir"},
		{"live image path", PlotConfig{LiveImage: ptrString("../live.png")}, "live_image"},
		{"unknown timezone", PlotConfig{Timezone: ptrString("Mars/Olympus")}, "tz database"},
		{"named timezone", PlotConfig{Timezone: ptrString("Europe/London")}, ""},
		{"local timezone", PlotConfig{Timezone: ptrString("Local")}, ""},
		{"inverted fraction", PlotConfig{PlotWindow: &WindowConfig{Fraction: []float64{0.9, 0.1}}}, "plot_window"},
		{"fraction out of range", PlotConfig{PlotWindow: &WindowConfig{Fraction: []float64{0, 2}}}, "plot_window"},
		{"inverted absolute", PlotConfig{StatsWindow: &WindowConfig{From: &from, To: &to}}, "stats_window"},
		{"half absolute", PlotConfig{StatsWindow: &WindowConfig{From: &from}}, "stats_window"},
		{"bad timestamp", PlotConfig{StatsWindow: &WindowConfig{From: &bad, To: &to}}, "stats_window"},
		{"mixed window", PlotConfig{PlotWindow: &WindowConfig{Fraction: []float64{0, 1}, From: &from, To: &to}}, "plot_window"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_InvertedWindowIsSentinel(t *testing.T) {
	cfg := PlotConfig{PlotWindow: &WindowConfig{Fraction: []float64{0.9, 0.1}}}
	if err := cfg.Validate(); !errors.Is(err, series.ErrInvertedWindow) {
		t.Errorf("expected ErrInvertedWindow, got %v", err)
	}
}

func TestLoadPlotConfigMissing(t *testing.T) {
	if _, err := LoadPlotConfig("/nonexistent/path/to/config.json"); err == nil {
		t.Error("Expected error when loading missing file, got nil")
	}
}

func TestLoadPlotConfigInvalid(t *testing.T) {
	path := writeConfig(t, `{"tick_count": "many"`)
	if _, err := LoadPlotConfig(path); err == nil {
		t.Error("Expected error when loading invalid JSON, got nil")
	}
}

func TestLoadPlotConfigRejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, `{"humidity_bounds": [60, 40]}`)
	_, err := LoadPlotConfig(path)
	if err == nil || !strings.Contains(err.Error(), "invalid configuration") {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestLoadPlotConfigRejectsNonJSON(t *testing.T) {
	if _, err := LoadPlotConfig("/some/path/config.yaml"); err == nil {
		t.Error("Expected error for non-.json extension, got nil")
	}
}

func TestLoadPlotConfigRejectsLargeFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "large.json")

	largeData := make([]byte, 2*1024*1024) // 2MB
	if err := os.WriteFile(configPath, largeData, 0644); err != nil {
		t.Fatalf("Failed to write large file: %v", err)
	}

	if _, err := LoadPlotConfig(configPath); err == nil {
		t.Error("Expected error for file size > 1MB, got nil")
	}
}

func TestLoadExampleConfigFile(t *testing.T) {
	cfg, err := LoadPlotConfig("../../" + ExampleConfigPath)
	if err != nil {
		t.Fatalf("Failed to load example: %v", err)
	}
	if cfg.GetPollInterval() != 10*time.Second {
		t.Errorf("Expected 10s, got %v", cfg.GetPollInterval())
	}
	if cfg.GetWeatherLabel() != "Outside" {
		t.Errorf("Expected Outside, got %q", cfg.GetWeatherLabel())
	}
	if !cfg.GetHTMLSnapshots() || !cfg.GetWatch() {
		t.Error("expected html snapshots and watch enabled")
	}
}
