// Package render draws the humidity and temperature panels as PNG images
// with gonum/plot and, optionally, interactive HTML pages with go-echarts.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/banshee-data/humidity.report/internal/fsutil"
	"github.com/banshee-data/humidity.report/internal/monitoring"
	"github.com/banshee-data/humidity.report/internal/record"
	"github.com/banshee-data/humidity.report/internal/series"
)

// AxisConfig holds everything the renderer needs besides the data.
type AxisConfig struct {
	HumidityBounds    [2]float64
	TemperatureBounds [2]float64
	TickCount         int
	WeatherLabel      string

	OutputDir string
	LiveImage string // file name inside OutputDir; empty disables the live image
	HTML      bool   // write an HTML page next to each snapshot

	Width, Height vg.Length
}

// DefaultAxisConfig returns the stock axis layout.
func DefaultAxisConfig() AxisConfig {
	return AxisConfig{
		HumidityBounds:    [2]float64{48, 55},
		TemperatureBounds: [2]float64{0, 30},
		TickCount:         10,
		OutputDir:         "plots",
		LiveImage:         "live.png",
		Width:             16 * vg.Inch,
		Height:            10 * vg.Inch,
	}
}

// Validate checks the bounds and sizes.
func (c AxisConfig) Validate() error {
	if c.HumidityBounds[0] >= c.HumidityBounds[1] {
		return fmt.Errorf("humidity bounds %v are inverted or empty", c.HumidityBounds)
	}
	if c.TemperatureBounds[0] >= c.TemperatureBounds[1] {
		return fmt.Errorf("temperature bounds %v are inverted or empty", c.TemperatureBounds)
	}
	if c.TickCount < 1 {
		return fmt.Errorf("tick count must be positive, got %d", c.TickCount)
	}
	if c.OutputDir == "" {
		return errors.New("output directory is required")
	}
	if c.LiveImage != "" && filepath.Base(c.LiveImage) != c.LiveImage {
		return fmt.Errorf("live image %q must be a file name, not a path", c.LiveImage)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("image size %vx%v must be positive", c.Width, c.Height)
	}
	return nil
}

// panel is the persistent chrome of one stacked panel. It survives between
// refreshes; only the data plotters are rebuilt each time.
type panel struct {
	title  string
	yLabel string
	yMin   float64
	yMax   float64

	// precipMax is the precipitation axis upper bound. It only grows.
	precipMax float64
}

func (p *panel) newPlot(ticks []plot.Tick, showX bool) *plot.Plot {
	plt := plot.New()
	plt.Title.Text = p.title
	plt.Y.Label.Text = p.yLabel
	if showX {
		plt.X.Label.Text = "Time"
		plt.X.Tick.Marker = plot.ConstantTicks(ticks)
	} else {
		// Shared x axis: keep the tick marks, drop the labels.
		bare := make([]plot.Tick, len(ticks))
		for i, t := range ticks {
			bare[i] = plot.Tick{Value: t.Value, Label: " "}
		}
		plt.X.Tick.Marker = plot.ConstantTicks(bare)
	}
	plt.Add(plotter.NewGrid())
	plt.Legend.Top = true
	plt.Legend.Left = true
	plt.Legend.XOffs = 10
	plt.Legend.YOffs = -10
	return plt
}

// fixBounds pins the axes. plot.Add widens them to fit the data, so this
// runs after all data plotters are added.
func (p *panel) fixBounds(plt *plot.Plot, xmin, xmax float64) {
	plt.X.Min, plt.X.Max = xmin, xmax
	plt.Y.Min, plt.Y.Max = p.yMin, p.yMax
}

// Renderer owns the figure state. It is not safe for concurrent use; the
// poller calls it from its single loop.
type Renderer struct {
	cfg AxisConfig
	fs  fsutil.FileSystem

	humidity    *panel
	temperature *panel

	refreshes int
	snapshots int
}

// New validates cfg and creates the output directory.
func New(cfg AxisConfig, fs fsutil.FileSystem) (*Renderer, error) {
	if cfg.Width == 0 && cfg.Height == 0 {
		d := DefaultAxisConfig()
		cfg.Width, cfg.Height = d.Width, d.Height
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid axis config: %w", err)
	}
	if err := fs.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	return &Renderer{
		cfg: cfg,
		fs:  fs,
		humidity: &panel{
			title:     "Humidity",
			yLabel:    record.RelativeHumidity.Label(),
			yMin:      cfg.HumidityBounds[0],
			yMax:      cfg.HumidityBounds[1],
			precipMax: 1,
		},
		temperature: &panel{
			title:  "Temperature",
			yLabel: record.Temperature.Label(),
			yMin:   cfg.TemperatureBounds[0],
			yMax:   cfg.TemperatureBounds[1],
		},
	}, nil
}

// PrecipitationMax returns the current precipitation axis upper bound.
func (r *Renderer) PrecipitationMax() float64 { return r.humidity.precipMax }

// Refreshes returns how many live refreshes have been written.
func (r *Renderer) Refreshes() int { return r.refreshes }

// Snapshots returns how many snapshots have been written.
func (r *Renderer) Snapshots() int { return r.snapshots }

// LivePath returns the path of the live image, or "" when disabled.
func (r *Renderer) LivePath() string {
	if r.cfg.LiveImage == "" {
		return ""
	}
	return filepath.Join(r.cfg.OutputDir, r.cfg.LiveImage)
}

// Refresh redraws the figure over w and replaces the live image. The image
// is written to a temporary file and renamed so viewers never see a
// partial PNG.
func (r *Renderer) Refresh(st *series.Store, w series.Window) error {
	var buf bytes.Buffer
	if err := r.Render(&buf, st, w); err != nil {
		return err
	}
	r.refreshes++

	live := r.LivePath()
	if live == "" {
		return nil
	}
	tmp := live + ".tmp"
	if err := r.fs.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write live image: %w", err)
	}
	if err := r.fs.Rename(tmp, live); err != nil {
		return fmt.Errorf("replace live image: %w", err)
	}
	return nil
}

// Snapshot writes the figure over w to <OutputDir>/<from>_to_<to>.png and
// returns the path. With HTML enabled an interactive page is written next
// to it.
func (r *Renderer) Snapshot(st *series.Store, w series.Window) (string, error) {
	path := SnapshotPath(r.cfg.OutputDir, w)

	f, err := r.fs.Create(path)
	if err != nil {
		return "", fmt.Errorf("create snapshot: %w", err)
	}
	if err := r.Render(f, st, w); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close snapshot: %w", err)
	}
	r.snapshots++

	if r.cfg.HTML {
		htmlPath := path[:len(path)-len(filepath.Ext(path))] + ".html"
		hf, err := r.fs.Create(htmlPath)
		if err != nil {
			return path, fmt.Errorf("create html snapshot: %w", err)
		}
		if err := RenderHTML(hf, st, w, r.cfg); err != nil {
			hf.Close()
			return path, err
		}
		if err := hf.Close(); err != nil {
			return path, fmt.Errorf("close html snapshot: %w", err)
		}
	}

	monitoring.Logf("snapshot written: %s", path)
	return path, nil
}

// Render draws the two stacked panels over w and encodes them as PNG.
func (r *Renderer) Render(out io.Writer, st *series.Store, w series.Window) error {
	xmin, xmax := xRange(w)
	ticks := TimeTicks(w, st.Timestamps(), r.cfg.TickCount)

	top := r.humidity.newPlot(ticks, false)
	bottom := r.temperature.newPlot(ticks, true)

	if err := r.addHumidity(top, st, w); err != nil {
		return fmt.Errorf("humidity panel: %w", err)
	}
	if err := r.addTemperature(bottom, st, w); err != nil {
		return fmt.Errorf("temperature panel: %w", err)
	}
	r.humidity.fixBounds(top, xmin, xmax)
	r.temperature.fixBounds(bottom, xmin, xmax)

	img := vgimg.New(r.cfg.Width, r.cfg.Height)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      2,
		Cols:      1,
		PadX:      vg.Millimeter,
		PadY:      vg.Millimeter * 4,
		PadTop:    vg.Millimeter * 4,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Points(110),
	}
	canvases := plot.Align([][]*plot.Plot{{top}, {bottom}}, tiles, dc)
	top.Draw(canvases[0][0])
	bottom.Draw(canvases[1][0])

	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(out); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// windowXYs collects (unix seconds, field) points of one series inside w.
func windowXYs(s *series.Series, w series.Window, f record.Field) plotter.XYs {
	recs := s.Between(w.From, w.To)
	xys := make(plotter.XYs, 0, len(recs))
	for _, rec := range recs {
		if v, ok := rec.Value(f); ok {
			xys = append(xys, plotter.XY{X: unix(rec.Timestamp()), Y: v})
		}
	}
	return xys
}

func addSeries(plt *plot.Plot, xys plotter.XYs, sty Style, label string, dashed bool) error {
	if len(xys) == 0 {
		return nil
	}
	line, points, err := plotter.NewLinePoints(xys)
	if err != nil {
		return err
	}
	line.Color = sty.Color
	line.Width = vg.Points(1)
	if dashed {
		line.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	}
	points.GlyphStyle.Color = sty.Color
	points.GlyphStyle.Shape = sty.Glyph
	points.GlyphStyle.Radius = glyphRadius

	plt.Add(line, points)
	if label != "" {
		plt.Legend.Add(label, line, points)
	}
	return nil
}

func (r *Renderer) addHumidity(plt *plot.Plot, st *series.Store, w series.Window) error {
	var absSeries []plotter.XYs
	var absKeys []record.SourceKey
	var absValues []float64

	for _, key := range st.Keys() {
		s := st.Series(key)
		sty := StyleFor(key, r.cfg.WeatherLabel)
		if err := addSeries(plt, windowXYs(s, w, record.RelativeHumidity), sty, sty.Label, false); err != nil {
			return err
		}
		if !key.IsWeather() {
			xys := windowXYs(s, w, record.AbsoluteHumidity)
			absSeries = append(absSeries, xys)
			absKeys = append(absKeys, key)
			for _, p := range xys {
				absValues = append(absValues, p.Y)
			}
		}
	}

	if st.HasWeather() {
		precip := windowXYs(st.Series(record.Weather), w, record.Precipitation)
		for _, p := range precip {
			r.humidity.precipMax = math.Max(r.humidity.precipMax, p.Y)
		}
		axis := secondaryAxis{
			Label: "Precip. (mm/3hr)",
			Min:   0,
			Max:   r.humidity.precipMax,
			PMin:  r.humidity.yMin,
			PMax:  r.humidity.yMax,
			Color: blue,
		}
		plt.Add(axis)
		if err := addSeries(plt, axis.mapXYs(precip), PrecipitationStyle(), PrecipitationStyle().Label, false); err != nil {
			return err
		}
	}

	if st.HasSensors() {
		lo, hi := 0.0, 1.0
		if len(absValues) > 0 {
			lo, hi = floats.Min(absValues), floats.Max(absValues)
			pad := math.Max((hi-lo)*0.1, 0.1)
			lo, hi = lo-pad, hi+pad
		}
		axis := secondaryAxis{
			Label:  "Abs. (g/m³)",
			Min:    lo,
			Max:    hi,
			PMin:   r.humidity.yMin,
			PMax:   r.humidity.yMax,
			Offset: vg.Points(55),
			Color:  green,
		}
		plt.Add(axis)
		for i, xys := range absSeries {
			sty := StyleFor(absKeys[i], r.cfg.WeatherLabel)
			if err := addSeries(plt, axis.mapXYs(xys), sty, sty.Label+" abs.", true); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Renderer) addTemperature(plt *plot.Plot, st *series.Store, w series.Window) error {
	for _, key := range st.Keys() {
		sty := StyleFor(key, r.cfg.WeatherLabel)
		if err := addSeries(plt, windowXYs(st.Series(key), w, record.Temperature), sty, sty.Label, false); err != nil {
			return err
		}
	}
	return nil
}
