package render

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/humidity.report/internal/record"
	"github.com/banshee-data/humidity.report/internal/series"
)

func lineData(s *series.Series, w series.Window, f record.Field) []opts.LineData {
	recs := s.Between(w.From, w.To)
	data := make([]opts.LineData, 0, len(recs))
	for _, rec := range recs {
		if v, ok := rec.Value(f); ok {
			data = append(data, opts.LineData{Value: []interface{}{rec.Timestamp().UnixMilli(), v}})
		}
	}
	return data
}

func seriesOpts(sty Style, yAxis int, dashed bool) []charts.SeriesOpts {
	lineType := "solid"
	if dashed {
		lineType = "dashed"
	}
	return []charts.SeriesOpts{
		charts.WithLineChartOpts(opts.LineChart{YAxisIndex: yAxis}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: hexColor(sty.Color)}),
		charts.WithLineStyleOpts(opts.LineStyle{Type: lineType}),
	}
}

func newTimeChart(title, subtitle, yName string, lo, hi float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "humidity.report", Width: "1200px", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "time", Name: "Time"}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName, Min: lo, Max: hi}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}),
	)
	return line
}

// RenderHTML writes an interactive page with the same two panels as the PNG
// figure.
func RenderHTML(out io.Writer, st *series.Store, w series.Window, cfg AxisConfig) error {
	sub := w.String()

	hum := newTimeChart("Humidity", sub, record.RelativeHumidity.Label(), cfg.HumidityBounds[0], cfg.HumidityBounds[1])
	temp := newTimeChart("Temperature", sub, record.Temperature.Label(), cfg.TemperatureBounds[0], cfg.TemperatureBounds[1])

	precipAxis, absAxis := -1, -1
	next := 1
	if st.HasWeather() {
		hum.ExtendYAxis(opts.YAxis{Name: record.Precipitation.Label(), Min: 0, Position: "right"})
		precipAxis = next
		next++
	}
	if st.HasSensors() {
		hum.ExtendYAxis(opts.YAxis{
			Name:         record.AbsoluteHumidity.Label(),
			Position:     "right",
			NameLocation: "middle",
			NameGap:      45,
			AxisLine:     &opts.AxisLine{Show: opts.Bool(true)},
		})
		absAxis = next
	}

	for _, key := range st.Keys() {
		s := st.Series(key)
		sty := StyleFor(key, cfg.WeatherLabel)

		hum.AddSeries(sty.Label, lineData(s, w, record.RelativeHumidity), seriesOpts(sty, 0, false)...)
		temp.AddSeries(sty.Label, lineData(s, w, record.Temperature), seriesOpts(sty, 0, false)...)

		if key.IsWeather() && precipAxis > 0 {
			p := PrecipitationStyle()
			hum.AddSeries(p.Label, lineData(s, w, record.Precipitation), seriesOpts(p, precipAxis, false)...)
		}
		if !key.IsWeather() && absAxis > 0 {
			hum.AddSeries(sty.Label+" abs.", lineData(s, w, record.AbsoluteHumidity), seriesOpts(sty, absAxis, true)...)
		}
	}

	page := components.NewPage()
	page.AddCharts(hum, temp)
	if err := page.Render(out); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}
