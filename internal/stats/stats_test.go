package stats

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/humidity.report/internal/record"
	"github.com/banshee-data/humidity.report/internal/series"
)

var t0 = time.Date(2024, 6, 17, 10, 0, 0, 0, time.UTC)

func at(min int) time.Time { return t0.Add(time.Duration(min) * time.Minute) }

func newStore(t *testing.T, recs ...record.Record) *series.Store {
	t.Helper()
	st := series.NewStore()
	for _, r := range recs {
		require.NoError(t, st.Append(r.Source(), r))
	}
	return st
}

func rhLabel() string   { return record.RelativeHumidity.Label() }
func tempLabel() string { return record.Temperature.Label() }

func TestSummarize_ThreeSources(t *testing.T) {
	st := newStore(t,
		record.NewWeatherRecord(at(0), 60, 10, 0),
		record.NewWeatherRecord(at(10), 70, 12, 0),
		record.NewSensorRecord(0, at(0), 50, 20, 8.6),
		record.NewSensorRecord(0, at(10), 52, 22, 9.0),
		record.NewSensorRecord(1, at(5), 45, 21, 8.0),
	)
	w, err := series.Resolve(st, series.Full)
	require.NoError(t, err)

	tbl := Summarize(st, w, Options{})
	assert.Equal(t, []string{"Weather", "Sensor1", "Sensor2"}, tbl.Columns)
	assert.Equal(t, []string{rhLabel(), tempLabel(), OptimalBandLabel}, tbl.Rows)

	c, ok := tbl.Cell(rhLabel(), record.Weather)
	require.True(t, ok)
	assert.Equal(t, "65.0000 +/- 5.0000", c.String())

	c, _ = tbl.Cell(tempLabel(), record.Sensor(0))
	assert.Equal(t, "21.0000 +/- 1.0000", c.String())

	c, _ = tbl.Cell(rhLabel(), record.Sensor(1))
	assert.Equal(t, "45.0000 +/- 0.0000", c.String(), "single sample has zero spread")

	c, _ = tbl.Cell(OptimalBandLabel, record.Weather)
	assert.Equal(t, "0.0000", c.String())
	c, _ = tbl.Cell(OptimalBandLabel, record.Sensor(0))
	assert.Equal(t, "100.0000", c.String())
}

func TestBand_ContainsExcludesBounds(t *testing.T) {
	tests := []struct {
		rh   float64
		want bool
	}{
		{39.99, false},
		{40, false},
		{40.01, true},
		{50, true},
		{59.99, true},
		{60, false},
		{math.NaN(), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DefaultBand.Contains(tt.rh), "rh=%v", tt.rh)
	}
}

func TestSummarize_WindowRestricts(t *testing.T) {
	st := newStore(t,
		record.NewSensorRecord(0, at(0), 10, 10, 1),
		record.NewSensorRecord(0, at(10), 50, 20, 1),
		record.NewSensorRecord(0, at(20), 60, 30, 1),
		record.NewSensorRecord(1, at(0), 30, 15, 1),
	)
	w, err := series.Resolve(st, series.Absolute(at(5), at(20)))
	require.NoError(t, err)

	tbl := Summarize(st, w, Options{})
	c, _ := tbl.Cell(rhLabel(), record.Sensor(0))
	assert.Equal(t, "55.0000 +/- 5.0000", c.String())

	c, _ = tbl.Cell(rhLabel(), record.Sensor(1))
	assert.True(t, c.Undefined(), "source without rows in the window is NaN")
	assert.Equal(t, "NaN", c.String())
}

func TestSummarize_EmptyWindowIsNaN(t *testing.T) {
	st := newStore(t,
		record.NewSensorRecord(0, at(0), 50, 20, 1),
		record.NewSensorRecord(0, at(10), 50, 20, 1),
	)
	w := series.Window{From: at(10), To: at(10)}
	require.True(t, w.Empty())

	tbl := Summarize(st, w, Options{})
	for r := range tbl.Rows {
		for c := range tbl.Columns {
			cell := tbl.Cells[r][c]
			assert.True(t, math.IsNaN(cell.Mean), "row %s col %s", tbl.Rows[r], tbl.Columns[c])
			assert.Equal(t, "NaN", cell.String())
		}
	}
}

func TestSummarize_WindowBeforeDataIsNaN(t *testing.T) {
	st := newStore(t,
		record.NewWeatherRecord(at(0), 60, 10, 0),
		record.NewSensorRecord(0, at(1), 50, 20, 8.6),
		record.NewSensorRecord(0, at(9), 52, 22, 9.0),
	)
	w, err := series.Resolve(st, series.Absolute(at(-100), at(-50)))
	require.NoError(t, err)
	assert.Equal(t, at(0), w.From, "both ends snap to the earliest sample")
	assert.Equal(t, at(0), w.To)

	tbl := Summarize(st, w, Options{})
	require.Len(t, tbl.Columns, 2)
	for r := range tbl.Rows {
		for c := range tbl.Columns {
			assert.True(t, tbl.Cells[r][c].Undefined(), "row %s col %s", tbl.Rows[r], tbl.Columns[c])
		}
	}
}

func TestSummarize_CustomBandAndLabel(t *testing.T) {
	st := newStore(t,
		record.NewWeatherRecord(at(0), 55, 10, 0),
		record.NewWeatherRecord(at(1), 65, 10, 0),
		record.NewWeatherRecord(at(2), 75, 10, 0),
		record.NewWeatherRecord(at(3), 85, 10, 0),
	)
	w, err := series.Resolve(st, series.Full)
	require.NoError(t, err)

	tbl := Summarize(st, w, Options{Band: Band{Low: 60, High: 80}, WeatherLabel: "Outside"})
	assert.Equal(t, []string{"Outside"}, tbl.Columns)
	c, _ := tbl.Cell(OptimalBandLabel, record.Weather)
	assert.InDelta(t, 50.0, c.Mean, 1e-9)
}

func TestSummarize_EmptyStore(t *testing.T) {
	tbl := Summarize(series.NewStore(), series.Window{}, Options{})
	assert.Empty(t, tbl.Columns)
	assert.Len(t, tbl.Rows, 3)
	_, ok := tbl.Cell(rhLabel(), record.Weather)
	assert.False(t, ok)
}

func TestTable_WriteTo(t *testing.T) {
	st := newStore(t,
		record.NewWeatherRecord(at(0), 60, 10, 0),
		record.NewSensorRecord(0, at(0), 50, 20, 1),
	)
	w := series.Window{From: at(0), To: at(1)}

	var b strings.Builder
	n, err := Summarize(st, w, Options{}).WriteTo(&b)
	require.NoError(t, err)
	assert.Equal(t, int64(b.Len()), n)

	lines := strings.Split(strings.TrimSuffix(b.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[1], rhLabel()))
	assert.Contains(t, lines[1], "60.0000 +/- 0.0000")
	assert.Contains(t, lines[1], "50.0000 +/- 0.0000")

	// Columns line up: every header starts where its cells start.
	col := strings.Index(lines[0], "Sensor1")
	require.Positive(t, col)
	assert.Equal(t, col, strings.Index(lines[1], "50.0000"))
	for _, l := range lines {
		assert.Equal(t, strings.TrimRight(l, " "), l, "no trailing padding")
	}
}
