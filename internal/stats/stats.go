// Package stats summarises the series store over a resolved window.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/mattn/go-runewidth"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/humidity.report/internal/record"
	"github.com/banshee-data/humidity.report/internal/series"
)

// Band is an open relative-humidity range, in percent. Readings exactly on
// a bound fall outside it.
type Band struct {
	Low, High float64
}

// DefaultBand is the indoor comfort band used when none is configured.
var DefaultBand = Band{Low: 40, High: 60}

// Contains reports whether rh lies in the band.
func (b Band) Contains(rh float64) bool { return rh > b.Low && rh < b.High }

// Options tune the summary table.
type Options struct {
	Band         Band   // zero value means DefaultBand
	WeatherLabel string // column header for the weather source; empty means "Weather"
}

// OptimalBandLabel is the row label for the share of samples in Band.
const OptimalBandLabel = "RH in optimal band (%)"

// Cell is one summary value. N is the number of samples it was computed
// from; an empty cell has N == 0 and NaN statistics.
type Cell struct {
	Mean   float64
	StdDev float64
	N      int
	// Share is set only on the optimal-band row, where Mean holds the share
	// of in-band samples in percent and StdDev is unused.
	Share bool
}

// Undefined reports whether the cell has no value.
func (c Cell) Undefined() bool { return c.N == 0 || math.IsNaN(c.Mean) }

func (c Cell) String() string {
	if c.Undefined() {
		return "NaN"
	}
	if c.Share {
		return fmt.Sprintf("%.4f", c.Mean)
	}
	return fmt.Sprintf("%.4f +/- %.4f", c.Mean, c.StdDev)
}

var undefined = Cell{Mean: math.NaN(), StdDev: math.NaN()}

// Table is the cross-source summary: one row per quantity, one column per
// source in store key order.
type Table struct {
	Rows    []string
	Columns []string
	Keys    []record.SourceKey
	Cells   [][]Cell // Cells[row][column]
}

// Cell returns the cell for a row label and source, and false when either is
// unknown.
func (t Table) Cell(row string, key record.SourceKey) (Cell, bool) {
	ri, ci := -1, -1
	for i, r := range t.Rows {
		if r == row {
			ri = i
		}
	}
	for i, k := range t.Keys {
		if k == key {
			ci = i
		}
	}
	if ri < 0 || ci < 0 {
		return Cell{}, false
	}
	return t.Cells[ri][ci], true
}

// Summarize computes mean and population standard deviation of relative
// humidity and temperature per source over w, plus the share of humidity
// samples inside the optimal band. It is recomputed on every call.
func Summarize(st *series.Store, w series.Window, opts Options) Table {
	band := opts.Band
	if band == (Band{}) {
		band = DefaultBand
	}
	weatherLabel := opts.WeatherLabel
	if weatherLabel == "" {
		weatherLabel = record.Weather.String()
	}

	fields := []record.Field{record.RelativeHumidity, record.Temperature}
	t := Table{Keys: st.Keys()}
	for _, f := range fields {
		t.Rows = append(t.Rows, f.Label())
	}
	t.Rows = append(t.Rows, OptimalBandLabel)
	t.Cells = make([][]Cell, len(t.Rows))

	for _, key := range t.Keys {
		if key.IsWeather() {
			t.Columns = append(t.Columns, weatherLabel)
		} else {
			t.Columns = append(t.Columns, key.String())
		}

		var recs []record.Record
		if !w.Empty() {
			recs = st.Series(key).Between(w.From, w.To)
		}
		for i, f := range fields {
			t.Cells[i] = append(t.Cells[i], summarizeField(recs, f))
		}
		t.Cells[len(fields)] = append(t.Cells[len(fields)], bandShare(recs, band))
	}
	return t
}

func summarizeField(recs []record.Record, f record.Field) Cell {
	xs := make([]float64, 0, len(recs))
	for _, r := range recs {
		if v, ok := r.Value(f); ok {
			xs = append(xs, v)
		}
	}
	if len(xs) == 0 {
		return undefined
	}
	mean, std := stat.PopMeanStdDev(xs, nil)
	if len(xs) == 1 {
		std = 0
	}
	return Cell{Mean: mean, StdDev: std, N: len(xs)}
}

func bandShare(recs []record.Record, b Band) Cell {
	if len(recs) == 0 {
		c := undefined
		c.Share = true
		return c
	}
	in := 0
	for _, r := range recs {
		if b.Contains(r.RelativeHumidity()) {
			in++
		}
	}
	return Cell{Mean: 100 * float64(in) / float64(len(recs)), N: len(recs), Share: true}
}

// WriteTo renders the table as aligned text.
func (t Table) WriteTo(w io.Writer) (int64, error) {
	rowWidth := 0
	for _, r := range t.Rows {
		rowWidth = max(rowWidth, runewidth.StringWidth(r))
	}
	colWidth := make([]int, len(t.Columns))
	for c, name := range t.Columns {
		colWidth[c] = runewidth.StringWidth(name)
		for r := range t.Rows {
			colWidth[c] = max(colWidth[c], runewidth.StringWidth(t.Cells[r][c].String()))
		}
	}

	var b strings.Builder
	line := func(first string, cells func(c int) string) {
		var l strings.Builder
		l.WriteString(runewidth.FillRight(first, rowWidth))
		for c := range t.Columns {
			l.WriteString("  ")
			l.WriteString(runewidth.FillRight(cells(c), colWidth[c]))
		}
		b.WriteString(strings.TrimRight(l.String(), " "))
		b.WriteString("\n")
	}
	line("", func(c int) string { return t.Columns[c] })
	for r, label := range t.Rows {
		line(label, func(c int) string { return t.Cells[r][c].String() })
	}

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

func (t Table) String() string {
	var b strings.Builder
	_, _ = t.WriteTo(&b)
	return b.String()
}
