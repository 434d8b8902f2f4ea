package render

import (
	"path/filepath"
	"time"

	"gonum.org/v1/plot"

	"github.com/banshee-data/humidity.report/internal/series"
)

const (
	tickLayout     = "2006-01-02\n15:04:05"
	snapshotLayout = "20060102_150405"

	// emptyPad widens a zero-width window so the axis still has a range.
	emptyPad = 30 * time.Second
)

// FormatTimestamp generates a timestamp string for file naming.
func FormatTimestamp(t time.Time) string {
	return t.Format(snapshotLayout)
}

// SnapshotName returns the image file name for a window, without directory.
func SnapshotName(w series.Window) string {
	return FormatTimestamp(w.From) + "_to_" + FormatTimestamp(w.To) + ".png"
}

// SnapshotPath joins SnapshotName onto dir.
func SnapshotPath(dir string, w series.Window) string {
	return filepath.Join(dir, SnapshotName(w))
}

// xRange returns the plotted x bounds for w in Unix seconds.
func xRange(w series.Window) (float64, float64) {
	if w.Empty() {
		return unix(w.From.Add(-emptyPad)), unix(w.From.Add(emptyPad))
	}
	return unix(w.From), unix(w.To)
}

func unix(t time.Time) float64 { return float64(t.Unix()) }

// TimeTicks places about count evenly spaced, labelled ticks across w. When
// fewer than count distinct timestamps fall inside w it puts one tick on
// each sample instead, so sparse data never gets ticks between points.
func TimeTicks(w series.Window, timestamps []time.Time, count int) []plot.Tick {
	if count < 1 {
		count = 1
	}

	var inside []time.Time
	for _, ts := range timestamps {
		if w.Contains(ts) {
			inside = append(inside, ts)
		}
	}

	if len(inside) < count || w.Empty() {
		ticks := make([]plot.Tick, 0, len(inside))
		for _, ts := range inside {
			ticks = append(ticks, plot.Tick{Value: unix(ts), Label: ts.Format(tickLayout)})
		}
		return ticks
	}

	if count == 1 {
		return []plot.Tick{{Value: unix(w.From), Label: w.From.Format(tickLayout)}}
	}

	step := w.To.Sub(w.From) / time.Duration(count-1)
	ticks := make([]plot.Tick, 0, count)
	for i := 0; i < count; i++ {
		ts := w.From.Add(time.Duration(i) * step)
		if i == count-1 {
			ts = w.To
		}
		ticks = append(ticks, plot.Tick{Value: unix(ts), Label: ts.Format(tickLayout)})
	}
	return ticks
}
