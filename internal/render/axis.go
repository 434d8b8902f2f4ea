package render

import (
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// secondaryAxis is a right-hand axis with its own range. gonum/plot has a
// single Y axis per plot, so secondary values are mapped linearly into the
// primary range before plotting and this plotter draws the matching scale
// to the right of the data area.
type secondaryAxis struct {
	Label      string
	Min, Max   float64 // secondary range
	PMin, PMax float64 // primary range it is mapped onto
	Offset     vg.Length
	Color      color.Color
}

// toPrimary maps a secondary value into primary axis units.
func (a secondaryAxis) toPrimary(v float64) float64 {
	if a.Max == a.Min {
		return a.PMin
	}
	return a.PMin + (v-a.Min)/(a.Max-a.Min)*(a.PMax-a.PMin)
}

// mapXYs returns a copy of xys with Y converted to primary units.
func (a secondaryAxis) mapXYs(xys plotter.XYs) plotter.XYs {
	out := make(plotter.XYs, len(xys))
	for i, p := range xys {
		out[i] = plotter.XY{X: p.X, Y: a.toPrimary(p.Y)}
	}
	return out
}

// Plot implements plot.Plotter.
func (a secondaryAxis) Plot(c draw.Canvas, plt *plot.Plot) {
	_, ty := plt.Transforms(&c)
	x := c.Max.X + a.Offset

	ls := plt.Y.LineStyle
	ls.Color = a.Color
	c.StrokeLine2(ls, x, c.Min.Y, x, c.Max.Y)

	tickLen := plt.Y.Tick.Length
	tls := plt.Y.Tick.LineStyle
	tls.Color = a.Color

	sty := plt.Y.Tick.Label
	sty.Color = a.Color
	sty.XAlign = draw.XLeft
	sty.YAlign = draw.YCenter

	for _, t := range (plot.DefaultTicks{}).Ticks(a.Min, a.Max) {
		if t.Value < a.Min || t.Value > a.Max {
			continue
		}
		y := ty(a.toPrimary(t.Value))
		if t.IsMinor() {
			c.StrokeLine2(tls, x, y, x+tickLen/2, y)
			continue
		}
		c.StrokeLine2(tls, x, y, x+tickLen, y)
		c.FillText(sty, vg.Point{X: x + tickLen + vg.Points(2), Y: y}, t.Label)
	}

	lsty := plt.Y.Tick.Label
	lsty.Color = a.Color
	lsty.XAlign = draw.XCenter
	lsty.YAlign = draw.YBottom
	c.FillText(lsty, vg.Point{X: x, Y: c.Max.Y + vg.Points(4)}, a.Label)
}
