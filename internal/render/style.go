package render

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/humidity.report/internal/record"
)

// Style is how one source is drawn. It depends only on the source key, so a
// source keeps its look across refreshes.
type Style struct {
	Label string
	Color color.Color
	Glyph draw.GlyphDrawer
}

var (
	cyan    = color.RGBA{R: 0, G: 191, B: 191, A: 255}
	green   = color.RGBA{R: 0, G: 128, B: 0, A: 255}
	yellow  = color.RGBA{R: 191, G: 191, B: 0, A: 255}
	magenta = color.RGBA{R: 191, G: 0, B: 191, A: 255}
	red     = color.RGBA{R: 220, G: 20, B: 20, A: 255}
	blue    = color.RGBA{R: 30, G: 60, B: 220, A: 255}
)

var sensorColors = []color.Color{cyan, green, yellow, magenta}

// Sensor markers in palette order: x . , v ^
var sensorGlyphs = []draw.GlyphDrawer{
	draw.CrossGlyph{},
	draw.CircleGlyph{},
	draw.BoxGlyph{},
	draw.RingGlyph{},
	draw.PyramidGlyph{},
}

const glyphRadius = vg.Length(2)

// StyleFor returns the drawing style of key. weatherLabel names the weather
// source in legends; empty means "Weather".
func StyleFor(key record.SourceKey, weatherLabel string) Style {
	if key.IsWeather() {
		if weatherLabel == "" {
			weatherLabel = key.String()
		}
		return Style{Label: weatherLabel, Color: red, Glyph: draw.TriangleGlyph{}}
	}

	i := key.Number() - 1
	return Style{
		Label: key.String(),
		Color: sensorColor(i),
		Glyph: sensorGlyphs[i%len(sensorGlyphs)],
	}
}

// PrecipitationStyle is the style of the weather precipitation series.
func PrecipitationStyle() Style {
	return Style{Label: record.Precipitation.Label(), Color: blue, Glyph: draw.PlusGlyph{}}
}

// sensorColor uses the fixed palette first and then spreads further sensors
// around the hue circle by the golden ratio so neighbours stay distinct.
func sensorColor(i int) color.Color {
	if i < len(sensorColors) {
		return sensorColors[i]
	}
	hue := math.Mod(float64(i)*0.618033988749895, 1)
	r, g, b := hslToRGB(hue, 0.7, 0.45)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64

	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}

	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	if t < 1.0/6.0 {
		return p + (q-p)*6*t
	}
	if t < 1.0/2.0 {
		return q
	}
	if t < 2.0/3.0 {
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}

// hexColor formats c as #rrggbb for the HTML charts.
func hexColor(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}
