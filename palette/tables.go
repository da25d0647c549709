package palette

import (
	"image/color"
	"math"

	"MandelbrotExplorer/misc"
)

type generatePaletteSettings struct {
	StartColor   color.RGBA
	EndColor     color.RGBA
	NumberColors int
}

func (gps *generatePaletteSettings) GeneratePalette() []color.RGBA {
	palette := make([]color.RGBA, 0, gps.NumberColors)
	for j := 0; j < gps.NumberColors; j++ {
		fraction := float64(j) / float64(gps.NumberColors)
		palette = append(palette, color.RGBA{
			R: misc.LerpUint8(gps.StartColor.R, gps.EndColor.R, fraction),
			G: misc.LerpUint8(gps.StartColor.G, gps.EndColor.G, fraction),
			B: misc.LerpUint8(gps.StartColor.B, gps.EndColor.B, fraction),
			A: 255,
		})
	}
	return palette
}

// gradient chains segments through the given stops and back to the first one,
// so the table wraps around without a seam.
func gradient(colorsPerStop int, stops ...color.RGBA) []color.RGBA {
	palette := make([]color.RGBA, 0, colorsPerStop*len(stops))
	for i := range stops {
		segment := generatePaletteSettings{
			StartColor:   stops[i],
			EndColor:     stops[(i+1)%len(stops)],
			NumberColors: colorsPerStop,
		}
		palette = append(palette, segment.GeneratePalette()...)
	}
	return palette
}

func rgb(r, g, b uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// hsv converts hue in [0, 1) with saturation and value in [0, 1].
func hsv(h, s, v float64) color.RGBA {
	h = math.Mod(h, 1)
	i := int(h * 6)
	f := h*6 - float64(i)
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)

	var r, g, b float64
	switch i % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	case 5:
		r, g, b = v, p, q
	}
	return color.RGBA{R: uint8(r * 255), G: uint8(g * 255), B: uint8(b * 255), A: 255}
}

func rainbowTable() []color.RGBA {
	const size = 36
	palette := make([]color.RGBA, size)
	for i := range palette {
		palette[i] = hsv(float64(i)/size, 1, 1)
	}
	return palette
}

func monochromeTable() []color.RGBA {
	const size = 48
	palette := make([]color.RGBA, size)
	for i := range palette {
		phase := 2 * math.Pi * float64(i) / size
		level := 127.5 - 127.5*math.Cos(phase)
		// the twist: a blue tint that runs at three times the grey frequency
		tint := 40 * math.Sin(3*phase)
		palette[i] = rgb(
			uint8(level),
			uint8(level),
			uint8(math.Max(0, math.Min(255, level+tint))),
		)
	}
	return palette
}

func psychedelicTable() []color.RGBA {
	const size = 40
	palette := make([]color.RGBA, size)
	for i := range palette {
		phase := 2 * math.Pi * float64(i) / size
		palette[i] = rgb(
			uint8(127.5+127.5*math.Sin(phase)),
			uint8(60+60*math.Sin(2*phase+2*math.Pi/3)),
			uint8(127.5+127.5*math.Sin(phase+4*math.Pi/3)),
		)
	}
	return palette
}

var tables = [...][]color.RGBA{
	Rainbow: rainbowTable(),
	Fire: gradient(16,
		rgb(0, 0, 0),
		rgb(180, 0, 0),
		rgb(255, 120, 0),
		rgb(255, 230, 60),
		rgb(255, 255, 220),
	),
	Ocean: gradient(16,
		rgb(0, 7, 100),
		rgb(12, 44, 138),
		rgb(24, 82, 177),
		rgb(57, 125, 209),
		rgb(134, 181, 229),
		rgb(211, 236, 248),
	),
	Grayscale: gradient(24,
		rgb(20, 20, 20),
		rgb(235, 235, 235),
	),
	Cosmic: gradient(14,
		rgb(25, 7, 26),
		rgb(60, 20, 120),
		rgb(190, 40, 160),
		rgb(20, 150, 160),
		rgb(240, 220, 150),
	),
	FireAndAsh: gradient(12,
		rgb(60, 0, 0),
		rgb(230, 80, 0),
		rgb(255, 200, 40),
		rgb(90, 90, 90),
		rgb(180, 180, 175),
		rgb(45, 45, 45),
	),
	Monochrome:  monochromeTable(),
	Psychedelic: psychedelicTable(),
}
