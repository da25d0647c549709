package palette

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strings"

	"MandelbrotExplorer/mandelbrot"
	"MandelbrotExplorer/misc"
)

const (
	Rainbow Kind = iota
	Fire
	Ocean
	Grayscale
	Cosmic
	FireAndAsh
	Monochrome
	Psychedelic
)

var ErrUnknownPalette = errors.New("unknown palette")

// Interior is the color of every point that did not escape, whatever the palette.
var Interior = color.RGBA{R: 0, G: 0, B: 0, A: 255}

// Kind selects one of the built in palettes.
type Kind int

var names = []string{
	"rainbow", "fire", "ocean", "grayscale", "cosmic", "fireAndAsh", "monochrome", "psychedelic",
}

// longer names used by the palette selector labels
var aliases = map[string]Kind{
	"gray":                    Grayscale,
	"greyscale":               Grayscale,
	"cosmic-nebula":           Cosmic,
	"fire-and-ash":            FireAndAsh,
	"monochrome-with-twist":   Monochrome,
	"psychedelic-ultraviolet": Psychedelic,
}

// Kinds lists every palette in selector order.
func Kinds() []Kind {
	kinds := make([]Kind, len(names))
	for i := range kinds {
		kinds[i] = Kind(i)
	}
	return kinds
}

func (k Kind) String() string {
	if k < Rainbow || k > Psychedelic {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return names[k]
}

// Parse looks a palette up by name, ignoring case.
func Parse(name string) (Kind, error) {
	for i, n := range names {
		if strings.EqualFold(n, name) {
			return Kind(i), nil
		}
	}
	if k, ok := aliases[strings.ToLower(name)]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPalette, name)
}

func (k Kind) Validate() error {
	if k < Rainbow || k > Psychedelic {
		return fmt.Errorf("%w: %d", ErrUnknownPalette, int(k))
	}
	return nil
}

func (k Kind) MarshalText() ([]byte, error) {
	if err := k.Validate(); err != nil {
		return nil, err
	}
	return []byte(names[k]), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Color maps an escape result to a color. The banding repeats every len(table)
// iterations so it does not depend on the iteration budget.
func (k Kind) Color(r mandelbrot.EscapeResult) color.RGBA {
	if !r.Escaped {
		return Interior
	}
	colors := k.table()
	return colors[int(r.Iterations)%len(colors)]
}

// SmoothColor blends the two palette entries around the normalized iteration
// count of r.
func (k Kind) SmoothColor(r mandelbrot.EscapeResult) color.RGBA {
	if !r.Escaped {
		return Interior
	}
	colors := k.table()
	whole, fraction := math.Modf(mandelbrot.SmoothIterations(r))
	index := int(whole) % len(colors)
	return misc.LinearInterpolationRGB(colors[index], colors[(index+1)%len(colors)], fraction)
}

func (k Kind) table() []color.RGBA {
	if k < Rainbow || k > Psychedelic {
		// only reachable by skipping Validate
		return tables[Grayscale]
	}
	return tables[k]
}
