package render

import (
	"errors"
	"fmt"
	"image/color"

	"MandelbrotExplorer/mandelbrot"
	"MandelbrotExplorer/palette"
	"MandelbrotExplorer/viewport"
)

const (
	// MaxIterationLimit is the largest accepted iteration budget.
	MaxIterationLimit = 100000

	// MaxPixels bounds the size of one frame buffer.
	MaxPixels = 1 << 26
)

// Errors returned by Request.Validate. They are the same values as the ones
// declared by the viewport and palette packages, so errors.Is works with either.
var (
	ErrInvalidDimensions      = viewport.ErrInvalidDimensions
	ErrInvalidViewport        = viewport.ErrInvalidViewport
	ErrInvalidIterationBudget = errors.New("invalid iteration budget")
	ErrUnknownPalette         = palette.ErrUnknownPalette
	ErrSuperseded             = errors.New("render superseded by a newer request")
)

// Request is everything needed to render one frame.
type Request struct {
	Viewport       viewport.Viewport
	MaxIterations  uint32
	Palette        palette.Kind
	SmoothColoring bool
}

func (r Request) String() string {
	output := "{Request "
	output += fmt.Sprintf("Viewport: %v ", r.Viewport)
	output += fmt.Sprintf("MaxIterations: %d ", r.MaxIterations)
	output += fmt.Sprintf("Palette: %v ", r.Palette)
	output += fmt.Sprintf("SmoothColoring: %t}", r.SmoothColoring)
	return output
}

// Validate rejects requests before any pixel is computed. A zero iteration
// budget is valid and renders every pixel as interior.
func (r Request) Validate() error {
	if err := r.Viewport.Validate(); err != nil {
		return err
	}
	if uint64(r.Viewport.Width)*uint64(r.Viewport.Height) > MaxPixels {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrInvalidDimensions, r.Viewport.Width, r.Viewport.Height, MaxPixels)
	}
	if r.MaxIterations > MaxIterationLimit {
		return fmt.Errorf("%w: %d is above %d", ErrInvalidIterationBudget, r.MaxIterations, MaxIterationLimit)
	}
	return r.Palette.Validate()
}

func (r Request) color(result mandelbrot.EscapeResult) color.RGBA {
	if r.SmoothColoring {
		return r.Palette.SmoothColor(result)
	}
	return r.Palette.Color(result)
}
