package viewport

import (
	"errors"
	"fmt"
	"math"
)

// BaseSpan is the horizontal extent of the complex plane shown at zoom 1.
const BaseSpan = 3.0

var (
	ErrInvalidDimensions = errors.New("invalid dimensions")
	ErrInvalidViewport   = errors.New("invalid viewport")
)

// Viewport is the window into the complex plane that is currently displayed.
type Viewport struct {
	Width   uint32
	Height  uint32
	CenterX float64
	CenterY float64
	Zoom    float64
}

// Default returns the reset view: centered on the origin at zoom 1.
func Default(width uint32, height uint32) Viewport {
	return Viewport{
		Width:  width,
		Height: height,
		Zoom:   1,
	}
}

func (v Viewport) String() string {
	output := "{Viewport "
	output += fmt.Sprintf("Width: %d ", v.Width)
	output += fmt.Sprintf("Height: %d ", v.Height)
	output += fmt.Sprintf("CenterX: %g ", v.CenterX)
	output += fmt.Sprintf("CenterY: %g ", v.CenterY)
	output += fmt.Sprintf("Zoom: %g}", v.Zoom)
	return output
}

// Validate reports ErrInvalidDimensions for an empty canvas and ErrInvalidViewport
// for a zoom or center that would poison the iteration with NaN or Inf.
func (v Viewport) Validate() error {
	if v.Width == 0 || v.Height == 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, v.Width, v.Height)
	}
	if math.IsNaN(v.Zoom) || math.IsInf(v.Zoom, 0) || v.Zoom <= 0 {
		return fmt.Errorf("%w: zoom %v", ErrInvalidViewport, v.Zoom)
	}
	if !finite(v.CenterX) || !finite(v.CenterY) {
		return fmt.Errorf("%w: center (%v, %v)", ErrInvalidViewport, v.CenterX, v.CenterY)
	}
	if !finite(v.Span()) {
		return fmt.Errorf("%w: zoom %v leaves no representable span", ErrInvalidViewport, v.Zoom)
	}
	return nil
}

// Span is the width of the complex plane covered by the viewport. The same span
// is used for the vertical axis, so non-square canvases are stretched vertically.
func (v Viewport) Span() float64 {
	return BaseSpan / v.Zoom
}

// PixelToComplex converts a (possibly fractional) pixel position to the point
// of the complex plane displayed there.
func (v Viewport) PixelToComplex(px float64, py float64) (float64, float64) {
	span := v.Span()
	re := v.CenterX + (px/float64(v.Width)-0.5)*span
	im := v.CenterY + (py/float64(v.Height)-0.5)*span
	return re, im
}

// ComplexToPixel is the inverse of PixelToComplex.
func (v Viewport) ComplexToPixel(re float64, im float64) (float64, float64) {
	span := v.Span()
	px := ((re-v.CenterX)/span + 0.5) * float64(v.Width)
	py := ((im-v.CenterY)/span + 0.5) * float64(v.Height)
	return px, py
}

// Pan moves the view by a pixel delta. Content follows the pointer, so the
// center moves the opposite way.
func (v Viewport) Pan(dx float64, dy float64) Viewport {
	span := v.Span()
	v.CenterX -= dx * (span / float64(v.Width))
	v.CenterY -= dy * (span / float64(v.Height))
	return v
}

// ZoomAt multiplies the zoom by factor while keeping the complex point under
// pixel (px, py) in place.
func (v Viewport) ZoomAt(px float64, py float64, factor float64) Viewport {
	re, im := v.PixelToComplex(px, py)
	v.CenterX = re - (re-v.CenterX)/factor
	v.CenterY = im - (im-v.CenterY)/factor
	v.Zoom *= factor
	return v
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
