package mandelbrot

import (
	"fmt"
	"math"
)

// Bailout is the squared escape radius.
const Bailout = 4.0

// Orbit points are saved this often for periodicity checking.
const periodCheckInterval = 20

var mathLog2 = math.Log(2)

// EscapeResult is the outcome of iterating a single point. A result that did not
// escape within the iteration budget is Bounded.
type EscapeResult struct {
	Escaped             bool
	Iterations          uint32
	FinalModulusSquared float64
}

// Bounded is the result for points that never escaped.
var Bounded = EscapeResult{}

func (r EscapeResult) String() string {
	if !r.Escaped {
		return "{Bounded}"
	}
	return fmt.Sprintf("{Escaped Iterations: %d FinalModulusSquared: %g}", r.Iterations, r.FinalModulusSquared)
}

// https://en.wikipedia.org/wiki/Plotting_algorithms_for_the_Mandelbrot_set#Optimized_escape_time_algorithms
//
// EscapeTime iterates z = z*z + c from z = 0. Iterations are counted from 1: an
// escaped result reports how many updates of z ran before |z|^2 exceeded Bailout.
// The caller must pass finite coordinates.
func EscapeTime(x float64, y float64, maxIterations uint32) EscapeResult {
	x1, y1, x2, y2 := 0.0, 0.0, 0.0, 0.0
	oldX, oldY := 0.0, 0.0
	period := 0

	for n := uint32(0); n < maxIterations; n++ {
		y1 = 2*x1*y1 + y
		x1 = x2 - y2 + x
		x2 = x1 * x1
		y2 = y1 * y1

		if x2+y2 > Bailout {
			return EscapeResult{
				Escaped:             true,
				Iterations:          n + 1,
				FinalModulusSquared: x2 + y2,
			}
		}

		// An exact repeat of a saved orbit point means the orbit is periodic
		// https://en.wikipedia.org/wiki/Plotting_algorithms_for_the_Mandelbrot_set#Periodicity_checking
		if x1 == oldX && y1 == oldY {
			return Bounded
		}
		period++
		if period > periodCheckInterval {
			period = 0
			oldX = x1
			oldY = y1
		}
	}

	return Bounded
}

// https://en.wikipedia.org/wiki/Plotting_algorithms_for_the_Mandelbrot_set#Continuous_(smooth)_coloring
//
// SmoothIterations returns the normalized iteration count of an escaped result,
// or 0 for a bounded one.
func SmoothIterations(r EscapeResult) float64 {
	if !r.Escaped {
		return 0
	}
	zn := math.Log(r.FinalModulusSquared) / 2
	nu := math.Log(zn/mathLog2) / mathLog2
	mu := float64(r.Iterations) + 1 - nu
	if mu < 0 || math.IsNaN(mu) {
		return 0
	}
	return mu
}
