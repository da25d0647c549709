package render

import (
	"context"

	"MandelbrotExplorer/mandelbrot"
	"MandelbrotExplorer/task"
)

// processTask computes the pixels of one task into pixels. Tasks own disjoint
// pixels, so any number of them may run against the same buffer.
func processTask(ctx context.Context, request Request, pixels PixelBuffer, t task.Task) error {
	v := request.Viewport
	stride := int(v.Width) * 4

	for y := t.Bounds.Min.Y; y < t.Bounds.Max.Y; y++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		offset := y*stride + t.Bounds.Min.X*4
		for x := t.Bounds.Min.X; x < t.Bounds.Max.X; x++ {
			re, im := v.PixelToComplex(float64(x), float64(y))
			c := request.color(mandelbrot.EscapeTime(re, im, request.MaxIterations))

			pixels[offset] = c.R
			pixels[offset+1] = c.G
			pixels[offset+2] = c.B
			pixels[offset+3] = c.A
			offset += 4
		}
	}
	return nil
}
