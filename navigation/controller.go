package navigation

import (
	"fmt"
	"sync"

	"MandelbrotExplorer/viewport"
)

const (
	ZoomInFactor  = 1.2
	ZoomOutFactor = 0.8
)

// Controller owns the viewport of one interactive session and applies pointer
// input to it. All methods are safe for concurrent use; readers always see a
// complete viewport.
type Controller struct {
	mutex      sync.Mutex
	viewport   viewport.Viewport
	generation uint64

	dragging bool
	anchorX  float64
	anchorY  float64
}

func New(v viewport.Viewport) (*Controller, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return &Controller{viewport: v}, nil
}

// Viewport returns a snapshot of the current view.
func (c *Controller) Viewport() viewport.Viewport {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.viewport
}

// Generation counts the changes made to the view so far.
func (c *Controller) Generation() uint64 {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.generation
}

func (c *Controller) Dragging() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.dragging
}

// DragStart records the pointer position a drag starts from.
func (c *Controller) DragStart(x float64, y float64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.dragging = true
	c.anchorX = x
	c.anchorY = y
}

// DragMove pans by the distance moved since the last drag event. The second
// result is false when no drag is in progress, in which case nothing changes.
func (c *Controller) DragMove(x float64, y float64) (viewport.Viewport, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if !c.dragging {
		return c.viewport, false
	}
	dx := x - c.anchorX
	dy := y - c.anchorY
	c.anchorX = x
	c.anchorY = y
	return c.pan(dx, dy), true
}

func (c *Controller) DragEnd() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.dragging = false
}

// Pan moves the view by a pixel delta so that the content follows the pointer.
func (c *Controller) Pan(dx float64, dy float64) viewport.Viewport {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.pan(dx, dy)
}

func (c *Controller) pan(dx float64, dy float64) viewport.Viewport {
	return c.update(c.viewport.Pan(dx, dy))
}

// ZoomAt zooms in or out one wheel step around the pixel (px, py). The complex
// point under the cursor stays where it is.
func (c *Controller) ZoomAt(px float64, py float64, zoomIn bool) viewport.Viewport {
	factor := ZoomOutFactor
	if zoomIn {
		factor = ZoomInFactor
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.update(c.viewport.ZoomAt(px, py, factor))
}

// Reset goes back to zoom 1 centered on the origin, keeping the canvas size.
func (c *Controller) Reset() viewport.Viewport {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.dragging = false
	return c.update(viewport.Default(c.viewport.Width, c.viewport.Height))
}

// SetZoom replaces the zoom while keeping the center.
func (c *Controller) SetZoom(zoom float64) (viewport.Viewport, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	next := c.viewport
	next.Zoom = zoom
	if err := next.Validate(); err != nil {
		return c.viewport, err
	}
	return c.update(next), nil
}

// Resize changes the canvas size. The center and zoom are kept, so the same
// horizontal span of the plane stays visible.
func (c *Controller) Resize(width uint32, height uint32) (viewport.Viewport, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	next := c.viewport
	next.Width = width
	next.Height = height
	if err := next.Validate(); err != nil {
		return c.viewport, err
	}
	return c.update(next), nil
}

// update installs next unless it went out of range, which deep zooms and huge
// pans can do. An out of range view is ignored and the current one kept.
func (c *Controller) update(next viewport.Viewport) viewport.Viewport {
	if err := next.Validate(); err != nil {
		return c.viewport
	}
	c.viewport = next
	c.generation++
	return c.viewport
}

func (c *Controller) String() string {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return fmt.Sprintf("{Controller Viewport: %v Generation: %d Dragging: %t}", c.viewport, c.generation, c.dragging)
}
