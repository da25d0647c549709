package navigation

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"MandelbrotExplorer/viewport"
)

const tolerance = 1e-9

func newTestController(t *testing.T) *Controller {
	t.Helper()
	controller, err := New(viewport.Default(800, 600))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return controller
}

func TestNewRejectsInvalidViewport(t *testing.T) {
	_, err := New(viewport.Viewport{Width: 0, Height: 10, Zoom: 1})
	if !errors.Is(err, viewport.ErrInvalidDimensions) {
		t.Errorf("New error = %v, want ErrInvalidDimensions", err)
	}
}

func TestDragPans(t *testing.T) {
	controller := newTestController(t)

	if _, moved := controller.DragMove(10, 10); moved {
		t.Fatal("DragMove without DragStart moved the view")
	}

	controller.DragStart(0, 0)
	got, moved := controller.DragMove(100, 0)
	if !moved {
		t.Fatal("DragMove during a drag did not move the view")
	}
	want := viewport.Viewport{Width: 800, Height: 600, CenterX: -0.375, Zoom: 1}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, tolerance)); diff != "" {
		t.Errorf("viewport mismatch (-want +got):\n%s", diff)
	}

	controller.DragEnd()
	if controller.Dragging() {
		t.Error("still dragging after DragEnd")
	}
	if _, moved := controller.DragMove(300, 300); moved {
		t.Error("DragMove after DragEnd moved the view")
	}
	if got := controller.Generation(); got != 1 {
		t.Errorf("Generation = %d, want 1", got)
	}
}

func TestDragAccumulates(t *testing.T) {
	stepwise := newTestController(t)
	stepwise.DragStart(10, 20)
	stepwise.DragMove(30, 25)
	stepwise.DragMove(60, 5)
	stepwise.DragMove(110, -40)

	direct := newTestController(t)
	direct.Pan(100, -60)

	if diff := cmp.Diff(direct.Viewport(), stepwise.Viewport(), cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("viewport mismatch (-direct +stepwise):\n%s", diff)
	}
}

func TestZoomAtKeepsPointUnderCursor(t *testing.T) {
	cursors := [][2]float64{{400, 300}, {0, 0}, {799, 599}, {123.5, 456.25}}
	for _, cursor := range cursors {
		for _, zoomIn := range []bool{true, false} {
			controller := newTestController(t)
			controller.Pan(-37, 12)
			before := controller.Viewport()
			wantRe, wantIm := before.PixelToComplex(cursor[0], cursor[1])

			after := controller.ZoomAt(cursor[0], cursor[1], zoomIn)
			gotRe, gotIm := after.PixelToComplex(cursor[0], cursor[1])
			if math.Abs(gotRe-wantRe) > tolerance || math.Abs(gotIm-wantIm) > tolerance {
				t.Errorf("cursor %v zoomIn %t: point moved from (%g, %g) to (%g, %g)", cursor, zoomIn, wantRe, wantIm, gotRe, gotIm)
			}

			factor := ZoomOutFactor
			if zoomIn {
				factor = ZoomInFactor
			}
			if math.Abs(after.Zoom-before.Zoom*factor) > tolerance {
				t.Errorf("zoom = %g, want %g", after.Zoom, before.Zoom*factor)
			}
		}
	}
}

func TestZoomInThenOutDrifts(t *testing.T) {
	controller := newTestController(t)
	controller.ZoomAt(400, 300, true)
	got := controller.ZoomAt(400, 300, false)

	if math.Abs(got.Zoom-0.96) > tolerance {
		t.Errorf("zoom = %g, want 0.96", got.Zoom)
	}
	if math.Abs(got.CenterX) > tolerance || math.Abs(got.CenterY) > tolerance {
		t.Errorf("center = (%g, %g), want the origin", got.CenterX, got.CenterY)
	}
}

func TestResetSetZoomResize(t *testing.T) {
	controller := newTestController(t)
	controller.DragStart(0, 0)
	controller.DragMove(50, 50)
	controller.ZoomAt(10, 10, true)

	if diff := cmp.Diff(viewport.Default(800, 600), controller.Reset()); diff != "" {
		t.Errorf("Reset mismatch (-want +got):\n%s", diff)
	}
	if controller.Dragging() {
		t.Error("Reset kept the drag alive")
	}

	v, err := controller.SetZoom(250)
	if err != nil {
		t.Fatalf("SetZoom: %v", err)
	}
	if v.Zoom != 250 {
		t.Errorf("zoom = %g, want 250", v.Zoom)
	}
	if _, err := controller.SetZoom(-1); !errors.Is(err, viewport.ErrInvalidViewport) {
		t.Errorf("SetZoom(-1) error = %v, want ErrInvalidViewport", err)
	}

	v, err = controller.Resize(1024, 768)
	if err != nil {
		t.Fatalf("Resize: %v", err)
	}
	want := viewport.Viewport{Width: 1024, Height: 768, Zoom: 250}
	if diff := cmp.Diff(want, v); diff != "" {
		t.Errorf("Resize mismatch (-want +got):\n%s", diff)
	}
	if _, err := controller.Resize(0, 768); !errors.Is(err, viewport.ErrInvalidDimensions) {
		t.Errorf("Resize(0, 768) error = %v, want ErrInvalidDimensions", err)
	}
	if diff := cmp.Diff(want, controller.Viewport()); diff != "" {
		t.Errorf("failed Resize changed the viewport (-want +got):\n%s", diff)
	}
}

func TestOutOfRangeChangeIsIgnored(t *testing.T) {
	controller := newTestController(t)
	if _, err := controller.SetZoom(math.MaxFloat64); err != nil {
		t.Fatalf("SetZoom: %v", err)
	}
	before := controller.Viewport()
	generation := controller.Generation()

	// zooming in past the largest float64 would make the zoom infinite
	after := controller.ZoomAt(400, 300, true)
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("viewport changed (-before +after):\n%s", diff)
	}
	if got := controller.Generation(); got != generation {
		t.Errorf("Generation = %d, want %d", got, generation)
	}
}

func TestConcurrentUse(t *testing.T) {
	controller := newTestController(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				switch j % 4 {
				case 0:
					controller.Pan(float64(i), -float64(i))
				case 1:
					controller.ZoomAt(float64(j), float64(i), i%2 == 0)
				case 2:
					controller.DragStart(float64(j), 0)
					controller.DragMove(float64(j+i), 1)
				default:
					if err := controller.Viewport().Validate(); err != nil {
						t.Errorf("snapshot is invalid: %v", err)
					}
				}
			}
		}(i)
	}
	wg.Wait()

	if err := controller.Viewport().Validate(); err != nil {
		t.Errorf("final viewport is invalid: %v", err)
	}
}
