package render

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/BrugadaSyndrome/bslogger"
	"golang.org/x/sync/errgroup"

	"MandelbrotExplorer/misc"
	"MandelbrotExplorer/task"
)

// PixelBuffer holds width*height RGBA pixels in row-major order starting at the
// top left corner.
type PixelBuffer []byte

// Settings configures how a Renderer spreads the work of a frame.
type Settings struct {
	Workers  int
	Strategy task.Strategy
}

func (s *Settings) Verify() error {
	if s.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", s.Workers)
	}
	if s.Workers == 0 {
		s.Workers = runtime.NumCPU()
	}
	if s.Strategy < task.Row || s.Strategy > task.Image {
		return fmt.Errorf("unknown task strategy %d", int(s.Strategy))
	}
	return nil
}

// Renderer turns requests into pixel buffers on a pool of workers. A Renderer
// also tracks request generations: RenderFrame supersedes the frames still in
// flight from earlier calls.
type Renderer struct {
	logger   bslogger.Logger
	settings Settings

	mutex      sync.Mutex
	generation uint64
	cancel     context.CancelFunc

	// started, when set, runs after a RenderFrame call took its generation
	started func(generation uint64)
}

func NewRenderer(settings Settings, logger bslogger.Logger) (*Renderer, error) {
	if err := settings.Verify(); err != nil {
		return nil, err
	}
	return &Renderer{
		logger:   logger,
		settings: settings,
	}, nil
}

// Render renders one frame with a renderer using every CPU and row tasks.
func Render(ctx context.Context, request Request) (PixelBuffer, error) {
	renderer, err := NewRenderer(Settings{}, misc.NewLogger("Renderer", "normal"))
	if err != nil {
		return nil, err
	}
	return renderer.Render(ctx, request)
}

// Render renders a frame without touching the generation counter. Identical
// requests always produce identical buffers.
func (r *Renderer) Render(ctx context.Context, request Request) (PixelBuffer, error) {
	frame, err := r.render(ctx, request, 0)
	if err != nil {
		return nil, err
	}
	return frame.Pixels, nil
}

// RenderFrame renders request as a new generation and cancels renders of
// older generations. A frame that is overtaken while rendering is dropped and
// ErrSuperseded is returned in its place.
func (r *Renderer) RenderFrame(ctx context.Context, request Request) (Frame, error) {
	r.mutex.Lock()
	r.generation++
	generation := r.generation
	if r.cancel != nil {
		r.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.mutex.Unlock()
	defer cancel()

	if r.started != nil {
		r.started(generation)
	}
	frame, err := r.render(ctx, request, generation)
	if current := r.Generation(); current != generation {
		r.logger.Debugf("Dropped generation %d, superseded by generation %d", generation, current)
		return Frame{}, fmt.Errorf("%w: generation %d", ErrSuperseded, generation)
	}
	if err != nil {
		return Frame{}, err
	}
	r.logger.Debugf("Rendered generation %d %dx%d in %s", generation, request.Viewport.Width, request.Viewport.Height, frame.Elapsed)
	return frame, nil
}

// Generation is the generation of the most recent RenderFrame call.
func (r *Renderer) Generation() uint64 {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.generation
}

// Cancel stops the render in flight, if any. Its RenderFrame call returns an error.
func (r *Renderer) Cancel() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
}

func (r *Renderer) render(ctx context.Context, request Request, generation uint64) (Frame, error) {
	if err := request.Validate(); err != nil {
		return Frame{}, err
	}
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}

	startTime := time.Now()
	width := int(request.Viewport.Width)
	height := int(request.Viewport.Height)
	pixels := make(PixelBuffer, width*height*4)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.settings.Workers)
	for _, t := range task.Split(width, height, r.settings.Strategy, generation) {
		if groupCtx.Err() != nil {
			break
		}
		t := t
		group.Go(func() error {
			return processTask(groupCtx, request, pixels, t)
		})
	}
	if err := group.Wait(); err != nil {
		return Frame{}, err
	}
	// the loop above stops early without an error when ctx is cancelled
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}

	return Frame{
		Generation: generation,
		Request:    request,
		Pixels:     pixels,
		Elapsed:    time.Since(startTime),
	}, nil
}
