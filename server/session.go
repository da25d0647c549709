package server

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/BrugadaSyndrome/bslogger"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"MandelbrotExplorer/navigation"
	"MandelbrotExplorer/palette"
	"MandelbrotExplorer/render"
	"MandelbrotExplorer/settings"
	"MandelbrotExplorer/viewport"
)

// Commands a client can send on a session.
const (
	CommandDragStart = "dragStart"
	CommandDragMove  = "dragMove"
	CommandDragEnd   = "dragEnd"
	CommandZoom      = "zoom"
	CommandSetZoom   = "setZoom"
	CommandReset     = "reset"
	CommandResize    = "resize"
	CommandSettings  = "settings"
	CommandRender    = "render"
)

// Messages the server sends besides binary frames.
const (
	MessageView  = "view"
	MessageError = "error"
)

// Command is one client input. Only the fields of its Type are read.
type Command struct {
	Type string `json:"type"`

	// pointer position for drags and wheel zooms
	X float64 `json:"x,omitempty"`
	Y float64 `json:"y,omitempty"`

	ZoomIn bool    `json:"zoomIn,omitempty"`
	Zoom   float64 `json:"zoom,omitempty"`

	Width  uint32 `json:"width,omitempty"`
	Height uint32 `json:"height,omitempty"`

	MaxIterations  *uint32 `json:"maxIterations,omitempty"`
	Palette        *string `json:"palette,omitempty"`
	SmoothColoring *bool   `json:"smooth,omitempty"`
}

// Message is sent as JSON before every frame and in place of a frame on errors.
type Message struct {
	Type           string             `json:"type"`
	Viewport       *viewport.Viewport `json:"viewport,omitempty"`
	MaxIterations  uint32             `json:"maxIterations,omitempty"`
	Palette        string             `json:"palette,omitempty"`
	SmoothColoring bool               `json:"smooth,omitempty"`
	Error          string             `json:"error,omitempty"`
}

// session is one websocket connection driving its own view. Every change of
// the view starts a render that supersedes the ones still running, and frames
// are only sent when nothing newer was sent before them.
type session struct {
	conn       *websocket.Conn
	controller *navigation.Controller
	renderer   *render.Renderer
	logger     bslogger.Logger
	renders    sync.WaitGroup

	writeMutex sync.Mutex
	lastSent   uint64

	// render parameters that are not part of the viewport, only touched by the
	// reading goroutine
	maxIterations  uint32
	palette        palette.Kind
	smoothColoring bool
}

func newSession(conn *websocket.Conn, s settings.Settings) (*session, error) {
	controller, err := navigation.New(s.Viewport())
	if err != nil {
		return nil, err
	}
	logger := s.Logger("Session")
	renderer, err := render.NewRenderer(s.RendererSettings(), logger)
	if err != nil {
		return nil, err
	}
	return &session{
		conn:           conn,
		controller:     controller,
		renderer:       renderer,
		logger:         logger,
		maxIterations:  s.MaxIterations,
		palette:        s.Palette,
		smoothColoring: s.SmoothColoring,
	}, nil
}

// run serves the session until the client goes away.
func (s *session) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		s.renderer.Cancel()
		s.renders.Wait()
		s.conn.Close(websocket.StatusNormalClosure, "")
	}()

	s.refresh(ctx)
	for {
		var command Command
		if err := wsjson.Read(ctx, s.conn, &command); err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				s.logger.Debug("Client closed the session")
			default:
				s.logger.Warningf("Reading command - %s", err)
			}
			return
		}

		changed, err := s.apply(command)
		if err != nil {
			s.sendError(ctx, err)
			continue
		}
		if changed {
			s.refresh(ctx)
		}
	}
}

// apply runs a command against the session and reports whether the frame must
// be rendered again.
func (s *session) apply(command Command) (bool, error) {
	switch command.Type {
	case CommandDragStart:
		s.controller.DragStart(command.X, command.Y)
		return false, nil
	case CommandDragMove:
		_, moved := s.controller.DragMove(command.X, command.Y)
		return moved, nil
	case CommandDragEnd:
		s.controller.DragEnd()
		return false, nil
	case CommandZoom:
		s.controller.ZoomAt(command.X, command.Y, command.ZoomIn)
		return true, nil
	case CommandSetZoom:
		_, err := s.controller.SetZoom(command.Zoom)
		return err == nil, err
	case CommandReset:
		s.controller.Reset()
		return true, nil
	case CommandResize:
		if _, err := s.controller.Resize(command.Width, command.Height); err != nil {
			return false, err
		}
		return true, nil
	case CommandSettings:
		return true, s.applySettings(command)
	case CommandRender:
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q", command.Type)
	}
}

// applySettings changes nothing unless every given value is valid.
func (s *session) applySettings(command Command) error {
	maxIterations := s.maxIterations
	kind := s.palette
	smoothColoring := s.smoothColoring

	if command.MaxIterations != nil {
		maxIterations = *command.MaxIterations
		if maxIterations > render.MaxIterationLimit {
			return fmt.Errorf("%w: %d is above %d", render.ErrInvalidIterationBudget, maxIterations, render.MaxIterationLimit)
		}
	}
	if command.Palette != nil {
		parsed, err := palette.Parse(*command.Palette)
		if err != nil {
			return err
		}
		kind = parsed
	}
	if command.SmoothColoring != nil {
		smoothColoring = *command.SmoothColoring
	}

	s.maxIterations = maxIterations
	s.palette = kind
	s.smoothColoring = smoothColoring
	return nil
}

func (s *session) request() render.Request {
	return render.Request{
		Viewport:       s.controller.Viewport(),
		MaxIterations:  s.maxIterations,
		Palette:        s.palette,
		SmoothColoring: s.smoothColoring,
	}
}

// refresh tells the client about the current view and renders it in the
// background.
func (s *session) refresh(ctx context.Context) {
	request := s.request()
	v := request.Viewport
	s.send(ctx, Message{
		Type:           MessageView,
		Viewport:       &v,
		MaxIterations:  request.MaxIterations,
		Palette:        request.Palette.String(),
		SmoothColoring: request.SmoothColoring,
	})

	s.renders.Add(1)
	go func() {
		defer s.renders.Done()
		frame, err := s.renderer.RenderFrame(ctx, request)
		switch {
		case errors.Is(err, render.ErrSuperseded):
			return
		case err != nil:
			if ctx.Err() == nil {
				s.sendError(ctx, err)
			}
			return
		}
		s.sendFrame(ctx, frame)
	}()
}

func (s *session) sendFrame(ctx context.Context, frame render.Frame) {
	data, err := frame.MarshalBinary()
	if err != nil {
		s.logger.Errorf("Encoding frame %d - %s", frame.Generation, err)
		return
	}

	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	if frame.Generation <= s.lastSent {
		s.logger.Debugf("Skipped frame %d, frame %d was already sent", frame.Generation, s.lastSent)
		return
	}
	if err := s.conn.Write(ctx, websocket.MessageBinary, data); err != nil {
		s.logger.Warningf("Sending frame %d - %s", frame.Generation, err)
		return
	}
	s.lastSent = frame.Generation
}

func (s *session) sendError(ctx context.Context, err error) {
	s.logger.Debugf("Sending error - %s", err)
	s.send(ctx, Message{Type: MessageError, Error: err.Error()})
}

func (s *session) send(ctx context.Context, message Message) {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	if err := wsjson.Write(ctx, s.conn, message); err != nil {
		s.logger.Warningf("Sending %s message - %s", message.Type, err)
	}
}
