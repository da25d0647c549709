package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/BrugadaSyndrome/bslogger"
	"github.com/coder/websocket"

	"MandelbrotExplorer/misc"
	"MandelbrotExplorer/palette"
	"MandelbrotExplorer/render"
	"MandelbrotExplorer/settings"
)

// Server exposes rendering over HTTP and interactive navigation over websockets.
type Server struct {
	address  string
	listener net.Listener
	mux      *http.ServeMux
	server   *http.Server
	settings settings.Settings

	Logger bslogger.Logger
	WG     *sync.WaitGroup
}

func NewServer(s settings.Settings) *Server {
	server := &Server{
		address:  s.ServerAddress,
		mux:      http.NewServeMux(),
		settings: s,
		Logger:   s.Logger("Server"),
		WG:       &sync.WaitGroup{},
	}
	server.mux.HandleFunc("/render", server.handleRender)
	server.mux.HandleFunc("/palettes", server.handlePalettes)
	server.mux.HandleFunc("/ws", server.handleSession)
	return server
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run starts serving in the background. Stop shuts it down again.
func (s *Server) Run() error {
	var err error
	s.listener, err = net.Listen("tcp", s.address)
	if err != nil {
		s.Logger.Errorf("Listening at address %s", s.address)
		return err
	}

	s.server = &http.Server{Addr: s.address, Handler: s.mux}
	s.WG.Add(1)
	go func() {
		defer s.WG.Done()
		if err := s.server.Serve(s.listener); !errors.Is(err, http.ErrServerClosed) {
			s.Logger.Errorf("Error serving at address %s - %s", s.address, err)
		}
	}()

	s.Logger.Infof("Running server at address %s", misc.AdvertisedAddress(s.Address()))
	return nil
}

// Address is the address the server listens on, once it runs.
func (s *Server) Address() string {
	if s.listener == nil {
		return s.address
	}
	return s.listener.Addr().String()
}

func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(context.Background()); err != nil {
		s.Logger.Errorf("Shutting down server at address %s", s.address)
		return err
	}
	s.WG.Wait()
	s.Logger.Infof("Shut down server at address %s", s.address)
	return nil
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "only GET is supported", http.StatusMethodNotAllowed)
		return
	}

	request, err := s.parseRequest(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	renderer, err := render.NewRenderer(s.settings.RendererSettings(), s.Logger)
	if misc.CheckError(err, s.Logger, misc.Error) {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	frame, err := renderer.RenderFrame(r.Context(), request)
	if err != nil {
		status := http.StatusInternalServerError
		if isInvalidRequest(err) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	var buffer bytes.Buffer
	if misc.CheckError(frame.EncodePNG(&buffer), s.Logger, misc.Error) {
		http.Error(w, "unable to encode image", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buffer.Len()))
	if _, err := buffer.WriteTo(w); err != nil {
		s.Logger.Warningf("Writing image to %s - %s", r.RemoteAddr, err)
		return
	}
	s.Logger.Debugf("Rendered %v for %s in %s", request, r.RemoteAddr, frame.Elapsed)
}

func (s *Server) handlePalettes(w http.ResponseWriter, r *http.Request) {
	kinds := palette.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	w.Header().Set("Content-Type", "application/json")
	misc.CheckError(json.NewEncoder(w).Encode(names), s.Logger, misc.Warning)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.Logger.Warningf("Accepting websocket from %s - %s", r.RemoteAddr, err)
		return
	}
	s.Logger.Infof("Opened session for %s", r.RemoteAddr)

	sess, err := newSession(conn, s.settings)
	if err != nil {
		s.Logger.Errorf("Creating session for %s - %s", r.RemoteAddr, err)
		conn.Close(websocket.StatusInternalError, "unable to create session")
		return
	}
	sess.run(r.Context())
	s.Logger.Infof("Closed session for %s", r.RemoteAddr)
}

// parseRequest reads a render request from query parameters. Missing
// parameters take their value from the server settings.
func (s *Server) parseRequest(query url.Values) (render.Request, error) {
	request := s.settings.Request()
	var err error

	if v := query.Get("width"); v != "" {
		if request.Viewport.Width, err = parseUint32("width", v); err != nil {
			return request, err
		}
	}
	if v := query.Get("height"); v != "" {
		if request.Viewport.Height, err = parseUint32("height", v); err != nil {
			return request, err
		}
	}
	if v := query.Get("maxIterations"); v != "" {
		if request.MaxIterations, err = parseUint32("maxIterations", v); err != nil {
			return request, err
		}
	}
	if v := query.Get("centerX"); v != "" {
		if request.Viewport.CenterX, err = parseFloat("centerX", v); err != nil {
			return request, err
		}
	}
	if v := query.Get("centerY"); v != "" {
		if request.Viewport.CenterY, err = parseFloat("centerY", v); err != nil {
			return request, err
		}
	}
	if v := query.Get("zoom"); v != "" {
		if request.Viewport.Zoom, err = parseFloat("zoom", v); err != nil {
			return request, err
		}
	}
	if v := query.Get("palette"); v != "" {
		if request.Palette, err = palette.Parse(v); err != nil {
			return request, err
		}
	}
	if v := query.Get("smooth"); v != "" {
		if request.SmoothColoring, err = strconv.ParseBool(v); err != nil {
			return request, fmt.Errorf("smooth: %w", err)
		}
	}
	return request, request.Validate()
}

func parseUint32(name string, value string) (uint32, error) {
	parsed, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return uint32(parsed), nil
}

func parseFloat(name string, value string) (float64, error) {
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return parsed, nil
}

func isInvalidRequest(err error) bool {
	return errors.Is(err, render.ErrInvalidDimensions) ||
		errors.Is(err, render.ErrInvalidViewport) ||
		errors.Is(err, render.ErrInvalidIterationBudget) ||
		errors.Is(err, render.ErrUnknownPalette)
}
