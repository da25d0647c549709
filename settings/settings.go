package settings

import (
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BrugadaSyndrome/bslogger"
	"gopkg.in/yaml.v3"

	"MandelbrotExplorer/misc"
	"MandelbrotExplorer/palette"
	"MandelbrotExplorer/render"
	"MandelbrotExplorer/task"
	"MandelbrotExplorer/viewport"
)

const (
	DefaultWidth         = 800
	DefaultHeight        = 600
	DefaultMaxIterations = 100
	DefaultServerAddress = ":8080"
	DefaultOutput        = "mandelbrot.png"
)

// Settings is the configuration of the command line renderer and the server.
// Zero values mean "not set" and are replaced by defaults in Verify.
type Settings struct {
	logger bslogger.Logger

	Width          uint32        `yaml:"width"`
	Height         uint32        `yaml:"height"`
	CenterX        float64       `yaml:"centerX"`
	CenterY        float64       `yaml:"centerY"`
	Zoom           float64       `yaml:"zoom"`
	MaxIterations  uint32        `yaml:"maxIterations"`
	Palette        palette.Kind  `yaml:"palette"`
	SmoothColoring bool          `yaml:"smoothColoring"`
	Workers        int           `yaml:"workers"`
	Strategy       task.Strategy `yaml:"strategy"`
	ServerAddress  string        `yaml:"serverAddress"`
	Output         string        `yaml:"output"`
	LogLevel       string        `yaml:"logLevel"`
}

// Default returns verified settings with every value at its default.
func Default() Settings {
	s := Settings{}
	// the zero value always verifies
	_ = s.Verify()
	return s
}

// Load reads a settings file and verifies it. Files ending in .yaml or .yml
// are read as YAML, anything else as JSON.
func Load(settingsFile string) (Settings, error) {
	s := Settings{}
	fileBytes, err := misc.ReadFile(settingsFile)
	if err != nil {
		return s, err
	}

	switch strings.ToLower(filepath.Ext(settingsFile)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(fileBytes, &s)
	default:
		err = json.Unmarshal(fileBytes, &s)
	}
	if err != nil {
		return s, fmt.Errorf("unable to parse %s - %w", settingsFile, err)
	}

	if err := s.Verify(); err != nil {
		return s, err
	}
	s.logger.Debug(s.String())
	return s, nil
}

func (s *Settings) String() string {
	output := "\nSettings\n"
	output += fmt.Sprintf("Width: %d\n", s.Width)
	output += fmt.Sprintf("Height: %d\n", s.Height)
	output += fmt.Sprintf("CenterX: %g\n", s.CenterX)
	output += fmt.Sprintf("CenterY: %g\n", s.CenterY)
	output += fmt.Sprintf("Zoom: %g\n", s.Zoom)
	output += fmt.Sprintf("Max Iterations: %d\n", s.MaxIterations)
	output += fmt.Sprintf("Palette: %v\n", s.Palette)
	output += fmt.Sprintf("Smooth Coloring: %t\n", s.SmoothColoring)
	output += fmt.Sprintf("Workers: %d\n", s.Workers)
	output += fmt.Sprintf("Strategy: %v\n", s.Strategy)
	output += fmt.Sprintf("Server Address: %s\n", s.ServerAddress)
	output += fmt.Sprintf("Output: %s\n", s.Output)
	output += fmt.Sprintf("Log Level: %s\n", s.LogLevel)
	return output
}

// Verify fills in defaults for the values that were left unset and reports the
// ones that were set to something unusable. It may be called more than once.
func (s *Settings) Verify() error {
	if err := misc.ValidateLogLevel(s.LogLevel); err != nil {
		return err
	}
	if s.LogLevel == "" {
		s.LogLevel = "normal"
	}
	s.logger = misc.NewLogger("Settings", s.LogLevel)

	if s.Width == 0 {
		s.Width = DefaultWidth
	}
	if s.Height == 0 {
		s.Height = DefaultHeight
	}
	if s.Zoom == 0 {
		s.Zoom = 1
	}
	if s.MaxIterations == 0 {
		s.MaxIterations = DefaultMaxIterations
	}
	if s.Workers == 0 {
		s.Workers = runtime.NumCPU()
	}
	if s.ServerAddress == "" {
		s.ServerAddress = DefaultServerAddress
	}
	if s.Output == "" {
		s.Output = DefaultOutput
	}
	// Palette and Strategy default to rainbow and row already

	if math.IsNaN(s.Zoom) || math.IsInf(s.Zoom, 0) || s.Zoom < 0 {
		return fmt.Errorf("%w: zoom %v", viewport.ErrInvalidViewport, s.Zoom)
	}
	if s.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", s.Workers)
	}
	if s.Strategy < task.Row || s.Strategy > task.Image {
		return fmt.Errorf("unknown task strategy %d", int(s.Strategy))
	}
	return s.Request().Validate()
}

// Viewport is the initial view described by the settings.
func (s *Settings) Viewport() viewport.Viewport {
	return viewport.Viewport{
		Width:   s.Width,
		Height:  s.Height,
		CenterX: s.CenterX,
		CenterY: s.CenterY,
		Zoom:    s.Zoom,
	}
}

func (s *Settings) Request() render.Request {
	return render.Request{
		Viewport:       s.Viewport(),
		MaxIterations:  s.MaxIterations,
		Palette:        s.Palette,
		SmoothColoring: s.SmoothColoring,
	}
}

func (s *Settings) RendererSettings() render.Settings {
	return render.Settings{
		Workers:  s.Workers,
		Strategy: s.Strategy,
	}
}

// Logger creates a logger for a component at the configured level.
func (s *Settings) Logger(name string) bslogger.Logger {
	return misc.NewLogger(name, s.LogLevel)
}
