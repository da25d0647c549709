package main

import (
	"flag"
	"fmt"
	"io"

	"MandelbrotExplorer/palette"
	"MandelbrotExplorer/settings"
	"MandelbrotExplorer/task"
)

type arguments struct {
	settingsFile string
	serve        string

	width          uint
	height         uint
	centerX        float64
	centerY        float64
	zoom           float64
	maxIterations  uint
	palette        string
	smoothColoring bool
	workers        int
	strategy       string
	output         string
	logLevel       string
}

// parseArguments loads the settings file, if any, and lets the flags that were
// given on the command line override it. The second result reports whether
// the server was requested instead of a single image.
func parseArguments(args []string, errorOutput io.Writer) (settings.Settings, bool, error) {
	var a arguments
	flags := flag.NewFlagSet("mandelbrot", flag.ContinueOnError)
	flags.SetOutput(errorOutput)

	flags.StringVar(&a.settingsFile, "settings", "", "JSON or YAML settings file")
	flags.StringVar(&a.serve, "serve", "", "Run the server at this address instead of rendering one image")

	flags.UintVar(&a.width, "width", settings.DefaultWidth, "Width of the resulting image")
	flags.UintVar(&a.height, "height", settings.DefaultHeight, "Height of the resulting image")
	flags.Float64Var(&a.centerX, "centerX", 0, "Real part of the center of the view")
	flags.Float64Var(&a.centerY, "centerY", 0, "Imaginary part of the center of the view")
	flags.Float64Var(&a.zoom, "zoom", 1, "Zoom level, 1 shows a span of 3 across")
	flags.UintVar(&a.maxIterations, "maxIterations", settings.DefaultMaxIterations, "Iterations to run to verify each point")
	flags.StringVar(&a.palette, "palette", palette.Rainbow.String(), "Color palette")
	flags.BoolVar(&a.smoothColoring, "smooth", false, "Enable smooth coloring")
	flags.IntVar(&a.workers, "workers", 0, "Number of render workers, 0 uses every CPU")
	flags.StringVar(&a.strategy, "strategy", task.Row.String(), "How a frame is split into tasks: row, column, grid or image")
	flags.StringVar(&a.output, "output", settings.DefaultOutput, "PNG file to write, - for stdout")
	flags.StringVar(&a.logLevel, "logLevel", "normal", "Log level: minimal, normal or all")

	if err := flags.Parse(args); err != nil {
		return settings.Settings{}, false, err
	}
	if flags.NArg() > 0 {
		return settings.Settings{}, false, fmt.Errorf("unexpected arguments %v", flags.Args())
	}

	s := settings.Settings{}
	if a.settingsFile != "" {
		var err error
		if s, err = settings.Load(a.settingsFile); err != nil {
			return s, false, err
		}
	}

	var err error
	flags.Visit(func(f *flag.Flag) {
		if err != nil {
			return
		}
		err = a.apply(f.Name, &s)
	})
	if err != nil {
		return s, false, err
	}

	if err := s.Verify(); err != nil {
		return s, false, err
	}
	return s, a.serve != "", nil
}

// apply copies the flag called name into s.
func (a *arguments) apply(name string, s *settings.Settings) error {
	var err error
	switch name {
	case "serve":
		s.ServerAddress = a.serve
	case "width":
		s.Width, err = toUint32(name, a.width)
	case "height":
		s.Height, err = toUint32(name, a.height)
	case "centerX":
		s.CenterX = a.centerX
	case "centerY":
		s.CenterY = a.centerY
	case "zoom":
		s.Zoom = a.zoom
	case "maxIterations":
		s.MaxIterations, err = toUint32(name, a.maxIterations)
	case "palette":
		s.Palette, err = palette.Parse(a.palette)
	case "smooth":
		s.SmoothColoring = a.smoothColoring
	case "workers":
		s.Workers = a.workers
	case "strategy":
		s.Strategy, err = task.ParseStrategy(a.strategy)
	case "output":
		s.Output = a.output
	case "logLevel":
		s.LogLevel = a.logLevel
	}
	return err
}

func toUint32(name string, value uint) (uint32, error) {
	if uint64(value) > uint64(^uint32(0)) {
		return 0, fmt.Errorf("%s %d is out of range", name, value)
	}
	return uint32(value), nil
}
