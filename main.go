package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/signal"

	"github.com/BrugadaSyndrome/bslogger"
	"github.com/mattn/go-isatty"

	"MandelbrotExplorer/misc"
	"MandelbrotExplorer/render"
	"MandelbrotExplorer/server"
	"MandelbrotExplorer/settings"
)

var errTerminalOutput = errors.New("refusing to write a PNG to a terminal, redirect stdout or use -output")

func main() {
	logger := bslogger.NewLogger("Main", bslogger.Normal, nil)

	s, serve, err := parseArguments(os.Args[1:], os.Stderr)
	misc.CheckError(err, logger, misc.Fatal)
	logger = s.Logger("Main")
	logger.Debug(s.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if serve {
		runServer(ctx, s, logger)
		return
	}
	misc.CheckError(renderImage(ctx, s, logger), logger, misc.Fatal)
}

func runServer(ctx context.Context, s settings.Settings, logger bslogger.Logger) {
	srv := server.NewServer(s)
	misc.CheckError(srv.Run(), logger, misc.Fatal)

	<-ctx.Done()
	logger.Info("Interrupted, shutting down")
	misc.CheckError(srv.Stop(), logger, misc.Error)
}

// renderImage renders the view described by s and writes it as a PNG to
// s.Output, or to stdout when the output is "-".
func renderImage(ctx context.Context, s settings.Settings, logger bslogger.Logger) error {
	if s.Output == "-" && isTerminal(os.Stdout) {
		return errTerminalOutput
	}

	renderer, err := render.NewRenderer(s.RendererSettings(), s.Logger("Renderer"))
	if err != nil {
		return err
	}
	frame, err := renderer.RenderFrame(ctx, s.Request())
	if err != nil {
		return err
	}

	var buffer bytes.Buffer
	if err := frame.EncodePNG(&buffer); err != nil {
		return err
	}
	if err := writeOutput(s.Output, buffer.Bytes(), os.Stdout); err != nil {
		return err
	}
	logger.Infof("Rendered %dx%d in %s to %s", s.Width, s.Height, frame.Elapsed, s.Output)
	return nil
}

func writeOutput(output string, contents []byte, stdout io.Writer) error {
	if output == "-" {
		_, err := stdout.Write(contents)
		return err
	}
	_, err := misc.WriteFile(output, contents)
	return err
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
