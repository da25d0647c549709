package task

import (
	"fmt"
	"image"
	"strings"
)

/*
	Strategies for splitting a frame into units of work
	row: each task is an entire row of the image
	column: each task is an entire column of the image
	grid: each task is a square area of the image
	image: one task for the whole image
*/
const (
	Row Strategy = iota
	Column
	Grid
	Image
)

// GridSize is the edge length of the tiles made by the Grid strategy.
const GridSize = 64

type Strategy int

var strategyNames = []string{
	"row", "column", "grid", "image",
}

func (s Strategy) String() string {
	if s < Row || s > Image {
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
	return strategyNames[s]
}

func ParseStrategy(name string) (Strategy, error) {
	for i, n := range strategyNames {
		if strings.EqualFold(n, name) {
			return Strategy(i), nil
		}
	}
	return Row, fmt.Errorf("unknown task strategy %q, expected one of %v", name, strategyNames)
}

func (s Strategy) MarshalText() ([]byte, error) {
	if s < Row || s > Image {
		return nil, fmt.Errorf("unknown task strategy %d", int(s))
	}
	return []byte(strategyNames[s]), nil
}

func (s *Strategy) UnmarshalText(text []byte) error {
	parsed, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Task is a rectangle of pixels of one frame.
type Task struct {
	ID         uint
	Generation uint64
	Bounds     image.Rectangle
}

func (t *Task) String() string {
	output := "{Task "
	output += fmt.Sprintf("ID: %d ", t.ID)
	output += fmt.Sprintf("Generation: %d ", t.Generation)
	output += fmt.Sprintf("Bounds: %v}", t.Bounds)
	return output
}

func (t *Task) PixelCount() int {
	return t.Bounds.Dx() * t.Bounds.Dy()
}

// Split cuts a width x height frame into tasks. The tasks never overlap and
// together cover every pixel exactly once.
func Split(width int, height int, strategy Strategy, generation uint64) []Task {
	if width <= 0 || height <= 0 {
		return nil
	}

	var rectangles []image.Rectangle
	switch strategy {
	case Column:
		rectangles = make([]image.Rectangle, 0, width)
		for c := 0; c < width; c++ {
			rectangles = append(rectangles, image.Rect(c, 0, c+1, height))
		}
	case Grid:
		rectangles = splitRectNoClip(image.Rect(0, 0, width, height), GridSize, GridSize)
	case Image:
		rectangles = []image.Rectangle{image.Rect(0, 0, width, height)}
	default:
		rectangles = make([]image.Rectangle, 0, height)
		for r := 0; r < height; r++ {
			rectangles = append(rectangles, image.Rect(0, r, width, r+1))
		}
	}

	tasks := make([]Task, len(rectangles))
	for i, rectangle := range rectangles {
		tasks[i] = Task{
			ID:         uint(i),
			Generation: generation,
			Bounds:     rectangle,
		}
	}
	return tasks
}

// splitRectNoClip splits r into tiles of size tileW × tileH.
// Tiles at the right and bottom edges are smaller if r is not divisible.
func splitRectNoClip(r image.Rectangle, tileW, tileH int) []image.Rectangle {
	w := r.Dx()
	h := r.Dy()

	var tiles []image.Rectangle
	for oy := 0; oy < h; oy += tileH {
		th := min(tileH, h-oy)
		for ox := 0; ox < w; ox += tileW {
			tw := min(tileW, w-ox)
			tiles = append(tiles, image.Rect(
				r.Min.X+ox,
				r.Min.Y+oy,
				r.Min.X+ox+tw,
				r.Min.Y+oy+th,
			))
		}
	}
	return tiles
}
