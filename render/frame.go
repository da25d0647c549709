package render

import (
	"encoding/binary"
	"image"
	"image/png"
	"io"
	"time"
)

// FrameHeaderSize is the length of the header MarshalBinary puts before the pixels.
const FrameHeaderSize = 16

// Frame is a rendered pixel buffer together with the request and generation it
// was rendered for.
type Frame struct {
	Generation uint64
	Request    Request
	Pixels     PixelBuffer
	Elapsed    time.Duration
}

// Image wraps the pixels without copying them.
func (f Frame) Image() *image.RGBA {
	width := int(f.Request.Viewport.Width)
	height := int(f.Request.Viewport.Height)
	return &image.RGBA{
		Pix:    f.Pixels,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}
}

func (f Frame) EncodePNG(w io.Writer) error {
	return png.Encode(w, f.Image())
}

// MarshalBinary lays the frame out as a big endian 8 byte generation, 4 byte
// width and 4 byte height followed by the RGBA pixels.
func (f Frame) MarshalBinary() ([]byte, error) {
	data := make([]byte, FrameHeaderSize+len(f.Pixels))
	binary.BigEndian.PutUint64(data[0:8], f.Generation)
	binary.BigEndian.PutUint32(data[8:12], f.Request.Viewport.Width)
	binary.BigEndian.PutUint32(data[12:16], f.Request.Viewport.Height)
	copy(data[FrameHeaderSize:], f.Pixels)
	return data, nil
}
