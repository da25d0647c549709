package server

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/go-cmp/cmp"

	"MandelbrotExplorer/render"
	"MandelbrotExplorer/settings"
	"MandelbrotExplorer/viewport"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := settings.Settings{Width: 40, Height: 30, MaxIterations: 50, Workers: 2, LogLevel: "minimal"}
	if err := s.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	server := httptest.NewServer(NewServer(s).Handler())
	t.Cleanup(server.Close)
	return server
}

func TestRender(t *testing.T) {
	server := newTestServer(t)

	response, err := http.Get(server.URL + "/render?width=12&height=9&centerX=-0.5&zoom=2&maxIterations=80&palette=ocean&smooth=true")
	if err != nil {
		t.Fatalf("GET /render: %v", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(response.Body)
		t.Fatalf("status = %d, body %q", response.StatusCode, body)
	}
	if got := response.Header.Get("Content-Type"); got != "image/png" {
		t.Errorf("Content-Type = %q", got)
	}
	img, err := png.Decode(response.Body)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if got := img.Bounds().Size(); got.X != 12 || got.Y != 9 {
		t.Errorf("image size = %v, want 12x9", got)
	}
}

func TestRenderDefaults(t *testing.T) {
	server := newTestServer(t)

	response, err := http.Get(server.URL + "/render")
	if err != nil {
		t.Fatalf("GET /render: %v", err)
	}
	defer response.Body.Close()

	img, err := png.Decode(response.Body)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if got := img.Bounds().Size(); got.X != 40 || got.Y != 30 {
		t.Errorf("image size = %v, want the configured 40x30", got)
	}
}

func TestRenderRejectsInvalidRequests(t *testing.T) {
	server := newTestServer(t)

	tests := []struct {
		query string
		body  string
	}{
		{"width=0", "invalid dimensions"},
		{"zoom=-1", "invalid viewport"},
		{"maxIterations=100001", "invalid iteration budget"},
		{"palette=plaid", "unknown palette"},
		{"width=wide", "width"},
		{"smooth=maybe", "smooth"},
	}
	for _, test := range tests {
		t.Run(test.query, func(t *testing.T) {
			response, err := http.Get(server.URL + "/render?" + test.query)
			if err != nil {
				t.Fatalf("GET /render: %v", err)
			}
			defer response.Body.Close()

			if response.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", response.StatusCode, http.StatusBadRequest)
			}
			body, _ := io.ReadAll(response.Body)
			if !strings.Contains(string(body), test.body) {
				t.Errorf("body %q does not mention %q", body, test.body)
			}
		})
	}
}

func TestPalettes(t *testing.T) {
	server := newTestServer(t)

	response, err := http.Get(server.URL + "/palettes")
	if err != nil {
		t.Fatalf("GET /palettes: %v", err)
	}
	defer response.Body.Close()

	var names []string
	if err := json.NewDecoder(response.Body).Decode(&names); err != nil {
		t.Fatalf("decoding palettes: %v", err)
	}
	want := []string{"rainbow", "fire", "ocean", "grayscale", "cosmic", "fireAndAsh", "monochrome", "psychedelic"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("palettes mismatch (-want +got):\n%s", diff)
	}
}

type testClient struct {
	t    *testing.T
	ctx  context.Context
	conn *websocket.Conn
}

func dial(t *testing.T, server *httptest.Server) *testClient {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	conn.SetReadLimit(1 << 24)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return &testClient{t: t, ctx: ctx, conn: conn}
}

func (c *testClient) send(command Command) {
	c.t.Helper()
	if err := wsjson.Write(c.ctx, c.conn, command); err != nil {
		c.t.Fatalf("sending %s: %v", command.Type, err)
	}
}

func (c *testClient) readMessage() Message {
	c.t.Helper()
	typ, data, err := c.conn.Read(c.ctx)
	if err != nil {
		c.t.Fatalf("Read: %v", err)
	}
	if typ != websocket.MessageText {
		c.t.Fatalf("got a %v message, want text", typ)
	}
	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		c.t.Fatalf("decoding message %q: %v", data, err)
	}
	return message
}

type frameHeader struct {
	Generation uint64
	Width      uint32
	Height     uint32
}

func (c *testClient) readFrame() frameHeader {
	c.t.Helper()
	typ, data, err := c.conn.Read(c.ctx)
	if err != nil {
		c.t.Fatalf("Read: %v", err)
	}
	if typ != websocket.MessageBinary {
		c.t.Fatalf("got a %v message %q, want binary", typ, data)
	}
	if len(data) < render.FrameHeaderSize {
		c.t.Fatalf("frame of %d bytes has no header", len(data))
	}
	header := frameHeader{
		Generation: binary.BigEndian.Uint64(data[0:8]),
		Width:      binary.BigEndian.Uint32(data[8:12]),
		Height:     binary.BigEndian.Uint32(data[12:16]),
	}
	if want := render.FrameHeaderSize + int(header.Width*header.Height*4); len(data) != want {
		c.t.Fatalf("frame is %d bytes, want %d", len(data), want)
	}
	return header
}

func TestSession(t *testing.T) {
	client := dial(t, newTestServer(t))

	view := client.readMessage()
	if view.Type != MessageView {
		t.Fatalf("first message type = %q, want %q", view.Type, MessageView)
	}
	if diff := cmp.Diff(viewport.Default(40, 30), *view.Viewport); diff != "" {
		t.Errorf("initial viewport mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(frameHeader{1, 40, 30}, client.readFrame()); diff != "" {
		t.Errorf("first frame mismatch (-want +got):\n%s", diff)
	}

	client.send(Command{Type: CommandResize, Width: 16, Height: 10})
	view = client.readMessage()
	if view.Viewport.Width != 16 || view.Viewport.Height != 10 {
		t.Errorf("resized viewport = %v", view.Viewport)
	}
	if diff := cmp.Diff(frameHeader{2, 16, 10}, client.readFrame()); diff != "" {
		t.Errorf("resized frame mismatch (-want +got):\n%s", diff)
	}

	// a drag only renders on moves
	client.send(Command{Type: CommandDragStart, X: 0, Y: 0})
	client.send(Command{Type: CommandDragMove, X: 4, Y: 0})
	view = client.readMessage()
	if want := -4 * 3.0 / 16; view.Viewport.CenterX != want {
		t.Errorf("CenterX after drag = %g, want %g", view.Viewport.CenterX, want)
	}
	client.readFrame()
	client.send(Command{Type: CommandDragEnd})

	client.send(Command{Type: CommandZoom, X: 8, Y: 5, ZoomIn: true})
	view = client.readMessage()
	if view.Viewport.Zoom != 1.2 {
		t.Errorf("zoom = %g, want 1.2", view.Viewport.Zoom)
	}
	client.readFrame()

	name := "cosmic-nebula"
	budget := uint32(20)
	client.send(Command{Type: CommandSettings, Palette: &name, MaxIterations: &budget})
	view = client.readMessage()
	if view.Palette != "cosmic" || view.MaxIterations != 20 {
		t.Errorf("settings not applied: %+v", view)
	}
	client.readFrame()

	client.send(Command{Type: CommandReset})
	view = client.readMessage()
	if diff := cmp.Diff(viewport.Default(16, 10), *view.Viewport); diff != "" {
		t.Errorf("reset viewport mismatch (-want +got):\n%s", diff)
	}
	if got := client.readFrame(); got.Generation != 6 {
		t.Errorf("generation after reset = %d, want 6", got.Generation)
	}
}

func TestSessionErrors(t *testing.T) {
	client := dial(t, newTestServer(t))
	client.readMessage()
	client.readFrame()

	commands := []struct {
		command Command
		error   string
	}{
		{Command{Type: "spin"}, "unknown command"},
		{Command{Type: CommandResize, Width: 0, Height: 10}, "invalid dimensions"},
		{Command{Type: CommandSetZoom, Zoom: -3}, "invalid viewport"},
	}
	for _, test := range commands {
		client.send(test.command)
		message := client.readMessage()
		if message.Type != MessageError || !strings.Contains(message.Error, test.error) {
			t.Errorf("%s: got %+v, want an error mentioning %q", test.command.Type, message, test.error)
		}
	}

	name := "plaid"
	client.send(Command{Type: CommandSettings, Palette: &name})
	if message := client.readMessage(); message.Type != MessageError || !strings.Contains(message.Error, "unknown palette") {
		t.Errorf("got %+v, want an unknown palette error", message)
	}

	// the session keeps working after errors
	client.send(Command{Type: CommandRender})
	if view := client.readMessage(); view.Palette != "rainbow" {
		t.Errorf("palette = %q, want the unchanged rainbow", view.Palette)
	}
	if got := client.readFrame(); got.Generation != 2 {
		t.Errorf("generation = %d, want 2", got.Generation)
	}
}
