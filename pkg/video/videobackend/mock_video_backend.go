package videobackend

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"
	"time"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/google/uuid"
	"github.com/tauraamui/nvtracker/pkg/model"
	"github.com/tauraamui/nvtracker/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

const (
	defaultMockWidth  = 600
	defaultMockHeight = 400
)

type mockVideoBackend struct{}

func (b *mockVideoBackend) Name() string { return "mock" }

func (b *mockVideoBackend) Connect(cancel context.Context, settings ConnectSettings) (Connection, error) {
	select {
	case <-cancel.Done():
		return nil, xerror.New("connection cancelled")
	default:
	}

	w, h := settings.Width, settings.Height
	if w <= 0 || h <= 0 {
		w, h = defaultMockWidth, defaultMockHeight
	}
	return &mockVideoConnection{cameraTitle: settings.Title, width: w, height: h, isOpen: true}, nil
}

func (b *mockVideoBackend) NewView(frame *videoframe.Frame) (videoframe.View, error) {
	v, err := newGrayView(frame)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// LoadModel checks the model file is readable and returns a model which
// reports the bounding box of the brightest pixels as the face.
func (b *mockVideoBackend) LoadModel(path string) (model.Model, error) {
	if _, err := model.ReadFile(path); err != nil {
		return nil, xerror.Errorf("unable to read mock model: %w", err)
	}
	return &brightRegionModel{threshold: 200}, nil
}

type brightRegionModel struct {
	threshold uint8
}

func (m *brightRegionModel) Track(view videoframe.View) (model.Result, error) {
	img, ok := view.DataRef().(*image.Gray)
	if !ok {
		return model.Result{}, xerror.New("must pass gray view to mock model")
	}

	bounds := img.Bounds()
	face := image.Rectangle{}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if img.GrayAt(x, y).Y < m.threshold {
				continue
			}
			face = face.Union(image.Rect(x, y, x+1, y+1))
		}
	}
	return model.Result{Face: face}, nil
}

func (m *brightRegionModel) Close() error { return nil }

type mockVideoConnection struct {
	mu                      sync.Mutex
	uuid                    string
	cameraTitle             string
	width, height           int
	isOpen                  bool
	renderedBaseFrameCanvas bool
	baseFrameCanvas         image.Image
}

func (mvc *mockVideoConnection) UUID() string {
	mvc.mu.Lock()
	defer mvc.mu.Unlock()
	if len(mvc.uuid) == 0 {
		mvc.uuid = uuid.NewString()
	}
	return mvc.uuid
}

func (mvc *mockVideoConnection) Read() (*videoframe.Frame, error) {
	mvc.mu.Lock()
	defer mvc.mu.Unlock()

	if !mvc.isOpen {
		return nil, xerror.New("unable to read from closed mock connection")
	}

	if !mvc.renderedBaseFrameCanvas {
		mvc.baseFrameCanvas = renderBaseFrameCanvas(mvc.width, mvc.height)
		mvc.renderedBaseFrameCanvas = true
	}

	now := time.Now()
	img, err := drawTextLayerOntoBaseFrameClone(mvc.baseFrameCanvas, mvc.cameraTitle, now)
	if err != nil {
		return nil, err
	}

	gray := image.NewGray(img.Bounds())
	draw.Draw(gray, gray.Bounds(), img, img.Bounds().Min, draw.Src)

	return videoframe.New(gray.Pix, mvc.width, mvc.height, unixSeconds(now), nil), nil
}

func (mvc *mockVideoConnection) IsOpen() bool {
	mvc.mu.Lock()
	defer mvc.mu.Unlock()
	return mvc.isOpen
}

func (mvc *mockVideoConnection) Close() error {
	mvc.mu.Lock()
	defer mvc.mu.Unlock()
	mvc.isOpen = false
	mvc.renderedBaseFrameCanvas = false
	mvc.baseFrameCanvas = nil
	return nil
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func drawTextLayerOntoBaseFrameClone(base image.Image, title string, now time.Time) (image.Image, error) {
	baseClone := cloneImage(base)
	h := baseClone.Bounds().Dy()
	lines := []string{"NV_MOCK_STREAM", title, now.Format("15:04:05.000")}
	for i, line := range lines {
		if err := drawText(baseClone, 5, (h/8)+i*(h/3), float64(h)/7, line); err != nil {
			return nil, xerror.Errorf("unable to draw text onto in-mem image for mock stream: %w", err)
		}
	}
	return baseClone, nil
}

func renderBaseFrameCanvas(w, h int) image.Image {
	var hw, hh float64 = float64(w / 2), float64(h / 2)
	r := float64(h) / 2
	θ := 2 * math.Pi / 3
	cr := &circle{hw - r*math.Sin(0), hh - r*math.Cos(0), r * 1.5}
	cg := &circle{hw - r*math.Sin(θ), hh - r*math.Cos(θ), r * 1.5}
	cb := &circle{hw - r*math.Sin(-θ), hh - r*math.Cos(-θ), r * 1.5}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			c := color.RGBA{
				cr.Brightness(float64(x), float64(y)),
				cg.Brightness(float64(x), float64(y)),
				cb.Brightness(float64(x), float64(y)),
				255,
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func cloneImage(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, src, b.Min, draw.Src)
	return dst
}

var parsedFont *truetype.Font
var parseFontOnce sync.Once
var parseFontErr error

func drawText(canvas *image.RGBA, x, y int, size float64, text string) error {
	parseFontOnce.Do(func() {
		parsedFont, parseFontErr = freetype.ParseFont(goregular.TTF)
	})
	if parseFontErr != nil {
		return parseFontErr
	}

	fontDrawer := &font.Drawer{
		Dst: canvas,
		Src: image.White,
		Face: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    size,
			Hinting: font.HintingFull,
		}),
	}
	textBounds, _ := fontDrawer.BoundString(text)
	textHeight := textBounds.Max.Y - textBounds.Min.Y
	fontDrawer.Dot = fixed.Point26_6{
		X: fixed.I(x),
		Y: fixed.I(y) + textHeight,
	}
	fontDrawer.DrawString(text)
	return nil
}

type circle struct {
	X, Y, R float64
}

func (c *circle) Brightness(x, y float64) uint8 {
	var dx, dy float64 = c.X - x, c.Y - y
	d := math.Sqrt(dx*dx+dy*dy) / c.R
	if d > 1 {
		return 0
	}
	return 255
}
