package opencvbackend

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tauraamui/nvtracker/pkg/log"
	"github.com/tauraamui/nvtracker/pkg/model"
	"github.com/tauraamui/nvtracker/pkg/video/videobackend"
	"github.com/tauraamui/nvtracker/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
	"gocv.io/x/gocv"
)

func New() videobackend.Backend {
	return &openCVBackend{}
}

type openCVBackend struct{}

func (b *openCVBackend) Name() string { return "opencv" }

func (b *openCVBackend) Connect(cancel context.Context, settings videobackend.ConnectSettings) (videobackend.Connection, error) {
	conn := openCVConnection{title: settings.Title}
	if err := conn.connect(cancel, settings.Address); err != nil {
		return nil, err
	}
	if settings.Width > 0 && settings.Height > 0 {
		conn.vc.Set(gocv.VideoCaptureFrameWidth, float64(settings.Width))
		conn.vc.Set(gocv.VideoCaptureFrameHeight, float64(settings.Height))
	}
	return &conn, nil
}

func (b *openCVBackend) NewView(frame *videoframe.Frame) (videoframe.View, error) {
	v, err := newMatView(frame)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// LoadModel loads the model file as a cascade classifier.
func (b *openCVBackend) LoadModel(path string) (model.Model, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(path) {
		classifier.Close()
		return nil, xerror.Errorf("unable to load cascade model from %s", path)
	}
	return &cascadeModel{classifier: classifier}, nil
}

// matView is a single channel Mat over a frame's pixels. Flips are
// written back to the frame's buffer.
type matView struct {
	frame    *videoframe.Frame
	mat      gocv.Mat
	isClosed bool
}

func newMatView(frame *videoframe.Frame) (*matView, error) {
	dims := frame.Dimensions()
	if !dims.Valid() {
		return nil, xerror.Errorf("invalid frame dimensions %dx%d", dims.W, dims.H)
	}

	data := frame.Data()
	if len(data) < dims.Area() {
		return nil, xerror.Errorf(
			"frame buffer too small: %d bytes for %dx%d", len(data), dims.W, dims.H,
		)
	}

	mat, err := gocv.NewMatFromBytes(dims.H, dims.W, gocv.MatTypeCV8U, data[:dims.Area()])
	if err != nil {
		return nil, xerror.Errorf("unable to create Mat from frame: %w", err)
	}
	return &matView{frame: frame, mat: mat}, nil
}

func (v *matView) DataRef() interface{} {
	return &v.mat
}

func (v *matView) Dimensions() videoframe.Dimensions {
	if v.isClosed {
		return videoframe.Dimensions{}
	}
	return videoframe.Dimensions{W: v.mat.Cols(), H: v.mat.Rows()}
}

func (v *matView) FlipVertical() error {
	if v.isClosed {
		return xerror.New("cannot flip closed view")
	}
	gocv.Flip(v.mat, &v.mat, 0)
	copy(v.frame.Data(), v.mat.ToBytes())
	return nil
}

func (v *matView) Bytes() []byte {
	if v.isClosed {
		return nil
	}
	return v.mat.ToBytes()
}

func (v *matView) Close() {
	if !v.isClosed {
		v.mat.Close()
		v.isClosed = true
	}
}

// cascadeModel reports the largest detection as the face. Landmarks and
// pose are left empty.
type cascadeModel struct {
	mu         sync.Mutex
	classifier gocv.CascadeClassifier
	closed     bool
}

func (m *cascadeModel) Track(view videoframe.View) (model.Result, error) {
	mat, ok := view.DataRef().(*gocv.Mat)
	if !ok {
		return model.Result{}, xerror.New("must pass OpenCV view to cascade model")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return model.Result{}, xerror.New("cascade model closed")
	}

	return model.Result{Face: largest(m.classifier.DetectMultiScale(*mat))}, nil
}

func (m *cascadeModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	return m.classifier.Close()
}

func largest(rects []image.Rectangle) image.Rectangle {
	best := image.Rectangle{}
	for _, r := range rects {
		if r.Dx()*r.Dy() > best.Dx()*best.Dy() {
			best = r
		}
	}
	return best
}

type openCVConnection struct {
	uuid   string
	title  string
	mu     sync.Mutex
	isOpen bool
	vc     *gocv.VideoCapture
}

func (c *openCVConnection) connect(cancel context.Context, addr string) error {
	connAndError := make(chan openVideoStreamResult, 1)
	go openVideoStream(addr, connAndError)
	select {
	case r := <-connAndError:
		if r.err != nil {
			return xerror.Errorf("unable to open camera [%s]: %w", c.title, r.err)
		}
		c.vc = r.vc
		c.isOpen = true
		return nil
	case <-cancel.Done():
		go discardVideoStream(connAndError)
		return xerror.New("connection cancelled")
	}
}

// discardVideoStream closes a capture which finished opening after its
// connect was cancelled.
func discardVideoStream(d chan openVideoStreamResult) {
	r := <-d
	if r.vc == nil {
		return
	}
	if err := closeVideoCapture(r.vc); err != nil {
		log.Error("Unable to close abandoned video capture: %v", err)
	}
}

type openVideoStreamResult struct {
	vc  *gocv.VideoCapture
	err error
}

func openVideoStream(addr string, d chan openVideoStreamResult) {
	vc, err := openVideoCapture(addr)
	d <- openVideoStreamResult{vc: vc, err: err}
}

var openVideoCapture = func(addr string) (*gocv.VideoCapture, error) {
	return gocv.OpenVideoCapture(addr)
}

var closeVideoCapture = func(vc *gocv.VideoCapture) error {
	return vc.Close()
}

var readFromVideoConnection = func(vc *gocv.VideoCapture, mat *gocv.Mat) bool {
	if vc.IsOpened() {
		return vc.Read(mat)
	}
	return false
}

func (c *openCVConnection) UUID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.uuid) == 0 {
		c.uuid = uuid.NewString()
	}
	return c.uuid
}

// Read grabs the next frame and converts it to a single channel buffer.
func (c *openCVConnection) Read() (*videoframe.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.isOpen {
		return nil, xerror.New("unable to read from closed video connection")
	}

	mat := gocv.NewMat()
	defer mat.Close()
	if !readFromVideoConnection(c.vc, &mat) || mat.Empty() {
		return nil, xerror.New("unable to read from video connection")
	}

	gray := mat
	if mat.Channels() > 1 {
		gray = gocv.NewMat()
		defer gray.Close()
		gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)
	}

	ts := float64(time.Now().UnixNano()) / float64(time.Second)
	return videoframe.New(gray.ToBytes(), gray.Cols(), gray.Rows(), ts, nil), nil
}

func (c *openCVConnection) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isOpen {
		return c.vc.IsOpened()
	}
	return false
}

func (c *openCVConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.isOpen {
		return nil
	}
	c.isOpen = false
	return closeVideoCapture(c.vc)
}
