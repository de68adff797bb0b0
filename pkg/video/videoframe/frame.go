package videoframe

import "sync"

type Dimensions struct {
	W, H int
}

// Area is the pixel count of a single channel frame.
func (d Dimensions) Area() int { return d.W * d.H }

func (d Dimensions) Valid() bool { return d.W > 0 && d.H > 0 }

// View is an image library handle over a frame's pixels. Views are
// single channel, 8 bits per pixel.
type View interface {
	DataRef() interface{}
	Dimensions() Dimensions
	FlipVertical() error
	Bytes() []byte
	Close()
}

// Frame owns a raw pixel buffer. Once released the buffer is handed to
// the frame's recycler (if any) and must not be touched again.
type Frame struct {
	mu        sync.Mutex
	buf       []byte
	dims      Dimensions
	timestamp float64
	recycle   func([]byte)
	released  bool
}

func New(buf []byte, w, h int, timestamp float64, recycle func([]byte)) *Frame {
	return &Frame{
		buf:       buf,
		dims:      Dimensions{W: w, H: h},
		timestamp: timestamp,
		recycle:   recycle,
	}
}

func (f *Frame) Data() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buf
}

func (f *Frame) Dimensions() Dimensions { return f.dims }

func (f *Frame) Timestamp() float64 { return f.timestamp }

func (f *Frame) IsReleased() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.released
}

// Release gives up the buffer. Calling it more than once is a no-op.
func (f *Frame) Release() {
	f.mu.Lock()
	if f.released {
		f.mu.Unlock()
		return
	}
	buf := f.buf
	f.buf = nil
	f.released = true
	f.mu.Unlock()

	if f.recycle != nil {
		f.recycle(buf)
	}
}

// Clone copies the pixels into a fresh frame with no recycler.
func (f *Frame) Clone() *Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	buf := make([]byte, len(f.buf))
	copy(buf, f.buf)
	return New(buf, f.dims.W, f.dims.H, f.timestamp, nil)
}
