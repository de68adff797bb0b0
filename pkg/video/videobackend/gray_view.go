package videobackend

import (
	"image"

	"github.com/tauraamui/nvtracker/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
)

// grayView wraps a frame's buffer without copying it.
type grayView struct {
	img      *image.Gray
	isClosed bool
}

func newGrayView(frame *videoframe.Frame) (*grayView, error) {
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

	return &grayView{
		img: &image.Gray{
			Pix:    data[:dims.Area()],
			Stride: dims.W,
			Rect:   image.Rect(0, 0, dims.W, dims.H),
		},
	}, nil
}

func (v *grayView) DataRef() interface{} {
	return v.img
}

func (v *grayView) Dimensions() videoframe.Dimensions {
	if v.img == nil {
		return videoframe.Dimensions{}
	}
	b := v.img.Bounds()
	return videoframe.Dimensions{W: b.Dx(), H: b.Dy()}
}

// FlipVertical swaps rows top to bottom in place.
func (v *grayView) FlipVertical() error {
	if v.isClosed {
		return xerror.New("cannot flip closed view")
	}

	h, stride := v.img.Rect.Dy(), v.img.Stride
	row := make([]byte, stride)
	for top, bottom := 0, h-1; top < bottom; top, bottom = top+1, bottom-1 {
		t := v.img.Pix[top*stride : (top+1)*stride]
		b := v.img.Pix[bottom*stride : (bottom+1)*stride]
		copy(row, t)
		copy(t, b)
		copy(b, row)
	}
	return nil
}

func (v *grayView) Bytes() []byte {
	if v.isClosed {
		return nil
	}
	b := make([]byte, len(v.img.Pix))
	copy(b, v.img.Pix)
	return b
}

func (v *grayView) Close() {
	if !v.isClosed {
		v.img = nil
		v.isClosed = true
	}
}
