package videobackend

import (
	"context"

	"github.com/tauraamui/nvtracker/pkg/model"
	"github.com/tauraamui/nvtracker/pkg/video/videoframe"
)

// Connection is a live camera feed producing single channel frames.
type Connection interface {
	UUID() string
	Read() (*videoframe.Frame, error)
	IsOpen() bool
	Close() error
}

type ConnectSettings struct {
	Title   string
	Address string
	Width   int
	Height  int
}

// Backend bundles the image library the tracker runs on: camera
// connections, views over raw buffers and the face model.
type Backend interface {
	Name() string
	Connect(context.Context, ConnectSettings) (Connection, error)
	NewView(*videoframe.Frame) (videoframe.View, error)
	LoadModel(path string) (model.Model, error)
}

func Mock() Backend {
	return &mockVideoBackend{}
}
