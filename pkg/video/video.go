package video

import (
	"strings"

	"github.com/tauraamui/nvtracker/pkg/video/opencvbackend"
	"github.com/tauraamui/nvtracker/pkg/video/videobackend"
	"github.com/tauraamui/xerror"
)

const (
	MockBackendName   = "mock"
	OpenCVBackendName = "opencv"
)

// ResolveBackend returns the backend known by name, defaulting to OpenCV
// when name is empty.
func ResolveBackend(name string) (videobackend.Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case MockBackendName:
		return videobackend.Mock(), nil
	case OpenCVBackendName, "":
		return opencvbackend.New(), nil
	default:
		return nil, xerror.Errorf("unknown video backend: %s", name)
	}
}
