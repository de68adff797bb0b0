package model

import (
	"errors"
	"image"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/tauraamui/nvtracker/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
)

// FileName is the model file expected inside the tracker's data directory.
const FileName = "face2.tracker"

var ErrModelNotFound = xerror.New("model file not found")

var fs afero.Fs = afero.NewOsFs()

type Landmark struct {
	X, Y float64
}

type Pose struct {
	Pitch, Yaw, Roll float64
}

// Result is the per frame output of a model. The zero value means no
// face was found.
type Result struct {
	Landmarks []Landmark
	Face      image.Rectangle
	Pose      Pose
}

func (r Result) Found() bool {
	return len(r.Landmarks) > 0 || !r.Face.Empty()
}

// Model tracks faces in single channel views.
type Model interface {
	Track(videoframe.View) (Result, error)
	Close() error
}

// Loader opens a model from the file at path.
type Loader func(path string) (Model, error)

// Path joins dir with the model file name.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Load resolves the model file inside dir and hands it to loader.
func Load(dir string, loader Loader) (Model, error) {
	path := Path(dir)
	info, err := fs.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, xerror.Errorf("unable to load model %s: %w", path, ErrModelNotFound)
		}
		return nil, xerror.Errorf("unable to stat model %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, xerror.Errorf("model path %s is a directory: %w", path, ErrModelNotFound)
	}

	m, err := loader(path)
	if err != nil {
		return nil, xerror.Errorf("unable to load model %s: %w", path, err)
	}
	return m, nil
}

// ReadFile reads the raw model file contents.
func ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(fs, path)
}

// OverloadFS swaps the filesystem models are read from and returns a
// func restoring the previous one.
func OverloadFS(overload afero.Fs) func() {
	fsRef := fs
	fs = overload
	return func() { fs = fsRef }
}

// Detection is the outcome of tracking a single captured frame.
type Detection struct {
	TrackerUUID string
	Timestamp   float64
	Result      Result
	Region      image.Rectangle
}
