package configdef

import (
	"net"
	"time"

	"github.com/tauraamui/xerror"
	"gopkg.in/dealancer/validate.v2"
)

const (
	BackendMock   = "mock"
	BackendOpenCV = "opencv"
)

type Camera struct {
	Title   string `json:"title" validate:"empty=false"`
	Address string `json:"address"`
	Width   int    `json:"width" validate:"gte=0 & lte=7680"`
	Height  int    `json:"height" validate:"gte=0 & lte=4320"`
	FPS     int    `json:"fps" validate:"gte=1 & lte=60"`
}

type Values struct {
	Debug          bool   `json:"debug"`
	ModelPath      string `json:"model_path" validate:"empty=false"`
	VideoBackend   string `json:"video_backend" validate:"one_of=mock,opencv"`
	Camera         Camera `json:"camera"`
	Paused         bool   `json:"paused"`
	PopIntervalMS  int    `json:"pop_interval_ms" validate:"gte=1"`
	MetricsAddress string `json:"metrics_address"`
	Journal        bool   `json:"journal"`
}

// Validate holds the rules which span more than one field.
func (v Values) Validate() error {
	const validationErrorHeader = "validation failed: %w"
	if v.VideoBackend == BackendOpenCV && len(v.Camera.Address) == 0 {
		return xerror.Errorf(validationErrorHeader, xerror.New("opencv backend requires a camera address"))
	}
	if (v.Camera.Width == 0) != (v.Camera.Height == 0) {
		return xerror.Errorf(validationErrorHeader, xerror.New("camera width and height must be set together"))
	}
	if len(v.MetricsAddress) > 0 {
		if _, _, err := net.SplitHostPort(v.MetricsAddress); err != nil {
			return xerror.Errorf(validationErrorHeader, err)
		}
	}
	return nil
}

func (v Values) RunValidate() error {
	if err := validate.Validate(&v); err != nil {
		return err
	}
	return v.Validate()
}

func (v Values) PopInterval() time.Duration {
	return time.Duration(v.PopIntervalMS) * time.Millisecond
}
