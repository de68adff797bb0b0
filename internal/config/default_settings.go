package config

import (
	"path/filepath"

	"github.com/tauraamui/nvtracker/pkg/configdef"
)

type defaultSettingKey uint

const (
	VIDEOBACKEND   defaultSettingKey = 0x0
	CAMERATITLE    defaultSettingKey = 0x1
	FPS            defaultSettingKey = 0x2
	POPINTERVALMS  defaultSettingKey = 0x3
	METRICSADDRESS defaultSettingKey = 0x4
)

var defaultSettings = map[defaultSettingKey]interface{}{
	VIDEOBACKEND:   configdef.BackendMock,
	CAMERATITLE:    "Camera",
	FPS:            10,
	POPINTERVALMS:  500,
	METRICSADDRESS: "127.0.0.1:9090",
}

// defaultValues are the settings a config file may leave out.
func defaultValues() configdef.Values {
	return configdef.Values{
		VideoBackend: defaultSettings[VIDEOBACKEND].(string),
		Camera: configdef.Camera{
			FPS: defaultSettings[FPS].(int),
		},
		PopIntervalMS: defaultSettings[POPINTERVALMS].(int),
	}
}

// defaultConfig is written out by create, the model is expected to sit
// next to the config file.
func defaultConfig(configPath string) configdef.Values {
	values := defaultValues()
	values.ModelPath = filepath.Dir(configPath)
	values.Camera.Title = defaultSettings[CAMERATITLE].(string)
	values.MetricsAddress = defaultSettings[METRICSADDRESS].(string)
	return values
}
