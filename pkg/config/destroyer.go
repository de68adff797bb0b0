package config

import (
	"github.com/tauraamui/nvtracker/internal/config"
	"github.com/tauraamui/nvtracker/pkg/configdef"
)

type Destroyer interface {
	configdef.Destroyer
}

func DefaultDestroyer() Destroyer {
	return config.DefaultDestroyer()
}

type Watcher interface {
	configdef.Watcher
}

func DefaultWatcher() Watcher {
	return config.DefaultWatcher()
}
