package config

import (
	"github.com/tauraamui/nvtracker/internal/config"
	"github.com/tauraamui/nvtracker/pkg/configdef"
)

type Creator interface {
	configdef.Creator
}

func DefaultCreator() Creator {
	return config.DefaultCreator()
}
