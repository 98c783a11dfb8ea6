package app

import (
	"strings"

	"github.com/charlesng35/termfolio/pkg/logger"
)

// ConfigureLogging initialises the global logger from server settings.
func ConfigureLogging(cfg ServerConfig) error {
	level := strings.TrimSpace(cfg.LogLevel)
	if level == "" {
		level = "info"
	}
	return logger.Init(level, cfg.PrettyLogs)
}
