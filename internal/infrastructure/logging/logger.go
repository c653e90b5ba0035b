package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
)

// NewFromEnv builds the process logger. LOG_LEVEL selects debug/info/warn/
// error (default info); LOG_MODE=development switches to the human-readable
// console encoder. The logger is passed down through constructors, never
// pulled from a global.
func NewFromEnv() (*zap.Logger, error) {
	var cfg zap.Config
	if strings.EqualFold(os.Getenv("LOG_MODE"), "development") {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	if lvl := strings.TrimSpace(os.Getenv("LOG_LEVEL")); lvl != "" {
		parsed, err := zap.ParseAtomicLevel(lvl)
		if err != nil {
			return nil, err
		}
		cfg.Level = parsed
	}

	return cfg.Build()
}
