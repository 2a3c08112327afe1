// Package logger builds the application's zerolog instances from the log
// configuration section, with optional rotating file output.
package logger

import (
	"github.com/rs/zerolog"

	"mixref/internal/config"
)

// New creates a new logger instance from the log configuration section
func New(cfg config.LogConfig) (zerolog.Logger, error) {
	return NewLoggerBuilder().WithConfig(cfg).Build()
}
