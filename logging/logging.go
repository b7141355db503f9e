// Package logging builds the zap loggers used across the service.
package logging

import (
	"github.com/ammiranda/forest/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a JSON production logger for staging and production and a
// human-readable development logger otherwise.
func New(env config.Environment) (*zap.Logger, error) {
	if env == config.Production || env == config.Staging {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// NewAtLevel is New with the minimum enabled level overridden
func NewAtLevel(env config.Environment, level zapcore.Level) (*zap.Logger, error) {
	var cfg zap.Config
	if env == config.Production || env == config.Staging {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}
