package logger

import (
	"convocore/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log *zap.Logger

// Init initializes the global logger from configuration.
func Init(cfg *config.Config) {
	var logConfig zap.Config

	if cfg.Server.Env == "production" {
		logConfig = zap.NewProductionConfig()
	} else {
		logConfig = zap.NewDevelopmentConfig()
		logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = zapcore.InfoLevel
	}
	logConfig.Level.SetLevel(level)

	var err error
	log, err = logConfig.Build()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
}

// L returns the global logger instance.
func L() *zap.Logger {
	if log == nil {
		log = zap.NewNop()
	}
	return log
}
