package config

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggingConfig 配置控制台日志级别：none / normal / debug。
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Prepare returns our standard logger - configured zap logger for use by the program.
func (conf LoggingConfig) Prepare() (*zap.Logger, error) {
	var level zapcore.Level
	switch conf.Level {
	case "", "none":
		return zap.NewNop(), nil
	case "normal":
		level = zapcore.InfoLevel
	case "debug":
		level = zapcore.DebugLevel
	default:
		return nil, fmt.Errorf("未知日志级别 %q（可选 none/normal/debug）", conf.Level)
	}

	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.DisableCaller = true
	zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("构建日志器失败: %w", err)
	}
	return logger, nil
}
