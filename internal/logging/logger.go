// Package logging builds the zap loggers used by shaderstore.
// Every pipeline stage logs through a named child logger (its Category), and
// categories can be switched off individually from the logging config.
package logging

import (
	"fmt"
	"strings"

	"shaderstore/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot     Category = "boot"     // CLI startup, config loading
	CategoryWalk     Category = "walk"     // Directory enumeration, file index
	CategoryEmit     Category = "emit"     // Per-file header rendering and writes
	CategoryRegistry Category = "registry" // Aggregate store rendering
	CategoryWatch    Category = "watch"    // Filesystem watcher
	CategoryCheck    Category = "check"    // Up-to-date verification
)

// New builds a logger from the logging config. verbose forces debug level.
func New(cfg config.LoggingConfig, verbose bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Sampling = nil

	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	switch cfg.Format {
	case "json":
		zcfg.Encoding = "json"
	default:
		zcfg.Encoding = "console"
		zcfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		zcfg.DisableStacktrace = true
	}
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if cfg.File != "" {
		zcfg.OutputPaths = append(zcfg.OutputPaths, cfg.File)
		zcfg.ErrorOutputPaths = append(zcfg.ErrorOutputPaths, cfg.File)
	}

	logger, err := zcfg.Build(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return FilterCategories(core, cfg)
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// For returns the child logger for a category. A nil base yields a no-op logger.
func For(base *zap.Logger, category Category) *zap.Logger {
	if base == nil {
		return zap.NewNop()
	}
	return base.Named(string(category))
}

func parseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid log level: %s", s)
	}
}

// FilterCategories wraps core so that entries from disabled categories are
// dropped. The category is the first segment of the logger name.
func FilterCategories(core zapcore.Core, cfg config.LoggingConfig) zapcore.Core {
	if len(cfg.Categories) == 0 {
		return core
	}
	return &categoryCore{Core: core, cfg: cfg}
}

type categoryCore struct {
	zapcore.Core
	cfg config.LoggingConfig
}

func (c *categoryCore) With(fields []zapcore.Field) zapcore.Core {
	return &categoryCore{Core: c.Core.With(fields), cfg: c.cfg}
}

func (c *categoryCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	name := ent.LoggerName
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	if name != "" && !c.cfg.IsCategoryEnabled(name) {
		return ce
	}
	return c.Core.Check(ent, ce)
}
