// Copyright 2024 The Hummock Authors
// This file is part of hummock.

// Package telemetry centralises logger construction for cmd/compute and
// cmd/meta, and for any package (barrier/recovery in particular) that needs
// a structured logger without depending on the binary that wires it.
package telemetry

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the logger's output shape. Production deployments use
// JSON; interactive/dev runs use the console encoder.
type Config struct {
	Level     string // debug, info, warn, error
	Format    string // json or console
	Component string
}

// NewLogger builds a zap.Logger from cfg, tagging every entry with
// cfg.Component.
func NewLogger(cfg Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, err
		}
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	if cfg.Component != "" {
		logger = logger.With(zap.String("component", cfg.Component))
	}
	return logger, nil
}
