// Copyright 2024 The Hummock Authors
// This file is part of hummock.

// Package config loads the layered configuration shared by cmd/compute and
// cmd/meta: explicit defaults overlaid with a TOML file. It does not read
// the environment or flags directly; cmd binaries own that via
// github.com/alecthomas/kong and pass the resolved file path here.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Telemetry configures internal/telemetry's logger.
type Telemetry struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ObjectStore configures the table layer's backing store.
type ObjectStore struct {
	Backend string `toml:"backend"` // currently only "local"
	BaseDir string `toml:"base_dir"`
}

// Recovery configures barrier/recovery's retry policy.
type Recovery struct {
	BaseBackoffMillis int `toml:"base_backoff_millis"`
	MaxBackoffMillis  int `toml:"max_backoff_millis"`
}

// Exchange configures barrier/exchange's bounded-channel backpressure.
type Exchange struct {
	ChannelCapacity int     `toml:"channel_capacity"`
	RateLimitPerSec float64 `toml:"rate_limit_per_sec"`
}

// Compute is cmd/compute's resolved configuration.
type Compute struct {
	ListenAddr  string      `toml:"listen_addr"`
	Telemetry   Telemetry   `toml:"telemetry"`
	ObjectStore ObjectStore `toml:"object_store"`
	Exchange    Exchange    `toml:"exchange"`
}

// Meta is cmd/meta's resolved configuration.
type Meta struct {
	ListenAddr string    `toml:"listen_addr"`
	Telemetry  Telemetry `toml:"telemetry"`
	Recovery   Recovery  `toml:"recovery"`
}

func defaultCompute() Compute {
	return Compute{
		ListenAddr: "127.0.0.1:7070",
		Telemetry:  Telemetry{Level: "info", Format: "json"},
		ObjectStore: ObjectStore{
			Backend: "local",
			BaseDir: "./data",
		},
		Exchange: Exchange{
			ChannelCapacity: 1024,
			RateLimitPerSec: 0, // 0 disables rate limiting
		},
	}
}

func defaultMeta() Meta {
	return Meta{
		ListenAddr: "127.0.0.1:7071",
		Telemetry:  Telemetry{Level: "info", Format: "json"},
		Recovery: Recovery{
			BaseBackoffMillis: 100,
			MaxBackoffMillis:  10_000,
		},
	}
}

// LoadCompute reads path (if non-empty) and overlays it onto defaults.
func LoadCompute(path string) (Compute, error) {
	cfg := defaultCompute()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Compute{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Compute{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadMeta reads path (if non-empty) and overlays it onto defaults.
func LoadMeta(path string) (Meta, error) {
	cfg := defaultMeta()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Meta{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Meta{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
