package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/arloliu/go-julabo/logger"
	"github.com/arloliu/go-julabo/protocol"
)

type config struct {
	URL               string
	Model             string
	LogLevel          logger.Level
	CommandLatency    time.Duration
	QueryLatency      time.Duration
	SerializeCommands bool
	ReadTimeout       time.Duration
	MetricsAddr       string
	Interval          time.Duration
}

func defaultConfig() config {
	return config{
		Model:          "CF",
		LogLevel:       logger.WarnLevel,
		CommandLatency: protocol.DefaultCommandLatency,
		QueryLatency:   protocol.DefaultQueryLatency,
		ReadTimeout:    time.Second,
		Interval:       5 * time.Second,
	}
}

type fileConfig struct {
	URL               string `toml:"url"`
	Model             string `toml:"model"`
	LogLevel          string `toml:"log_level"`
	CommandLatency    string `toml:"command_latency"`
	QueryLatency      string `toml:"query_latency"`
	SerializeCommands bool   `toml:"serialize_commands"`
	ReadTimeout       string `toml:"read_timeout"`
	MetricsAddr       string `toml:"metrics_addr"`
	Interval          string `toml:"interval"`
}

// loadConfig overlays the keys present in the TOML file at path onto cfg.
func loadConfig(path string, cfg *config) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("url") {
		cfg.URL = strings.TrimSpace(raw.URL)
	}
	if meta.IsDefined("model") {
		cfg.Model = strings.TrimSpace(raw.Model)
	}
	if meta.IsDefined("log_level") {
		lvl, err := logger.ParseLevel(raw.LogLevel)
		if err != nil {
			return fmt.Errorf("parse log_level: %w", err)
		}
		cfg.LogLevel = lvl
	}
	if meta.IsDefined("serialize_commands") {
		cfg.SerializeCommands = raw.SerializeCommands
	}
	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"command_latency", raw.CommandLatency, &cfg.CommandLatency},
		{"query_latency", raw.QueryLatency, &cfg.QueryLatency},
		{"read_timeout", raw.ReadTimeout, &cfg.ReadTimeout},
		{"interval", raw.Interval, &cfg.Interval},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = v
	}

	return nil
}
