// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in
// priority order. The first one found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/tvprogram/config.yaml",
	"/etc/tvprogram/config.yml",
}

// ConfigPathEnvVar overrides the config file search with an exact path.
const ConfigPathEnvVar = "TVPROGRAM_CONFIG_PATH"

// Load assembles the Config in three ascending-priority layers:
// built-in defaults, an optional YAML file, then environment variables
// (TVPROGRAM_JOB_CONCURRENCY, TVPROGRAM_STORE_PATH, ...).
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load file %s: %w", path, err)
		}
	}

	envProvider := env.Provider("TVPROGRAM_", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envMappings routes the variables whose config path cannot be derived
// by splitting on the first underscore: sections that themselves
// contain one, and underscored top-level keys.
var envMappings = map[string]string{
	"event_bus_transport": "event_bus.transport",
	"event_bus_nats_url":  "event_bus.nats_url",
	"event_bus_embedded":  "event_bus.embedded",
	"catalog_url":         "catalog_url",
}

// envTransformFunc maps TVPROGRAM_-prefixed environment variables to
// koanf config paths: TVPROGRAM_JOB_CONCURRENCY -> job.concurrency,
// TVPROGRAM_JOB_DEADLINE_GRACE -> job.deadline_grace. Only the first
// underscore separates section from field, so underscored field names
// survive intact; the exceptions live in envMappings.
func envTransformFunc(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, "TVPROGRAM_"))
	if path, ok := envMappings[key]; ok {
		return path
	}
	if i := strings.Index(key, "_"); i > 0 {
		return key[:i] + "." + key[i+1:]
	}
	return key
}
