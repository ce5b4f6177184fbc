// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// Load reads the real process environment and working directory, so
// every test pins the config path env var to keep stray config.yaml
// files out of the picture.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "absent.yaml"))
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Job.Concurrency != 2 {
		t.Errorf("Job.Concurrency = %d, want 2", cfg.Job.Concurrency)
	}
	if cfg.Job.Retention != 50 {
		t.Errorf("Job.Retention = %d, want 50", cfg.Job.Retention)
	}
	if cfg.Job.DeadlineGrace != 10*time.Second {
		t.Errorf("Job.DeadlineGrace = %v, want 10s", cfg.Job.DeadlineGrace)
	}
	if cfg.EventBus.Transport != "inprocess" {
		t.Errorf("EventBus.Transport = %q, want inprocess", cfg.EventBus.Transport)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Addr != ":9090" {
		t.Errorf("Metrics = %+v, want enabled on :9090", cfg.Metrics)
	}
}

func TestLoadYAMLFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
job:
  concurrency: 4
  retention: 10
store:
  path: ` + filepath.Join(dir, "badger") + `
event_bus:
  transport: nats
  embedded: true
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Job.Concurrency != 4 {
		t.Errorf("Job.Concurrency = %d, want 4", cfg.Job.Concurrency)
	}
	if cfg.Job.Retention != 10 {
		t.Errorf("Job.Retention = %d, want 10", cfg.Job.Retention)
	}
	if cfg.EventBus.Transport != "nats" || !cfg.EventBus.Embedded {
		t.Errorf("EventBus = %+v, want embedded nats", cfg.EventBus)
	}
	// Untouched fields keep their defaults.
	if cfg.Job.PreviewIterCap != 3 {
		t.Errorf("Job.PreviewIterCap = %d, want default 3", cfg.Job.PreviewIterCap)
	}
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("job:\n  concurrency: 4\n"), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("TVPROGRAM_JOB_CONCURRENCY", "8")
	t.Setenv("TVPROGRAM_STORE_PATH", filepath.Join(dir, "badger"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Job.Concurrency != 8 {
		t.Errorf("Job.Concurrency = %d, want env override 8", cfg.Job.Concurrency)
	}
	if cfg.Store.Path != filepath.Join(dir, "badger") {
		t.Errorf("Store.Path = %q", cfg.Store.Path)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	isolate(t)
	t.Setenv("TVPROGRAM_JOB_CONCURRENCY", "0")

	if _, err := Load(); err == nil {
		t.Fatal("expected validation failure for concurrency 0")
	}
}

func TestLoadRejectsUnknownTransport(t *testing.T) {
	isolate(t)
	t.Setenv("TVPROGRAM_EVENT_BUS_TRANSPORT", "carrier-pigeon")

	if _, err := Load(); err == nil {
		t.Fatal("expected validation failure for unknown transport")
	}
}

func TestEnvTransform(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"TVPROGRAM_JOB_CONCURRENCY", "job.concurrency"},
		{"TVPROGRAM_JOB_DEADLINE_GRACE", "job.deadline_grace"},
		{"TVPROGRAM_JOB_DEFAULT_MAX_ITERATIONS", "job.default_max_iterations"},
		{"TVPROGRAM_STORE_PATH", "store.path"},
		{"TVPROGRAM_PLAYOUT_BASE_URL", "playout.base_url"},
		{"TVPROGRAM_EVENT_BUS_TRANSPORT", "event_bus.transport"},
		{"TVPROGRAM_EVENT_BUS_NATS_URL", "event_bus.nats_url"},
		{"TVPROGRAM_CATALOG_URL", "catalog_url"},
	}
	for _, tc := range cases {
		if got := envTransformFunc(tc.in); got != tc.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
