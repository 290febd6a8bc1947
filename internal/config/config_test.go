package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SimilarityThreshold != 0.3 || cfg.MaxWorkers != 4 {
		t.Fatalf("defaults not applied: %#v", cfg)
	}
	if cfg.CentralityCap != 200 || cfg.CycleBreakCap != 1000 {
		t.Fatalf("ordering defaults not applied: %#v", cfg)
	}
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "similarity_threshold: 0.5\nmax_workers: 2\ninput_dir: /data/docs\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SimilarityThreshold != 0.5 || cfg.MaxWorkers != 2 || cfg.InputDir != "/data/docs" {
		t.Fatalf("yaml not applied: %#v", cfg)
	}
	if cfg.OutputDir != "./output" {
		t.Fatalf("unset yaml fields must keep defaults: %q", cfg.OutputDir)
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("max_workers: 2\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("MAX_ANALYSIS_WORKERS", "3")
	t.Setenv("RUN_TITLE", "Exam Prep")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxWorkers != 3 {
		t.Fatalf("env override lost: %d", cfg.MaxWorkers)
	}
	if cfg.Title != "Exam Prep" {
		t.Fatalf("env override lost: %q", cfg.Title)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(":\n\t- broken"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestPerDocTimeout(t *testing.T) {
	c := Config{PerDocTimeoutSec: 30}
	if got := c.PerDocTimeout(); got != 30*time.Second {
		t.Fatalf("PerDocTimeout = %v", got)
	}
	c.PerDocTimeoutSec = 0
	if got := c.PerDocTimeout(); got != 0 {
		t.Fatalf("zero must disable the timeout, got %v", got)
	}
}
