package config

import (
	"testing"
	"time"

	"docmerge/internal/errors"
)

// clearEnv blanks every configuration variable so ambient values from the
// host environment cannot leak into assertions
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"HOST", "PORT", "GIN_MODE",
		"MAX_UPLOAD_BYTES", "PREVIEW_ROWS", "SESSION_TTL",
		"OUTPUT_ROOT", "MAX_CONCURRENT_RUNS",
		"PPROF_PORT", "PPROF_ENABLED",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Upload.MaxBytes != 20<<20 {
		t.Errorf("expected 20 MiB upload limit, got %d", cfg.Upload.MaxBytes)
	}
	if cfg.Upload.PreviewRows != 10 {
		t.Errorf("expected 10 preview rows, got %d", cfg.Upload.PreviewRows)
	}
	if cfg.Upload.SessionTTL != 30*time.Minute {
		t.Errorf("expected 30m session TTL, got %s", cfg.Upload.SessionTTL)
	}
	if cfg.Generation.OutputRoot != "output" {
		t.Errorf("expected output root %q, got %q", "output", cfg.Generation.OutputRoot)
	}
	if cfg.Generation.MaxConcurrentRuns != 2 {
		t.Errorf("expected 2 concurrent runs, got %d", cfg.Generation.MaxConcurrentRuns)
	}
	if cfg.Profiling.Enabled {
		t.Error("profiling should be disabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("GIN_MODE", "release")
	t.Setenv("MAX_UPLOAD_BYTES", "1048576")
	t.Setenv("SESSION_TTL", "5m")
	t.Setenv("OUTPUT_ROOT", "/var/lib/docmerge")
	t.Setenv("MAX_CONCURRENT_RUNS", "4")
	t.Setenv("PPROF_ENABLED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Server.GinMode != "release" {
		t.Errorf("expected release mode, got %s", cfg.Server.GinMode)
	}
	if cfg.Upload.MaxBytes != 1<<20 {
		t.Errorf("expected 1 MiB upload limit, got %d", cfg.Upload.MaxBytes)
	}
	if cfg.Upload.SessionTTL != 5*time.Minute {
		t.Errorf("expected 5m session TTL, got %s", cfg.Upload.SessionTTL)
	}
	if cfg.Generation.OutputRoot != "/var/lib/docmerge" {
		t.Errorf("unexpected output root %q", cfg.Generation.OutputRoot)
	}
	if cfg.Generation.MaxConcurrentRuns != 4 {
		t.Errorf("expected 4 concurrent runs, got %d", cfg.Generation.MaxConcurrentRuns)
	}
	if !cfg.Profiling.Enabled {
		t.Error("profiling should be enabled")
	}
}

func TestLoadRejectsNonPositiveUploadLimit(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_UPLOAD_BYTES", "-1")

	_, err := Load()
	if err == nil {
		t.Fatal("expected an error for a negative upload limit")
	}
	if errors.GetCode(err) != errors.CodeConfigInvalid {
		t.Errorf("expected %s, got %s", errors.CodeConfigInvalid, errors.GetCode(err))
	}
}

func TestLoadRejectsZeroConcurrency(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_CONCURRENT_RUNS", "0")

	_, err := Load()
	if err == nil {
		t.Fatal("expected an error for zero concurrent runs")
	}
	if errors.GetCode(err) != errors.CodeConfigInvalid {
		t.Errorf("expected %s, got %s", errors.CodeConfigInvalid, errors.GetCode(err))
	}
}

func TestLoadIgnoresUnparseableNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_UPLOAD_BYTES", "lots")
	t.Setenv("PREVIEW_ROWS", "many")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Upload.MaxBytes != 20<<20 {
		t.Errorf("unparseable limit should fall back to the default, got %d", cfg.Upload.MaxBytes)
	}
	if cfg.Upload.PreviewRows != 10 {
		t.Errorf("unparseable row count should fall back to the default, got %d", cfg.Upload.PreviewRows)
	}
}
