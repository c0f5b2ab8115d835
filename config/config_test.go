package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/sirupsen/logrus"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvListen, EnvLogLevel, EnvSeedSamples, EnvAllowedOrigins, EnvJWTSecret} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.ListenAddr != ":3002" {
		t.Errorf("ListenAddr mismatch: got %q, want %q", cfg.ListenAddr, ":3002")
	}
	if cfg.LogLevel != logrus.InfoLevel {
		t.Errorf("LogLevel mismatch: got %v, want %v", cfg.LogLevel, logrus.InfoLevel)
	}
	if !cfg.SeedSamples {
		t.Error("SeedSamples should default to true")
	}
	if len(cfg.AllowedOrigins) != 0 {
		t.Errorf("AllowedOrigins should be empty, got %v", cfg.AllowedOrigins)
	}
	if cfg.JWTSecret != "" {
		t.Errorf("JWTSecret should be empty, got %q", cfg.JWTSecret)
	}
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvListen, ":8080")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvSeedSamples, "false")
	t.Setenv(EnvAllowedOrigins, "https://gallery.example.com, ,https://admin.example.com")
	t.Setenv(EnvJWTSecret, "s3cret")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr mismatch: got %q, want %q", cfg.ListenAddr, ":8080")
	}
	if cfg.LogLevel != logrus.DebugLevel {
		t.Errorf("LogLevel mismatch: got %v, want %v", cfg.LogLevel, logrus.DebugLevel)
	}
	if cfg.SeedSamples {
		t.Error("SeedSamples should be false")
	}
	want := []string{"https://gallery.example.com", "https://admin.example.com"}
	if !reflect.DeepEqual(cfg.AllowedOrigins, want) {
		t.Errorf("AllowedOrigins mismatch: got %v, want %v", cfg.AllowedOrigins, want)
	}
	if cfg.JWTSecret != "s3cret" {
		t.Errorf("JWTSecret mismatch: got %q", cfg.JWTSecret)
	}
}

func TestLoad_FlagsOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvListen, ":8080")
	t.Setenv(EnvSeedSamples, "true")

	cfg, err := Load([]string{"-listen", ":9090", "-seed=false", "-loglevel", "warn"})
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.ListenAddr != ":9090" {
		t.Errorf("ListenAddr mismatch: got %q, want %q", cfg.ListenAddr, ":9090")
	}
	if cfg.SeedSamples {
		t.Error("SeedSamples flag should override environment")
	}
	if cfg.LogLevel != logrus.WarnLevel {
		t.Errorf("LogLevel mismatch: got %v, want %v", cfg.LogLevel, logrus.WarnLevel)
	}
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{"Invalid log level", nil, []string{"-loglevel", "loud"}},
		{"Invalid seed env", map[string]string{EnvSeedSamples: "maybe"}, nil},
		{"Unknown flag", nil, []string{"-nope"}},
		{"Token without secret", nil, []string{"-issue-token", "curator"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			if _, err := Load(tc.args); err == nil {
				t.Error("Load() should return an error")
			}
		})
	}
}

func TestLoad_IssueToken(t *testing.T) {
	clearEnv(t)

	cfg, err := Load([]string{"-jwt-secret", "s3cret", "-issue-token", " curator "})
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.IssueTokenFor != "curator" {
		t.Errorf("IssueTokenFor mismatch: got %q, want %q", cfg.IssueTokenFor, "curator")
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvListen, ":7000")

	envFile := filepath.Join(t.TempDir(), ".env")
	content := EnvLogLevel + "=error\n" + EnvListen + "=:6000\n"
	if err := os.WriteFile(envFile, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}

	// t.Setenv("", ...) leaves the key present, so unset the one the file should fill.
	if err := os.Unsetenv(EnvLogLevel); err != nil {
		t.Fatalf("Unsetenv failed: %v", err)
	}

	if err := LoadDotEnv(envFile); err != nil {
		t.Fatalf("LoadDotEnv() failed: %v", err)
	}

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.LogLevel != logrus.ErrorLevel {
		t.Errorf("LogLevel from env file mismatch: got %v, want %v", cfg.LogLevel, logrus.ErrorLevel)
	}
	if cfg.ListenAddr != ":7000" {
		t.Errorf("Env file must not override existing variables: got %q, want %q", cfg.ListenAddr, ":7000")
	}
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("LoadDotEnv() with missing file should not fail: %v", err)
	}
}
