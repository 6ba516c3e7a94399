package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	t.Parallel()
	cfg := Defaults()

	if cfg.Host != "0.0.0.0" {
		t.Errorf("expected default host 0.0.0.0, got %q", cfg.Host)
	}
	if cfg.Port != 7890 {
		t.Errorf("expected default port 7890, got %d", cfg.Port)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level info, got %q", cfg.LogLevel)
	}
	if cfg.SSL {
		t.Error("expected ssl to be false by default")
	}
}

func TestLoadJSONConfigFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "mcpcored.json")
	err := os.WriteFile(path, []byte(`{
		"host": "127.0.0.1",
		"port": 9224,
		"log_level": "debug"
	}`), 0644)
	if err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg := Defaults()
	if err := loadJSONFile(&cfg, path); err != nil {
		t.Fatalf("loadJSONFile failed: %v", err)
	}

	if cfg.Host != "127.0.0.1" {
		t.Errorf("expected host 127.0.0.1, got %q", cfg.Host)
	}
	if cfg.Port != 9224 {
		t.Errorf("expected port 9224, got %d", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level debug, got %q", cfg.LogLevel)
	}
}

func TestLoadMissingConfigFileIsNotAnError(t *testing.T) {
	t.Parallel()
	cfg := Defaults()
	err := loadJSONFile(&cfg, filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("missing config file should not error, got: %v", err)
	}
	if cfg.Port != 7890 {
		t.Errorf("expected default port preserved, got %d", cfg.Port)
	}
}

func TestLoadInvalidJSONConfigFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "mcpcored.json")
	if err := os.WriteFile(path, []byte(`{bad json`), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg := Defaults()
	if err := loadJSONFile(&cfg, path); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestLoadEnvVars(t *testing.T) {
	t.Setenv("MCPCORE_HOST", "10.0.0.5")
	t.Setenv("MCPCORE_PORT", "9225")
	t.Setenv("MCPCORE_LOG_LEVEL", "warn")
	t.Setenv("MCPCORE_SSL", "true")

	cfg := Defaults()
	loadEnvVars(&cfg)

	if cfg.Host != "10.0.0.5" {
		t.Errorf("expected host 10.0.0.5, got %q", cfg.Host)
	}
	if cfg.Port != 9225 {
		t.Errorf("expected port 9225, got %d", cfg.Port)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("expected log level warn, got %q", cfg.LogLevel)
	}
	if !cfg.SSL {
		t.Error("expected ssl true")
	}
}

func TestLoadEnvVarsInvalidPortKeepsPrevious(t *testing.T) {
	t.Setenv("MCPCORE_PORT", "notanumber")

	cfg := Defaults()
	loadEnvVars(&cfg)

	if cfg.Port != 7890 {
		t.Errorf("expected default port on invalid env, got %d", cfg.Port)
	}
}

func TestConfigPriorityOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mcpcored.json")
	err := os.WriteFile(path, []byte(`{"host": "127.0.0.1", "port": 9224}`), 0644)
	if err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv("MCPCORE_PORT", "9225")

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != 9225 {
		t.Errorf("expected env port 9225 to override config file, got %d", cfg.Port)
	}
	if cfg.Host != "127.0.0.1" {
		t.Errorf("expected config-file host 127.0.0.1 to survive, got %q", cfg.Host)
	}
}

func TestFlagOverridesWinOverEverything(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mcpcored.json")
	if err := os.WriteFile(path, []byte(`{"port": 9224}`), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("MCPCORE_PORT", "9225")

	port := 9999
	overrides := &FlagOverrides{Port: &port}

	cfg, err := Load(path, overrides)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 9999 {
		t.Errorf("expected flag port 9999, got %d", cfg.Port)
	}
}

func TestValidatePortRange(t *testing.T) {
	t.Parallel()
	cfg := Defaults()
	cfg.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Error("port 0 should be invalid")
	}

	cfg.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Error("port 70000 should be invalid")
	}

	cfg.Port = 7890
	if err := cfg.Validate(); err != nil {
		t.Errorf("port 7890 should be valid, got: %v", err)
	}
}

func TestValidateLogLevel(t *testing.T) {
	t.Parallel()
	cfg := Defaults()
	cfg.LogLevel = "bogus"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unrecognized log level")
	}

	cfg.LogLevel = "DEBUG"
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected case-insensitive log level to validate, got: %v", err)
	}
}

func TestValidateSSLRequiresCertAndKey(t *testing.T) {
	t.Parallel()
	cfg := Defaults()
	cfg.SSL = true
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when ssl is set without cert/key")
	}

	cfg.CertFile = "cert.pem"
	cfg.KeyFile = "key.pem"
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config with cert and key set, got: %v", err)
	}
}

func TestAddr(t *testing.T) {
	t.Parallel()
	cfg := ServerConfig{Host: "127.0.0.1", Port: 7890}
	if got, want := cfg.Addr(), "127.0.0.1:7890"; got != want {
		t.Errorf("Addr() = %q, want %q", got, want)
	}
}
