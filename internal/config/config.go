// Package config loads mcpcore's server configuration with a priority
// cascade: defaults < config file < .env overlay < environment variables <
// CLI flags. This generalizes the teacher's cmd/gasoline-cmd/config.Load
// cascade from a CLI-client config to the server's listen/TLS/logging
// surface (spec.md §6 CLI surface).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// ServerConfig holds all resolved mcpcored configuration values.
type ServerConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	GatewayConfig string `json:"config"`
	DocRoot      string `json:"doc_root"`
	LogLevel     string `json:"log_level"`
	LogFile      string `json:"log_file"`
	SSL          bool   `json:"ssl"`
	CertFile     string `json:"cert"`
	KeyFile      string `json:"key"`
}

// FlagOverrides holds values explicitly set via command-line flags.
// A nil pointer means the flag was not set, so lower-priority values win.
type FlagOverrides struct {
	Host          *string
	Port          *int
	GatewayConfig *string
	DocRoot       *string
	LogLevel      *string
	LogFile       *string
	SSL           *bool
	CertFile      *string
	KeyFile       *string
}

// Defaults returns mcpcored's base configuration.
func Defaults() ServerConfig {
	return ServerConfig{
		Host:     "0.0.0.0",
		Port:     7890,
		LogLevel: "info",
	}
}

// Load builds the final configuration by applying the priority cascade:
// defaults < configPath (if set, JSON) < .env overlay < environment
// variables < flags.
func Load(configPath string, flags *FlagOverrides) (ServerConfig, error) {
	cfg := Defaults()

	if configPath != "" {
		if err := loadJSONFile(&cfg, configPath); err != nil {
			return cfg, fmt.Errorf("config file: %w", err)
		}
	}

	// .env overlay is best-effort: a missing .env is not an error, and its
	// values only take effect via the os.Getenv reads in loadEnvVars below.
	_ = godotenv.Load()

	loadEnvVars(&cfg)

	if flags != nil {
		applyFlags(&cfg, flags)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func loadJSONFile(cfg *ServerConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var fileCfg fileConfig
	if err := json.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	if fileCfg.Host != nil {
		cfg.Host = *fileCfg.Host
	}
	if fileCfg.Port != nil {
		cfg.Port = *fileCfg.Port
	}
	if fileCfg.GatewayConfig != nil {
		cfg.GatewayConfig = *fileCfg.GatewayConfig
	}
	if fileCfg.DocRoot != nil {
		cfg.DocRoot = *fileCfg.DocRoot
	}
	if fileCfg.LogLevel != nil {
		cfg.LogLevel = *fileCfg.LogLevel
	}
	if fileCfg.LogFile != nil {
		cfg.LogFile = *fileCfg.LogFile
	}
	if fileCfg.SSL != nil {
		cfg.SSL = *fileCfg.SSL
	}
	if fileCfg.CertFile != nil {
		cfg.CertFile = *fileCfg.CertFile
	}
	if fileCfg.KeyFile != nil {
		cfg.KeyFile = *fileCfg.KeyFile
	}
	return nil
}

// fileConfig uses pointers to distinguish "not set" from zero values.
type fileConfig struct {
	Host          *string `json:"host"`
	Port          *int    `json:"port"`
	GatewayConfig *string `json:"config"`
	DocRoot       *string `json:"doc_root"`
	LogLevel      *string `json:"log_level"`
	LogFile       *string `json:"log_file"`
	SSL           *bool   `json:"ssl"`
	CertFile      *string `json:"cert"`
	KeyFile       *string `json:"key"`
}

func loadEnvVars(cfg *ServerConfig) {
	if v := os.Getenv("MCPCORE_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("MCPCORE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := os.Getenv("MCPCORE_CONFIG"); v != "" {
		cfg.GatewayConfig = v
	}
	if v := os.Getenv("MCPCORE_DOC_ROOT"); v != "" {
		cfg.DocRoot = v
	}
	if v := os.Getenv("MCPCORE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("MCPCORE_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("MCPCORE_SSL"); v != "" {
		cfg.SSL = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("MCPCORE_CERT"); v != "" {
		cfg.CertFile = v
	}
	if v := os.Getenv("MCPCORE_KEY"); v != "" {
		cfg.KeyFile = v
	}
}

func applyFlags(cfg *ServerConfig, flags *FlagOverrides) {
	if flags.Host != nil {
		cfg.Host = *flags.Host
	}
	if flags.Port != nil {
		cfg.Port = *flags.Port
	}
	if flags.GatewayConfig != nil {
		cfg.GatewayConfig = *flags.GatewayConfig
	}
	if flags.DocRoot != nil {
		cfg.DocRoot = *flags.DocRoot
	}
	if flags.LogLevel != nil {
		cfg.LogLevel = *flags.LogLevel
	}
	if flags.LogFile != nil {
		cfg.LogFile = *flags.LogFile
	}
	if flags.SSL != nil {
		cfg.SSL = *flags.SSL
	}
	if flags.CertFile != nil {
		cfg.CertFile = *flags.CertFile
	}
	if flags.KeyFile != nil {
		cfg.KeyFile = *flags.KeyFile
	}
}

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "warning": true,
	"error": true, "fatal": true, "panic": true,
}

// Validate checks that configuration values are within acceptable ranges.
func (c ServerConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be 1-65535, got %d", c.Port)
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("log_level %q is not a recognized logrus level", c.LogLevel)
	}
	if c.SSL {
		if c.CertFile == "" || c.KeyFile == "" {
			return fmt.Errorf("ssl requires both cert and key to be set")
		}
	}
	return nil
}

// Addr returns the host:port listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
