package gateway

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Route matches a JSON-RPC method to a backend ID. Exactly one of Method or
// MethodPrefix should be set; Method (exact match) takes precedence when
// both somehow are.
type Route struct {
	Method       string `yaml:"method,omitempty"`
	MethodPrefix string `yaml:"method_prefix,omitempty"`
	Backend      string `yaml:"backend"`
}

func (r Route) matches(method string) bool {
	if r.Method != "" {
		return r.Method == method
	}
	if r.MethodPrefix != "" {
		return strings.HasPrefix(method, r.MethodPrefix)
	}
	return false
}

// backendSpec is one backend record in the configuration file.
type backendSpec struct {
	ID      string `yaml:"id"`
	Address string `yaml:"address"`
}

// fileConfig is the on-disk gateway configuration format (mcpcore §6
// "Configuration file (gateway)"), expressed as YAML instead of the
// reference's ad hoc key-value format.
type fileConfig struct {
	Backends []backendSpec `yaml:"backends"`
	Routes   []Route       `yaml:"routes"`
}

func loadFileConfig(path string) (*fileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gateway: reading config %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("gateway: parsing config %s: %w", path, err)
	}
	seen := make(map[string]struct{}, len(cfg.Backends))
	for _, b := range cfg.Backends {
		if b.ID == "" {
			return nil, fmt.Errorf("gateway: backend with empty id in %s", path)
		}
		if _, dup := seen[b.ID]; dup {
			return nil, fmt.Errorf("gateway: duplicate backend id %q in %s", b.ID, path)
		}
		seen[b.ID] = struct{}{}
	}
	for _, r := range cfg.Routes {
		if r.Method == "" && r.MethodPrefix == "" {
			return nil, fmt.Errorf("gateway: route with neither method nor method_prefix in %s", path)
		}
		if _, ok := seen[r.Backend]; !ok {
			return nil, fmt.Errorf("gateway: route references unknown backend %q in %s", r.Backend, path)
		}
	}
	return &cfg, nil
}
