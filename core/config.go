package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the project configuration file read by LoadConfig.
const ConfigFileName = ".certguard.yaml"

// Config holds project-level configuration loaded from .certguard.yaml.
type Config struct {
	// Properties override security property values by name.
	Properties map[string]string `yaml:"properties"`

	// SecurityPropertiesFile is a java.security style file consulted after
	// Properties and before the built-in defaults.
	SecurityPropertiesFile string `yaml:"security_properties_file"`

	// TrustStore defaults to <home>/security/cacerts.json.
	TrustStore string `yaml:"trust_store"`

	// Blocklist defaults to <home>/security/blocked.certs.
	Blocklist string `yaml:"blocklist"`

	// Concurrency bounds parallel chain checks (default: 4).
	Concurrency int `yaml:"concurrency"`

	Policy PolicySettings `yaml:"policy"`
	Output OutputSettings `yaml:"output"`
	Serve  ServeSettings  `yaml:"serve"`
	Watch  WatchSettings  `yaml:"watch"`
}

// PolicySettings selects which properties act as the disabled and legacy
// lists and how strictly results are judged.
type PolicySettings struct {
	Disabled string `yaml:"disabled"` // property name (default: jdk.certpath.disabledAlgorithms)
	Legacy   string `yaml:"legacy"`   // property name (default: jdk.security.legacyAlgorithms)
	Trust    string `yaml:"trust"`    // "default" or "strict"
	Variant  string `yaml:"variant"`  // default validation variant for chain checks
}

// OutputSettings controls default output format and path.
type OutputSettings struct {
	Format string `yaml:"format"` // "text" or "json"
	Path   string `yaml:"path"`
}

// ServeSettings controls the MCP server.
type ServeSettings struct {
	RateLimit float64 `yaml:"rate_limit"` // tool calls per second (default: 10)
	Burst     int     `yaml:"burst"`      // default: 20
}

// WatchSettings controls the watch command.
type WatchSettings struct {
	Debounce string `yaml:"debounce"` // e.g. "500ms"
}

// LoadConfig reads .certguard.yaml from root and returns the parsed config.
// If the file does not exist, a zero-value Config is returned with no error.
func LoadConfig(root string) (*Config, error) {
	return LoadConfigFile(filepath.Join(root, ConfigFileName))
}

// LoadConfigFile reads the configuration at path. A missing file yields a
// zero-value Config.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.resolvePaths(filepath.Dir(path))
	return &cfg, nil
}

// resolvePaths makes file references relative to the config's directory.
func (c *Config) resolvePaths(dir string) {
	for _, p := range []*string{&c.SecurityPropertiesFile, &c.TrustStore, &c.Blocklist} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}
