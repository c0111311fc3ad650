// Package config resolves the daemon's configuration from command-line
// flags with an optional YAML file providing defaults. Flags always
// take precedence over the file: a flag explicitly set on the command
// line overrides the same key loaded from --config.
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the fully resolved daemon configuration.
type Config struct {
	// Interval is the lock engine's wait-loop wakeup period.
	Interval time.Duration `yaml:"interval"`

	// Port is the TCP port the HTTP adapter listens on.
	Port int `yaml:"port"`

	// Authentication, if non-empty, is a "username:password" pair
	// required via HTTP Basic auth on every request. Empty disables
	// authentication.
	Authentication string `yaml:"authentication"`

	// Certificate and Key are PEM file paths. Both must be set together
	// to serve over TLS; setting only one is a validation error.
	Certificate string `yaml:"certificate"`
	Key         string `yaml:"key"`
}

// fileConfig mirrors Config for YAML decoding. Interval is a plain
// string in the file (e.g. "500ms", "2s") since time.Duration has no
// native YAML scalar representation.
type fileConfig struct {
	Interval       string `yaml:"interval"`
	Port           int    `yaml:"port"`
	Authentication string `yaml:"authentication"`
	Certificate    string `yaml:"certificate"`
	Key            string `yaml:"key"`
}

// DefaultInterval matches the reference server's default wakeup
// interval of one second.
const DefaultInterval = time.Second

// DefaultPort matches the reference server's default listen port.
const DefaultPort = 8000

// Load parses flags from args (excluding the program name) and merges
// them with an optional --config YAML file. Flag values explicitly
// supplied on the command line win over the file; unset flags fall
// back to the file's value, then to the hardcoded default.
func Load(args []string) (Config, error) {
	fs := flag.NewFlagSet("lockyardd", flag.ContinueOnError)

	interval := fs.Duration("interval", DefaultInterval, "lock engine wakeup interval (e.g. 1s, 500ms)")
	port := fs.Int("port", DefaultPort, "HTTP listen port")
	authentication := fs.String("authentication", "", "required HTTP Basic auth as username:password")
	certificate := fs.String("certificate", "", "TLS certificate file (requires --key)")
	key := fs.String("key", "", "TLS private key file (requires --certificate)")
	configPath := fs.String("config", "", "optional YAML config file")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Interval:       *interval,
		Port:           *port,
		Authentication: *authentication,
		Certificate:    *certificate,
		Key:            *key,
	}

	if *configPath != "" {
		fileCfg, err := loadFile(*configPath)
		if err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		mergeFromFile(&cfg, fileCfg, fs)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadFile reads and parses a YAML config file.
func loadFile(path string) (fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("read %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fileConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc, nil
}

// mergeFromFile fills cfg fields from fc wherever the corresponding
// flag was not explicitly set on the command line.
func mergeFromFile(cfg *Config, fc fileConfig, fs *flag.FlagSet) {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if !set["interval"] && fc.Interval != "" {
		if d, err := time.ParseDuration(fc.Interval); err == nil {
			cfg.Interval = d
		}
	}
	if !set["port"] && fc.Port != 0 {
		cfg.Port = fc.Port
	}
	if !set["authentication"] && fc.Authentication != "" {
		cfg.Authentication = fc.Authentication
	}
	if !set["certificate"] && fc.Certificate != "" {
		cfg.Certificate = fc.Certificate
	}
	if !set["key"] && fc.Key != "" {
		cfg.Key = fc.Key
	}
}

// Validate checks field-level invariants not expressible via flag
// parsing alone.
func (c Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("config: interval must be positive, got %s", c.Interval)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Port)
	}
	if (c.Certificate == "") != (c.Key == "") {
		return fmt.Errorf("config: --certificate and --key must be supplied together")
	}
	if c.Authentication != "" && !strings.Contains(c.Authentication, ":") {
		return fmt.Errorf("config: --authentication must be in username:password form")
	}
	return nil
}

// TLSEnabled reports whether Certificate and Key are both set.
func (c Config) TLSEnabled() bool {
	return c.Certificate != "" && c.Key != ""
}
