package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFilename is the default configuration filename.
const DefaultConfigFilename = "icspmerge.yaml"

// Environment variables read by ApplyEnv.
const (
	EnvS3AccessKey = "ICSPMERGE_S3_ACCESS_KEY"
	EnvS3SecretKey = "ICSPMERGE_S3_SECRET_KEY"
)

// ErrConfigNotFound is returned by FindConfigFile when no file exists.
var ErrConfigNotFound = errors.New("config file not found")

// LoadFile loads a configuration file over the defaults and applies the
// environment. It does not validate; flags may still change the result.
func LoadFile(path string) (*Config, error) {
	// #nosec G304 - path is operator supplied
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := parseConfig(data)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// Load resolves the configuration. An explicit path must exist; otherwise
// icspmerge.yaml is searched for and the defaults are used when none is
// found.
func Load(path string) (*Config, error) {
	if path != "" {
		return LoadFile(path)
	}

	found, err := FindConfigFile()
	if err != nil {
		if errors.Is(err, ErrConfigNotFound) {
			cfg := Default()
			cfg.ApplyEnv()
			return cfg, nil
		}
		return nil, err
	}
	return LoadFile(found)
}

// parseConfig parses YAML data over the defaults.
func parseConfig(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overlays S3 credentials from the environment. KUBECONFIG is
// left to kubectl and client-go, which both accept a path list.
func (c *Config) ApplyEnv() {
	if c.Backup.S3 != nil {
		if v := os.Getenv(EnvS3AccessKey); v != "" {
			c.Backup.S3.AccessKey = v
		}
		if v := os.Getenv(EnvS3SecretKey); v != "" {
			c.Backup.S3.SecretKey = v
		}
	}
}

// FindConfigFile searches for icspmerge.yaml in the current directory and
// its parents.
func FindConfigFile() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return findConfigFileFrom(cwd)
}

func findConfigFileFrom(start string) (string, error) {
	dir := start
	for {
		path := filepath.Join(dir, DefaultConfigFilename)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("%w: %s", ErrConfigNotFound, DefaultConfigFilename)
}
