package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configDirName  = ".hub-console"
	configFileName = "config.yaml"

	DefaultPort               = 8080
	DefaultFrontendURL        = "http://localhost:5174"
	DefaultImportPollInterval = 2 * time.Second
	DefaultImportPollAttempts = 5
)

// Config is the hub console configuration
type Config struct {
	Port        int    `yaml:"port"`
	Kubeconfig  string `yaml:"kubeconfig,omitempty"`
	Context     string `yaml:"context,omitempty"`
	FrontendURL string `yaml:"frontend_url,omitempty"`
	// ClusterNamespaces are listed one by one when a cluster-wide list is
	// forbidden. Empty means look up the labelled cluster namespaces.
	ClusterNamespaces  []string      `yaml:"cluster_namespaces,omitempty"`
	ImportPollInterval time.Duration `yaml:"import_poll_interval,omitempty"`
	ImportPollAttempts int           `yaml:"import_poll_attempts,omitempty"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Port:               DefaultPort,
		FrontendURL:        DefaultFrontendURL,
		ImportPollInterval: DefaultImportPollInterval,
		ImportPollAttempts: DefaultImportPollAttempts,
	}
}

// DefaultPath returns ~/.hub-console/config.yaml
func DefaultPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, configDirName, configFileName)
}

// Load reads the config file at path over the defaults and applies
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if p := os.Getenv("PORT"); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", p, err)
		}
		c.Port = port
	}
	if v := os.Getenv("KUBECONFIG"); v != "" {
		c.Kubeconfig = v
	}
	if v := os.Getenv("KUBE_CONTEXT"); v != "" {
		c.Context = v
	}
	if v := os.Getenv("FRONTEND_URL"); v != "" {
		c.FrontendURL = v
	}
	if v := os.Getenv("CLUSTER_NAMESPACES"); v != "" {
		c.ClusterNamespaces = splitList(v)
	}
	if v := os.Getenv("IMPORT_POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid IMPORT_POLL_INTERVAL %q: %w", v, err)
		}
		c.ImportPollInterval = d
	}
	if v := os.Getenv("IMPORT_POLL_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid IMPORT_POLL_ATTEMPTS %q: %w", v, err)
		}
		c.ImportPollAttempts = n
	}
	return nil
}

// Validate rejects values the server cannot run with
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.ImportPollInterval <= 0 {
		return fmt.Errorf("import poll interval must be positive, got %s", c.ImportPollInterval)
	}
	if c.ImportPollAttempts < 0 {
		return fmt.Errorf("import poll attempts must not be negative, got %d", c.ImportPollAttempts)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
