// Package config handles Argus configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/argusproj/argus/internal/unified"
)

// Config is the root configuration for Argus.
type Config struct {
	Backends []BackendConfig `yaml:"backends"`
	Poll     PollConfig      `yaml:"poll"`
	Control  ControlConfig   `yaml:"control"`
	Missions MissionsConfig  `yaml:"missions"`
	Daemon   DaemonConfig    `yaml:"daemon"`
}

// BackendConfig describes one remote agent-control backend. Order in the
// config file is registry order: lanes and merged fetch results preserve it.
type BackendConfig struct {
	Kind      unified.Backend `yaml:"kind"`
	Name      string          `yaml:"name"`
	StatusURL string          `yaml:"status_url"`
	Token     string          `yaml:"token"`
	JWTSecret string          `yaml:"jwt_secret"` // if set, a short-lived HS256 token is minted instead of Token
	Timeout   time.Duration   `yaml:"timeout"`
}

// PollConfig drives the reconciliation loop.
type PollConfig struct {
	Interval   time.Duration `yaml:"interval"`
	MoveBuffer int           `yaml:"move_buffer"` // transition ring-buffer capacity
}

// ControlConfig points at the shared control-command endpoint.
type ControlConfig struct {
	CommandURL string        `yaml:"command_url"`
	Token      string        `yaml:"token"`
	Timeout    time.Duration `yaml:"timeout"`
}

// MissionsConfig points at the mission-creation endpoint.
type MissionsConfig struct {
	CreateURL string        `yaml:"create_url"`
	Token     string        `yaml:"token"`
	Timeout   time.Duration `yaml:"timeout"`
}

// DaemonConfig defines argusd settings.
type DaemonConfig struct {
	Socket    string `yaml:"socket"`
	Database  string `yaml:"database"`
	LogFile   string `yaml:"log_file"`
	LogLevel  string `yaml:"log_level"`
	SentryDSN string `yaml:"sentry_dsn"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Backends: []BackendConfig{
			{Kind: unified.BackendClaude, Name: "Claude", StatusURL: "http://localhost:8310/api/agents", Timeout: 4 * time.Second},
			{Kind: unified.BackendCodex, Name: "Codex", StatusURL: "http://localhost:8311/api/sessions", Timeout: 4 * time.Second},
			{Kind: unified.BackendGemini, Name: "Gemini", StatusURL: "http://localhost:8312/v1/workers", Timeout: 4 * time.Second},
			{Kind: unified.BackendOpencode, Name: "OpenCode", StatusURL: "http://localhost:8313/agents", Timeout: 4 * time.Second},
		},
		Poll: PollConfig{
			Interval:   5 * time.Second,
			MoveBuffer: 64,
		},
		Control: ControlConfig{
			CommandURL: "http://localhost:8300/api/agent-control",
			Timeout:    4 * time.Second,
		},
		Missions: MissionsConfig{
			CreateURL: "http://localhost:8300/api/missions",
			Timeout:   6 * time.Second,
		},
		Daemon: DaemonConfig{
			Socket:   "/tmp/argus.sock",
			Database: filepath.Join(homeDir, ".local/share/argus/argus.db"),
			LogFile:  filepath.Join(homeDir, ".local/share/argus/argus.log"),
			LogLevel: "info",
		},
	}
}

// Load reads configuration from the default path or returns defaults.
func Load() (*Config, error) {
	configPath := DefaultConfigPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	cfg.expandEnvVars()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	if p := os.Getenv("ARGUS_CONFIG"); p != "" {
		return p
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config/argus/config.yaml")
}

// Validate rejects configs the daemon cannot run with.
func (c *Config) Validate() error {
	if len(c.Backends) == 0 {
		return fmt.Errorf("config: at least one backend is required")
	}
	seen := make(map[unified.Backend]bool, len(c.Backends))
	for _, b := range c.Backends {
		if b.Kind == "" {
			return fmt.Errorf("config: backend %q is missing a kind", b.Name)
		}
		if seen[b.Kind] {
			return fmt.Errorf("config: duplicate backend kind %q", b.Kind)
		}
		seen[b.Kind] = true
		if b.StatusURL == "" {
			return fmt.Errorf("config: backend %q is missing status_url", b.Kind)
		}
	}
	if c.Poll.Interval <= 0 {
		return fmt.Errorf("config: poll interval must be positive")
	}
	return nil
}

// Kinds returns the configured backend kinds in registry order.
func (c *Config) Kinds() []unified.Backend {
	kinds := make([]unified.Backend, 0, len(c.Backends))
	for _, b := range c.Backends {
		kinds = append(kinds, b.Kind)
	}
	return kinds
}

func (c *Config) applyDefaults() {
	for i := range c.Backends {
		if c.Backends[i].Timeout <= 0 {
			c.Backends[i].Timeout = 4 * time.Second
		}
		if c.Backends[i].Name == "" {
			c.Backends[i].Name = string(c.Backends[i].Kind)
		}
	}
	if c.Poll.MoveBuffer <= 0 {
		c.Poll.MoveBuffer = 64
	}
	if c.Control.Timeout <= 0 {
		c.Control.Timeout = 4 * time.Second
	}
	if c.Missions.Timeout <= 0 {
		c.Missions.Timeout = 6 * time.Second
	}
}

func (c *Config) expandEnvVars() {
	for i := range c.Backends {
		c.Backends[i].Token = os.ExpandEnv(c.Backends[i].Token)
		c.Backends[i].JWTSecret = os.ExpandEnv(c.Backends[i].JWTSecret)
	}
	c.Control.Token = os.ExpandEnv(c.Control.Token)
	c.Missions.Token = os.ExpandEnv(c.Missions.Token)
	c.Daemon.SentryDSN = os.ExpandEnv(c.Daemon.SentryDSN)
}
