package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the console configuration. Every field has a default so a
// missing config file is not an error.
type Config struct {
	// Backend connection
	BackendPort    int      `yaml:"backend_port"`
	CandidateHosts []string `yaml:"candidate_hosts"`

	// Backend process (used by the exec bridge)
	BackendBinary string            `yaml:"backend_binary"`
	BackendEnv    map[string]string `yaml:"backend_env"`

	// Supervision timing
	CheckTimeout    time.Duration `yaml:"check_timeout"`
	HealthInterval  time.Duration `yaml:"health_interval"`
	MetricsInterval time.Duration `yaml:"metrics_interval"`
	StartupGrace    time.Duration `yaml:"startup_grace"`
	StartSettle     time.Duration `yaml:"start_settle"`
	RestartSettle   time.Duration `yaml:"restart_settle"`

	// Restart throttling
	MaxStartupAttempts int           `yaml:"max_startup_attempts"`
	StartupCooldown    time.Duration `yaml:"startup_cooldown"`

	// Local status server for the UI shell
	StatusListenAddr string `yaml:"status_listen_addr"`

	// Console state cache
	DataDir string `yaml:"data_dir"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // "console" or "json"
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		BackendPort:        57575,
		CandidateHosts:     []string{"127.0.0.1", "localhost", "0.0.0.0"},
		BackendBinary:      "zkteco-backend",
		BackendEnv:         map[string]string{"LOG_LEVEL": "INFO"},
		CheckTimeout:       5 * time.Second,
		HealthInterval:     30 * time.Second,
		MetricsInterval:    5 * time.Second,
		StartupGrace:       2 * time.Second,
		StartSettle:        5 * time.Second,
		RestartSettle:      3 * time.Second,
		MaxStartupAttempts: 3,
		StartupCooldown:    30 * time.Second,
		StatusListenAddr:   "127.0.0.1:57580",
		DataDir:            defaultDataDir(),
		LogLevel:           "info",
		LogFormat:          "console",
	}
}

// Load reads the config file at path, overlaying it on the defaults. A
// missing file returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for values the supervisor cannot work with
func (c *Config) Validate() error {
	if c.BackendPort <= 0 || c.BackendPort > 65535 {
		return fmt.Errorf("backend_port must be in 1-65535, got %d", c.BackendPort)
	}
	if len(c.CandidateHosts) == 0 {
		return fmt.Errorf("candidate_hosts must not be empty")
	}
	if c.MaxStartupAttempts < 1 {
		return fmt.Errorf("max_startup_attempts must be at least 1, got %d", c.MaxStartupAttempts)
	}
	if c.CheckTimeout <= 0 {
		return fmt.Errorf("check_timeout must be positive")
	}
	return nil
}

func defaultDataDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "./zkconsole-data"
	}
	return dir + "/zkconsole"
}
