package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the netdvr server configuration.
type Config struct {
	Listen       string          `yaml:"listen"`
	DataDir      string          `yaml:"data_dir"`
	PollInterval time.Duration   `yaml:"poll_interval"`
	Retention    time.Duration   `yaml:"download_retention"`
	Log          LogConfig       `yaml:"log"`
	CORS         CORSConfig      `yaml:"cors"`
	Simulator    SimulatorConfig `yaml:"simulator"`
}

type LogConfig struct {
	Level string      `yaml:"level"`
	Debug DebugConfig `yaml:"debug"`
}

// DebugConfig enables debug output per subsystem.
type DebugConfig struct {
	SDK      bool `yaml:"sdk"`
	Session  bool `yaml:"session"`
	Download bool `yaml:"download"`
	HTTP     bool `yaml:"http"`
}

type CORSConfig struct {
	Origins []string `yaml:"origins"`
}

// SimulatorConfig serves a simulated recorder instead of using the
// vendor SDK.
type SimulatorConfig struct {
	Enable   bool   `yaml:"enable"`
	Host     string `yaml:"host"`
	Port     uint16 `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

func Default() *Config {
	return &Config{
		Listen:       ":3000",
		DataDir:      ".",
		PollInterval: 500 * time.Millisecond,
		Retention:    10 * time.Minute,
		Log: LogConfig{
			Level: "info",
		},
		CORS: CORSConfig{
			Origins: []string{"*"},
		},
		Simulator: SimulatorConfig{
			Host:     "127.0.0.1",
			Port:     8000,
			User:     "admin",
			Password: "admin12345",
		},
	}
}

// Load reads filename over the defaults. An empty filename yields the
// defaults. Environment overrides apply in both cases.
func Load(filename string) (*Config, error) {
	cfg := Default()
	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := Parse(data, cfg); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML data into cfg, keeping fields the data omits.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("NETDVR_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("NETDVR_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("NETDVR_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("config: listen address is empty")
	}
	if c.DataDir == "" {
		return fmt.Errorf("config: data_dir is empty")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("config: poll_interval must be positive, got %v", c.PollInterval)
	}
	if c.Retention <= 0 {
		return fmt.Errorf("config: download_retention must be positive, got %v", c.Retention)
	}
	if c.Simulator.Enable && c.Simulator.Port == 0 {
		return fmt.Errorf("config: simulator port is 0")
	}
	return nil
}
