// Package config loads server configuration from an optional YAML file
// with environment overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Mode is "tcp" or "uds".
	Mode       string `yaml:"mode"`
	Port       string `yaml:"port"`
	SocketPath string `yaml:"socket_path"`
	DBPath     string `yaml:"db_path"`
	AuthSecret string `yaml:"auth_secret"`
}

func defaults() Config {
	return Config{
		Mode:   "tcp",
		Port:   "8080",
		DBPath: "echoline.db",
	}
}

// Load reads the YAML file at path (skipped when path is empty or the file
// does not exist), then applies env overrides.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Config file is optional.
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	applyEnv(&cfg)

	if cfg.AuthSecret == "" {
		return cfg, fmt.Errorf("auth secret is required (AUTH_SECRET or auth_secret)")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SERVER_MODE"); v != "" {
		cfg.Mode = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("SERVER_SOCKET_PATH"); v != "" {
		cfg.SocketPath = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("AUTH_SECRET"); v != "" {
		cfg.AuthSecret = v
	}
}
