// Package config loads the server configuration file. Every field has a
// usable default so the server can start with no file at all.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr      string `yaml:"listen_addr"`
	DBPath          string `yaml:"db_path"`
	ConfigDir       string `yaml:"config_dir"`
	SchemaDir       string `yaml:"schema_dir"`
	SessionCookie   string `yaml:"session_cookie"`
	EnableAdminHTTP bool   `yaml:"enable_admin_http"`
	WSSendBuffer    int    `yaml:"ws_send_buffer"`
}

func Defaults() Config {
	return Config{
		ListenAddr:      ":8080",
		DBPath:          "./data/emberhollow.db",
		ConfigDir:       "./configs",
		SchemaDir:       "./schemas",
		SessionCookie:   "emberhollow_session",
		EnableAdminHTTP: false,
		WSSendBuffer:    8,
	}
}

// Load reads the YAML config at path, layered over Defaults. An empty
// path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("server.yaml: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("server.yaml: %w", err)
	}
	return cfg, nil
}

func (c *Config) Normalize() {
	if strings.TrimSpace(c.SessionCookie) == "" {
		c.SessionCookie = Defaults().SessionCookie
	}
	if c.WSSendBuffer <= 0 {
		c.WSSendBuffer = Defaults().WSSendBuffer
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ListenAddr) == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("db_path must not be empty")
	}
	if strings.TrimSpace(c.ConfigDir) == "" {
		return fmt.Errorf("config_dir must not be empty")
	}
	if strings.TrimSpace(c.SchemaDir) == "" {
		return fmt.Errorf("schema_dir must not be empty")
	}
	return nil
}
