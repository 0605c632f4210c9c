package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings holds persistent worker defaults loaded from a config file.
type Settings struct {
	HayabusaBin     string        `yaml:"hayabusa_bin"`
	OutputPath      string        `yaml:"output_path"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	CollisionPolicy string        `yaml:"collision_policy"` // "fail" or "rename"
	HistoryDB       string        `yaml:"history_db"`

	// Broker transport for serve mode
	Redis *RedisConfig `yaml:"redis,omitempty"`

	// Brokerless spool mode
	Spool *SpoolConfig `yaml:"spool,omitempty"`
}

// RedisConfig describes the broker connection for serve mode.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password,omitempty"` // literal or "env:VAR_NAME"
	DB       int    `yaml:"db,omitempty"`
}

// SpoolConfig describes the directory-spool deployment mode.
type SpoolConfig struct {
	Dir      string `yaml:"dir"`
	PollMode bool   `yaml:"poll_mode,omitempty"` // fall back to polling if fsnotify unavailable
}

// LoadSettings reads a YAML config file into Settings.
// If the file does not exist, it returns zero-value Settings and nil error.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Settings{}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return &s, nil
}

// ResolvePassword resolves the configured broker password, reading from the
// environment when the value has the env: prefix.
func (r *RedisConfig) ResolvePassword() string {
	if strings.HasPrefix(r.Password, "env:") {
		return os.Getenv(strings.TrimPrefix(r.Password, "env:"))
	}
	return r.Password
}
