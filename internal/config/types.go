package config

import (
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete planview configuration.
type Config struct {
	Include []string      `yaml:"include,omitempty"`
	Service ServiceConfig `yaml:"service"`
	State   StateConfig   `yaml:"state"`
	API     APIConfig     `yaml:"api,omitempty"`
	Export  ExportConfig  `yaml:"export"`

	// SourceFiles holds the parsed YAML of every loaded file, keyed by
	// absolute path. Used by SetPath to edit the owning file in place.
	SourceFiles map[string]*yaml.Node `yaml:"-"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name     string `yaml:"name"`
	LogLevel string `yaml:"log_level"`
}

// StateConfig defines state storage settings.
type StateConfig struct {
	Path string `yaml:"path"`
}

// APIConfig defines HTTP API server settings.
type APIConfig struct {
	Listen string        `yaml:"listen"`
	Auth   APIAuthConfig `yaml:"auth"`
}

// APIAuthConfig defines API authentication settings.
type APIAuthConfig struct {
	// APIKey is a single bearer token with full access.
	// Prefer Tokens for scoped access.
	APIKey string     `yaml:"api_key"`
	Tokens []APIToken `yaml:"tokens,omitempty"`
}

// APIToken defines a bearer token and its scopes.
type APIToken struct {
	Token  string   `yaml:"token"`
	Scopes []string `yaml:"scopes"`
}

// ExportConfig controls where HTML exports are written and how long they live.
type ExportConfig struct {
	Dir      string `yaml:"dir"`
	BaseURL  string `yaml:"base_url"`
	Template string `yaml:"template,omitempty"` // empty selects the embedded page

	// Retention is the idle time before a published export is deleted.
	Retention time.Duration `yaml:"retention"`

	// SweepInterval drives the janitor loop. SweepAfter is the minimum age
	// of an untracked file before the janitor removes it.
	SweepInterval time.Duration `yaml:"sweep_interval"`
	SweepAfter    time.Duration `yaml:"sweep_after"`

	MaxConcurrentDeletes int `yaml:"max_concurrent_deletes"`
}

// ChecksumManifest is the on-disk format of .checksums.
type ChecksumManifest struct {
	Version     int               `yaml:"version"`
	GeneratedAt string            `yaml:"generated_at"`
	Hashes      map[string]string `yaml:"hashes"`
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:     "planview",
			LogLevel: "info",
		},
		State: StateConfig{
			Path: "./data/planview.db",
		},
		API: APIConfig{
			Listen: "127.0.0.1:8080",
		},
		Export: ExportConfig{
			Dir:                  "./data/exports",
			BaseURL:              "http://127.0.0.1:8080/exports/",
			Retention:            15 * time.Minute,
			SweepInterval:        5 * time.Minute,
			SweepAfter:           time.Hour,
			MaxConcurrentDeletes: 4,
		},
	}
}
