// Package config provides configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/artpar/confsync/domain/auth"
)

// Config is the root configuration structure.
type Config struct {
	Role      string          `yaml:"role"` // "authority" or "replica"
	Server    ServerConfig    `yaml:"server"`
	Authority AuthorityConfig `yaml:"authority"`
	Modules   ModulesConfig   `yaml:"modules"`
	Auth      AuthConfig      `yaml:"auth"`
	Queue     QueueConfig     `yaml:"queue"`
	Audit     AuditConfig     `yaml:"audit"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig configures the authority's HTTP server.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// OpenAPI serves the API description and Swagger UI under /swagger.
	OpenAPI bool `yaml:"openapi"`
}

// AuthorityConfig tells a replica where its authority lives.
type AuthorityConfig struct {
	URL     string        `yaml:"url"`
	Token   string        `yaml:"token,omitempty"` // raw bearer token
	Timeout time.Duration `yaml:"timeout"`
}

// ModulesConfig lists the directories holding module declarations.
type ModulesConfig struct {
	Dirs []string `yaml:"dirs"`
}

// AuthConfig configures actors and privilege checks.
type AuthConfig struct {
	RequiredLevel int           `yaml:"required_level"`
	BcryptCost    int           `yaml:"bcrypt_cost"`
	Actors        []ActorConfig `yaml:"actors"`
}

// ActorConfig declares one actor allowed to talk to the authority.
type ActorConfig struct {
	Name      string `yaml:"name"`
	TokenHash string `yaml:"token_hash"` // bcrypt hash, see "confsync token"
	Level     int    `yaml:"level"`
}

// Actor converts the declaration to a domain actor.
func (a ActorConfig) Actor() auth.Actor {
	return auth.Actor{Name: a.Name, TokenHash: []byte(a.TokenHash), Level: a.Level}
}

// ActorList converts every declared actor.
func (c AuthConfig) ActorList() []auth.Actor {
	actors := make([]auth.Actor, len(c.Actors))
	for i, a := range c.Actors {
		actors[i] = a.Actor()
	}
	return actors
}

// QueueConfig configures the sync queue.
type QueueConfig struct {
	Size int `yaml:"size"`
}

// AuditConfig configures the sync audit log.
type AuditConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Driver    string        `yaml:"driver"` // "sqlite" or "memory"
	DSN       string        `yaml:"dsn"`
	Retention time.Duration `yaml:"retention"` // 0 keeps everything
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // Enable /metrics endpoint
	Path    string `yaml:"path"`    // Custom path (default: /metrics)
}

// IsReplica reports whether the process runs the replica side.
func (c *Config) IsReplica() bool {
	return strings.EqualFold(c.Role, "replica")
}

// Addr returns the server listen address.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse reads configuration from YAML bytes.
func Parse(data []byte) (*Config, error) {
	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(&cfg)

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
//
// Environment variables:
//
//	CONFSYNC_ROLE               - authority or replica (default: authority)
//	CONFSYNC_SERVER_HOST        - Server host (default: 0.0.0.0)
//	CONFSYNC_SERVER_PORT        - Server port (default: 7700)
//	CONFSYNC_SERVER_OPENAPI     - Serve Swagger UI at /swagger (default: false)
//	CONFSYNC_AUTHORITY_URL      - Authority base URL (replica)
//	CONFSYNC_AUTHORITY_TOKEN    - Bearer token sent to the authority (replica)
//	CONFSYNC_MODULES_DIRS       - Comma separated module directories
//	CONFSYNC_AUTH_REQUIRED_LEVEL - Privilege level for writes (default: 2)
//	CONFSYNC_AUDIT_ENABLED      - Record handled operations (default: false)
//	CONFSYNC_AUDIT_DSN          - SQLite path (default: confsync-audit.db)
//	CONFSYNC_LOG_LEVEL          - Log level: debug, info, warn, error (default: info)
//	CONFSYNC_LOG_FORMAT         - Log format: json or console (default: json)
//	CONFSYNC_METRICS_ENABLED    - Enable /metrics endpoint
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback loads path when it exists and falls back to the
// environment otherwise.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	if !HasEnvConfig() {
		return nil, errors.New("no configuration found: provide a config file or set CONFSYNC_MODULES_DIRS or CONFSYNC_AUTHORITY_URL")
	}
	return LoadFromEnv()
}

// HasEnvConfig returns true if essential environment variables are set.
func HasEnvConfig() bool {
	return os.Getenv("CONFSYNC_MODULES_DIRS") != "" || os.Getenv("CONFSYNC_AUTHORITY_URL") != ""
}

// applyEnvOverrides applies CONFSYNC_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CONFSYNC_ROLE"); v != "" {
		cfg.Role = v
	}

	// Server configuration
	if v := os.Getenv("CONFSYNC_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("CONFSYNC_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("CONFSYNC_SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv("CONFSYNC_SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if v := os.Getenv("CONFSYNC_SERVER_OPENAPI"); v != "" {
		cfg.Server.OpenAPI = parseBool(v)
	}

	// Authority link
	if v := os.Getenv("CONFSYNC_AUTHORITY_URL"); v != "" {
		cfg.Authority.URL = v
	}
	if v := os.Getenv("CONFSYNC_AUTHORITY_TOKEN"); v != "" {
		cfg.Authority.Token = v
	}
	if v := os.Getenv("CONFSYNC_AUTHORITY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Authority.Timeout = d
		}
	}

	if v := os.Getenv("CONFSYNC_MODULES_DIRS"); v != "" {
		cfg.Modules.Dirs = splitList(v)
	}

	if v := os.Getenv("CONFSYNC_AUTH_REQUIRED_LEVEL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Auth.RequiredLevel = n
		}
	}

	// Audit configuration
	if v := os.Getenv("CONFSYNC_AUDIT_ENABLED"); v != "" {
		cfg.Audit.Enabled = parseBool(v)
	}
	if v := os.Getenv("CONFSYNC_AUDIT_DRIVER"); v != "" {
		cfg.Audit.Driver = v
	}
	if v := os.Getenv("CONFSYNC_AUDIT_DSN"); v != "" {
		cfg.Audit.DSN = v
	}

	// Logging configuration
	if v := os.Getenv("CONFSYNC_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CONFSYNC_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	// Metrics configuration
	if v := os.Getenv("CONFSYNC_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("CONFSYNC_METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func setDefaults(cfg *Config) {
	if cfg.Role == "" {
		cfg.Role = "authority"
	}
	cfg.Role = strings.ToLower(cfg.Role)

	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 7700
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 30 * time.Second
	}

	if cfg.Authority.Timeout == 0 {
		cfg.Authority.Timeout = 10 * time.Second
	}

	if cfg.Auth.RequiredLevel == 0 {
		cfg.Auth.RequiredLevel = 2
	}
	if cfg.Auth.BcryptCost == 0 {
		cfg.Auth.BcryptCost = 10
	}

	if cfg.Queue.Size == 0 {
		cfg.Queue.Size = 64
	}

	if cfg.Audit.Driver == "" {
		cfg.Audit.Driver = "sqlite"
	}
	if cfg.Audit.DSN == "" {
		cfg.Audit.DSN = "confsync-audit.db"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func validate(cfg *Config) error {
	switch cfg.Role {
	case "authority":
		if len(cfg.Modules.Dirs) == 0 {
			return fmt.Errorf("modules.dirs is required for the authority")
		}
	case "replica":
		if cfg.Authority.URL == "" {
			return fmt.Errorf("authority.url is required for a replica")
		}
		u, err := url.Parse(cfg.Authority.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("authority.url must be an http(s) URL, got %q", cfg.Authority.URL)
		}
	default:
		return fmt.Errorf("role must be 'authority' or 'replica', got %q", cfg.Role)
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}

	if cfg.Auth.RequiredLevel < 0 {
		return fmt.Errorf("auth.required_level must not be negative")
	}
	if cfg.Auth.BcryptCost < 4 || cfg.Auth.BcryptCost > 31 {
		return fmt.Errorf("auth.bcrypt_cost must be between 4 and 31, got %d", cfg.Auth.BcryptCost)
	}
	for i, a := range cfg.Auth.Actors {
		if !strings.HasPrefix(a.TokenHash, "$2") {
			return fmt.Errorf("auth.actors[%d].token_hash must be a bcrypt hash", i)
		}
	}
	if err := auth.ValidateActors(cfg.Auth.ActorList()); err != nil {
		return fmt.Errorf("auth.actors: %w", err)
	}

	if cfg.Queue.Size < 1 {
		return fmt.Errorf("queue.size must be positive, got %d", cfg.Queue.Size)
	}

	validDrivers := map[string]bool{"sqlite": true, "memory": true}
	if !validDrivers[cfg.Audit.Driver] {
		return fmt.Errorf("audit.driver must be 'sqlite' or 'memory', got %q", cfg.Audit.Driver)
	}
	if cfg.Audit.Retention < 0 {
		return fmt.Errorf("audit.retention must not be negative")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/'")
	}

	return nil
}
