package config

import (
	"fmt"
	"regexp"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Audit   AuditConfig   `mapstructure:"audit"`
	Sandbox SandboxConfig `mapstructure:"sandbox"`
	Backend BackendConfig `mapstructure:"backend"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Transport string `mapstructure:"transport"`
	HTTPPort  int    `mapstructure:"http_port"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Mode  string `mapstructure:"mode"`
	Level string `mapstructure:"level"`
}

// AuthConfig holds the fixed credential set. Possession of any listed key
// is binary authorization; there is no expiry and no per-key scoping.
type AuthConfig struct {
	APIKeys []string `mapstructure:"api_keys"`
}

// AuditConfig holds the audit-trail configuration for destructive tools.
// An empty path disables the file sink; entries still go to the logger.
type AuditConfig struct {
	Path string `mapstructure:"path"`
}

// SandboxConfig holds the allow/block lists that gate every operation
type SandboxConfig struct {
	AllowedPaths      []string          `mapstructure:"allowed_paths"`
	BlockedPatterns   []string          `mapstructure:"blocked_patterns"`
	AllowedServices   []string          `mapstructure:"allowed_services"`
	Repos             map[string]string `mapstructure:"repos"`
	ServiceRepos      map[string]string `mapstructure:"service_repos"`
	CommandPrefixes   []string          `mapstructure:"command_prefixes"`
	ComposeDir        string            `mapstructure:"compose_dir"`
	DefaultTimeoutSec int               `mapstructure:"default_timeout_sec"`
	BuildTimeoutSec   int               `mapstructure:"build_timeout_sec"`
}

// BackendConfig holds the internal services the gateway proxies to
type BackendConfig struct {
	BaseURL      string   `mapstructure:"base_url"`
	QueryService string   `mapstructure:"query_service"`
	QueryRunner  []string `mapstructure:"query_runner"`
}

// New loads and validates the application configuration
func New() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set default values
	viper.SetDefault("server.transport", "http")
	viper.SetDefault("server.http_port", 8002)
	viper.SetDefault("logging.mode", "production")
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("auth.api_keys", []string{})
	viper.SetDefault("audit.path", "")

	viper.SetDefault("sandbox.allowed_paths", []string{
		"/opt/opsgate",
		"/app",
		"/var/log",
		"/tmp",
	})
	viper.SetDefault("sandbox.blocked_patterns", []string{
		`\.env$`,
		`\.env\.local$`,
		`credentials`,
		`secrets`,
		`\.pem$`,
		`\.key$`,
		`password`,
		`\.ssh`,
	})
	viper.SetDefault("sandbox.allowed_services", []string{
		"frontend", "apis", "worker-main", "worker-sources",
		"neo4j", "nginx", "qdrant", "mcp-server",
	})
	viper.SetDefault("sandbox.repos", map[string]string{
		"frontend": "/opt/opsgate/frontend",
		"backend":  "/opt/opsgate/backend",
		"workers":  "/opt/opsgate/workers",
	})
	viper.SetDefault("sandbox.service_repos", map[string]string{
		"frontend":       "frontend",
		"apis":           "backend",
		"worker-main":    "workers",
		"worker-sources": "workers",
	})
	viper.SetDefault("sandbox.command_prefixes", []string{
		"docker ps",
		"docker logs",
		"docker inspect",
		"docker stats --no-stream",
		"df -h",
		"free",
		"uptime",
		"ps aux",
		"netstat -tlnp",
		"ls ",
		"cat /proc/",
		"wc -l",
		"head ",
		"tail ",
	})
	viper.SetDefault("sandbox.compose_dir", "/opt/opsgate/deploy")
	viper.SetDefault("sandbox.default_timeout_sec", 30)
	viper.SetDefault("sandbox.build_timeout_sec", 600)

	viper.SetDefault("backend.base_url", "http://apis:8000")
	viper.SetDefault("backend.query_service", "apis")
	viper.SetDefault("backend.query_runner", []string{
		"docker", "exec", "-w", "/app/workers", "apis",
		"python", "-m", "graph.query_runner",
	})

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// If config file not found, continue with defaults
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

// validate ensures the configuration is valid
func (c *Config) validate() error {
	if c.Server.Transport != "stdio" && c.Server.Transport != "http" {
		return fmt.Errorf("invalid server.transport: %s, must be 'stdio' or 'http'", c.Server.Transport)
	}

	if c.Logging.Mode != "production" && c.Logging.Mode != "development" {
		return fmt.Errorf("invalid logging.mode: %s, must be 'production' or 'development'", c.Logging.Mode)
	}

	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging.level: %s", c.Logging.Level)
	}

	if len(c.Auth.APIKeys) == 0 {
		return fmt.Errorf("auth.api_keys must list at least one key")
	}

	if len(c.Sandbox.AllowedPaths) == 0 {
		return fmt.Errorf("sandbox.allowed_paths must list at least one directory")
	}

	for _, pattern := range c.Sandbox.BlockedPatterns {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("invalid sandbox.blocked_patterns entry %q: %w", pattern, err)
		}
	}

	if c.Sandbox.DefaultTimeoutSec <= 0 {
		return fmt.Errorf("sandbox.default_timeout_sec must be positive, got: %d", c.Sandbox.DefaultTimeoutSec)
	}

	if c.Sandbox.BuildTimeoutSec <= 0 {
		return fmt.Errorf("sandbox.build_timeout_sec must be positive, got: %d", c.Sandbox.BuildTimeoutSec)
	}

	for service, repo := range c.Sandbox.ServiceRepos {
		if _, ok := c.Sandbox.Repos[repo]; !ok {
			return fmt.Errorf("sandbox.service_repos maps %s to unknown repo %s", service, repo)
		}
	}

	if len(c.Backend.QueryRunner) == 0 {
		return fmt.Errorf("backend.query_runner must not be empty")
	}

	return nil
}

// ServiceAllowed reports whether name is one of the managed services
func (c *Config) ServiceAllowed(name string) bool {
	for _, s := range c.Sandbox.AllowedServices {
		if s == name {
			return true
		}
	}
	return false
}

// RepoPath returns the filesystem path of a named repository
func (c *Config) RepoPath(name string) (string, bool) {
	path, ok := c.Sandbox.Repos[name]
	return path, ok
}

// GetDefaultTimeout returns the default per-command timeout as a duration
func (c *Config) GetDefaultTimeout() time.Duration {
	return time.Duration(c.Sandbox.DefaultTimeoutSec) * time.Second
}

// GetBuildTimeout returns the build/deploy timeout as a duration
func (c *Config) GetBuildTimeout() time.Duration {
	return time.Duration(c.Sandbox.BuildTimeoutSec) * time.Second
}
