package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/crimemap/crimemap/internal/model"
)

// YAMLConfig represents the top-level crimemap configuration file. The
// mapstructure tags let viper unmarshal the same keys from flags and
// CRIMEMAP_* environment variables.
type YAMLConfig struct {
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Geocoder GeocoderConfig `yaml:"geocoder" mapstructure:"geocoder"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	MCP      MCPConfig      `yaml:"mcp" mapstructure:"mcp"`
	Logging  LoggingConfig  `yaml:"logging" mapstructure:"logging"`
}

// ServerConfig controls the HTTP server behavior.
type ServerConfig struct {
	Host            string   `yaml:"host" mapstructure:"host"`
	Port            int      `yaml:"port" mapstructure:"port"`
	StaticDir       string   `yaml:"static_dir" mapstructure:"static_dir"`
	CORSOrigins     []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	RateLimit       int      `yaml:"rate_limit" mapstructure:"rate_limit"` // requests/min per IP, 0 = off
	ShutdownTimeout string   `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// DatabaseConfig selects and tunes the incident store.
type DatabaseConfig struct {
	Driver         string         `yaml:"driver" mapstructure:"driver"` // sqlite, postgres, mysql, mssql, snowflake
	DSN            string         `yaml:"dsn" mapstructure:"dsn"`
	Schema         string         `yaml:"schema" mapstructure:"schema"`
	PrivateKeyPath string         `yaml:"private_key_path" mapstructure:"private_key_path"`
	Pool           PoolYAMLConfig `yaml:"pool" mapstructure:"pool"`
}

// PoolYAMLConfig controls the database connection pool.
type PoolYAMLConfig struct {
	MaxOpenConns    int    `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime string `yaml:"conn_max_idle_time" mapstructure:"conn_max_idle_time"`
}

// Resolve converts the pool section into pool settings. Zero or malformed
// fields take the model defaults.
func (p PoolYAMLConfig) Resolve() model.PoolConfig {
	pc := model.DefaultPoolConfig()
	if p.MaxOpenConns > 0 {
		pc.MaxOpenConns = p.MaxOpenConns
	}
	if p.MaxIdleConns > 0 {
		pc.MaxIdleConns = p.MaxIdleConns
	}
	pc.ConnMaxLifetime = Duration(p.ConnMaxLifetime, pc.ConnMaxLifetime)
	pc.ConnMaxIdleTime = Duration(p.ConnMaxIdleTime, pc.ConnMaxIdleTime)
	return pc
}

// GeocoderConfig points at a Nominatim-compatible service.
type GeocoderConfig struct {
	URL       string `yaml:"url" mapstructure:"url"`
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
	Timeout   string `yaml:"timeout" mapstructure:"timeout"`
	City      string `yaml:"city" mapstructure:"city"` // appended to incident blocks before lookup
}

// CacheConfig enables the redis geocode cache when RedisAddr is set.
type CacheConfig struct {
	RedisAddr     string `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string `yaml:"redis_password" mapstructure:"redis_password"`
	RedisDB       int    `yaml:"redis_db" mapstructure:"redis_db"`
	TTL           string `yaml:"ttl" mapstructure:"ttl"`
}

// MCPConfig controls the MCP (Model Context Protocol) server.
type MCPConfig struct {
	Transport string `yaml:"transport" mapstructure:"transport"` // stdio or http
	Addr      string `yaml:"addr" mapstructure:"addr"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Drivers lists the accepted database.driver values.
var Drivers = []string{"sqlite", "postgres", "mysql", "mssql", "snowflake"}

// LoadYAMLConfig reads and parses a YAML configuration file on top of the
// defaults. Environment variables referenced as ${VAR_NAME} in the file are
// expanded before parsing.
func LoadYAMLConfig(path string) (*YAMLConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	content := os.ExpandEnv(string(data))

	cfg := DefaultYAMLConfig()
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// DefaultYAMLConfig returns a YAMLConfig pre-filled with sensible defaults.
func DefaultYAMLConfig() *YAMLConfig {
	return &YAMLConfig{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			CORSOrigins:     []string{"*"},
			ShutdownTimeout: "30s",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "crimemap.db",
			Pool: PoolYAMLConfig{
				MaxOpenConns:    25,
				MaxIdleConns:    5,
				ConnMaxLifetime: "5m",
				ConnMaxIdleTime: "1m",
			},
		},
		Geocoder: GeocoderConfig{
			URL:       "https://nominatim.openstreetmap.org",
			UserAgent: "crimemap/1.0",
			Timeout:   "10s",
			City:      "St. Paul, MN",
		},
		Cache: CacheConfig{
			TTL: "24h",
		},
		MCP: MCPConfig{
			Transport: "stdio",
			Addr:      ":8081",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// WriteDefaultConfig writes the default configuration to a YAML file.
func WriteDefaultConfig(path string) error {
	data, err := yaml.Marshal(DefaultYAMLConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks enumerations, ranges and duration strings.
func (c *YAMLConfig) Validate() error {
	known := false
	for _, d := range Drivers {
		if c.Database.Driver == d {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("%w: database.driver %q (want one of %v)", ErrInvalid, c.Database.Driver, Drivers)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalid, c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("%w: server.rate_limit must not be negative", ErrInvalid)
	}
	switch c.MCP.Transport {
	case "stdio", "http":
	default:
		return fmt.Errorf("%w: mcp.transport %q (want stdio or http)", ErrInvalid, c.MCP.Transport)
	}

	durations := map[string]string{
		"server.shutdown_timeout":          c.Server.ShutdownTimeout,
		"database.pool.conn_max_lifetime":  c.Database.Pool.ConnMaxLifetime,
		"database.pool.conn_max_idle_time": c.Database.Pool.ConnMaxIdleTime,
		"geocoder.timeout":                 c.Geocoder.Timeout,
		"cache.ttl":                        c.Cache.TTL,
	}
	for key, val := range durations {
		if val == "" {
			continue
		}
		if _, err := time.ParseDuration(val); err != nil {
			return fmt.Errorf("%w: %s %q: %v", ErrInvalid, key, val, err)
		}
	}
	return nil
}

// Duration parses s, returning fallback when s is empty or malformed.
// Validate reports malformed values; callers past validation use this.
func Duration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
