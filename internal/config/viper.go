package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides: database.dsn is read from
// CRIMEMAP_DATABASE_DSN.
const EnvPrefix = "CRIMEMAP"

// BindViper registers every default as a viper default and enables
// environment overrides, so keys absent from the config file still resolve
// from CRIMEMAP_* variables.
func BindViper(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := DefaultYAMLConfig()
	defaults := map[string]interface{}{
		"server.host":                      d.Server.Host,
		"server.port":                      d.Server.Port,
		"server.static_dir":                d.Server.StaticDir,
		"server.cors_origins":              d.Server.CORSOrigins,
		"server.rate_limit":                d.Server.RateLimit,
		"server.shutdown_timeout":          d.Server.ShutdownTimeout,
		"database.driver":                  d.Database.Driver,
		"database.dsn":                     d.Database.DSN,
		"database.schema":                  d.Database.Schema,
		"database.private_key_path":        d.Database.PrivateKeyPath,
		"database.pool.max_open_conns":     d.Database.Pool.MaxOpenConns,
		"database.pool.max_idle_conns":     d.Database.Pool.MaxIdleConns,
		"database.pool.conn_max_lifetime":  d.Database.Pool.ConnMaxLifetime,
		"database.pool.conn_max_idle_time": d.Database.Pool.ConnMaxIdleTime,
		"geocoder.url":                     d.Geocoder.URL,
		"geocoder.user_agent":              d.Geocoder.UserAgent,
		"geocoder.timeout":                 d.Geocoder.Timeout,
		"geocoder.city":                    d.Geocoder.City,
		"cache.redis_addr":                 d.Cache.RedisAddr,
		"cache.redis_password":             d.Cache.RedisPassword,
		"cache.redis_db":                   d.Cache.RedisDB,
		"cache.ttl":                        d.Cache.TTL,
		"mcp.transport":                    d.MCP.Transport,
		"mcp.addr":                         d.MCP.Addr,
		"logging.level":                    d.Logging.Level,
		"logging.format":                   d.Logging.Format,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

// FromViper unmarshals the resolved configuration and validates it.
func FromViper(v *viper.Viper) (*YAMLConfig, error) {
	cfg := DefaultYAMLConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
