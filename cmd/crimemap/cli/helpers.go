package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/crimemap/crimemap/internal/config"
	"github.com/crimemap/crimemap/internal/connector"
	"github.com/crimemap/crimemap/internal/connector/mssql"
	"github.com/crimemap/crimemap/internal/connector/mysql"
	"github.com/crimemap/crimemap/internal/connector/postgres"
	"github.com/crimemap/crimemap/internal/connector/snowflake"
	"github.com/crimemap/crimemap/internal/connector/sqlite"
	"github.com/crimemap/crimemap/internal/geocode"
	"github.com/crimemap/crimemap/internal/store"
)

// storeName is the registry key of the incident database.
const storeName = "crimemap"

// newRegistry creates a connector registry with all supported database drivers registered.
func newRegistry() *connector.Registry {
	registry := connector.NewRegistry()
	registry.RegisterDriver("postgres", func() connector.Connector { return postgres.New() })
	registry.RegisterDriver("mysql", func() connector.Connector { return mysql.New() })
	registry.RegisterDriver("mssql", func() connector.Connector { return mssql.New() })
	registry.RegisterDriver("snowflake", func() connector.Connector { return snowflake.New() })
	registry.RegisterDriver("sqlite", func() connector.Connector { return sqlite.New() })
	return registry
}

// newLogger builds the process logger from the logging section. dev forces
// debug level.
func newLogger(w io.Writer, cfg config.LoggingConfig, dev bool) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	if dev {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// connectionConfig maps the database section onto connector settings.
func connectionConfig(db config.DatabaseConfig) connector.ConnectionConfig {
	pool := db.Pool.Resolve()
	return connector.ConnectionConfig{
		Driver:          db.Driver,
		DSN:             db.DSN,
		SchemaName:      db.Schema,
		PrivateKeyPath:  db.PrivateKeyPath,
		MaxOpenConns:    pool.MaxOpenConns,
		MaxIdleConns:    pool.MaxIdleConns,
		ConnMaxLifetime: pool.ConnMaxLifetime,
		ConnMaxIdleTime: pool.ConnMaxIdleTime,
	}
}

// openStore connects the configured database. The returned registry owns
// the connection; callers close it with CloseAll.
func openStore(cfg *config.YAMLConfig, logger *slog.Logger) (*store.Store, *connector.Registry, error) {
	registry := newRegistry()
	conn, err := registry.Connect(storeName, connectionConfig(cfg.Database))
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	logger.Info("connected database", "driver", cfg.Database.Driver)
	return store.New(conn, logger), registry, nil
}

// newGeocoder builds the Nominatim client, wrapped in the redis cache when
// cache.redis_addr is set. The returned func releases the redis client.
func newGeocoder(cfg *config.YAMLConfig, logger *slog.Logger) (geocode.Geocoder, func()) {
	nom := geocode.NewNominatim(geocode.NominatimConfig{
		BaseURL:   cfg.Geocoder.URL,
		UserAgent: cfg.Geocoder.UserAgent,
		Timeout:   config.Duration(cfg.Geocoder.Timeout, 10*time.Second),
	}, logger)

	rdb := geocode.OpenRedis(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
	if rdb == nil {
		return nom, func() {}
	}
	logger.Debug("geocode cache enabled", "addr", cfg.Cache.RedisAddr)
	cached := geocode.NewCached(nom, geocode.NewRedisCache(rdb), config.Duration(cfg.Cache.TTL, 24*time.Hour), logger)
	return cached, func() { rdb.Close() }
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}
