// Package config loads the configuration of the sqlfs command.
//
// Values are layered, highest precedence first: explicitly set flags,
// SQLFS_* environment variables, the configuration file (./sqlfs.yaml
// unless given) and the defaults.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/syssam/sqlfs/migrate"
)

// Default values.
const (
	DefaultDialect         = "postgis"
	DefaultMigrationsDir   = "migrations"
	DefaultMigrationFormat = migrate.FormatAtlas
	EnvPrefix              = "SQLFS_"
)

// Dialects lists the dialect names accepted by the "dialect" key.
var Dialects = []string{"postgis", "oracle", "mssql", "mysql", "sqlite"}

// Config holds the command configuration.
type Config struct {
	Mapping         string `koanf:"mapping"`
	Dialect         string `koanf:"dialect"`
	DSN             string `koanf:"dsn"`
	TestSQL         string `koanf:"test_sql"`
	MigrationsDir   string `koanf:"migrations_dir"`
	MigrationFormat string `koanf:"migration_format"`
	NullEscalation  bool   `koanf:"null_escalation"`
	CacheSize       int    `koanf:"cache_size"`
	Verbose         bool   `koanf:"verbose"`
}

func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"sqlfs.yaml", "sqlfs.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load loads the configuration from cfgFile (or the default file, if it
// exists), the environment and the flags that were explicitly set.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(map[string]any{
		"dialect":          DefaultDialect,
		"migrations_dir":   DefaultMigrationsDir,
		"migration_format": DefaultMigrationFormat,
		"null_escalation":  true,
		"cache_size":       0,
		"verbose":          false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if path := findConfigFile(cfgFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}
	// SQLFS_MIGRATIONS_DIR -> migrations_dir
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Dialect == "mysql" && cfg.DSN != "" {
		dsn, err := NormalizeMySQLDSN(cfg.DSN)
		if err != nil {
			return nil, err
		}
		cfg.DSN = dsn
	}
	return &cfg, nil
}

// Validate checks the dialect and migration format names.
func (c *Config) Validate() error {
	if !slices.Contains(Dialects, c.Dialect) {
		return fmt.Errorf("invalid dialect %q, expected one of %s", c.Dialect, strings.Join(Dialects, ", "))
	}
	if !slices.Contains(migrate.Formats, c.MigrationFormat) {
		return fmt.Errorf("invalid migration format %q, expected one of %s", c.MigrationFormat, strings.Join(migrate.Formats, ", "))
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("invalid cache size %d", c.CacheSize)
	}
	return nil
}

// NormalizeMySQLDSN makes a MySQL DSN scan temporal columns as time.Time
// and reject multi-statement queries.
func NormalizeMySQLDSN(dsn string) (string, error) {
	c, err := mysqldrv.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid mysql dsn: %w", err)
	}
	c.ParseTime = true
	c.MultiStatements = false
	return c.FormatDSN(), nil
}

// loggerKey is used to store the logger in a context.
type loggerKey struct{}

// WithLogger returns a copy of ctx carrying l.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// GetLogger retrieves the logger from a command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// configKey is used to store the configuration in a context.
type configKey struct{}

// WithConfig returns a copy of ctx carrying cfg.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext returns the configuration stored in ctx, or nil.
func FromContext(ctx context.Context) *Config {
	cfg, _ := ctx.Value(configKey{}).(*Config)
	return cfg
}
