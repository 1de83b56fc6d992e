package cli

import (
	"context"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/syssam/sqlfs"
	"github.com/syssam/sqlfs/dialect"
	"github.com/syssam/sqlfs/dialect/mssql"
	"github.com/syssam/sqlfs/dialect/mysql"
	"github.com/syssam/sqlfs/dialect/oracle"
	"github.com/syssam/sqlfs/dialect/postgis"
	"github.com/syssam/sqlfs/dialect/sql"
	sqlschema "github.com/syssam/sqlfs/dialect/sql/schema"
	"github.com/syssam/sqlfs/dialect/sqlite"
	"github.com/syssam/sqlfs/internal/cli/config"
	"github.com/syssam/sqlfs/mapping"
	mappingconfig "github.com/syssam/sqlfs/mapping/config"
	"github.com/syssam/sqlfs/schema"
)

// dialectEntry binds a dialect name to its DDL dialect and the
// database/sql driver it runs on.
type dialectEntry struct {
	newDialect func() sqlschema.Dialect
	driver     string
}

var dialects = map[string]dialectEntry{
	"postgis": {func() sqlschema.Dialect { return postgis.New() }, dialect.Postgres},
	"oracle":  {func() sqlschema.Dialect { return oracle.New() }, dialect.Oracle},
	"mssql":   {func() sqlschema.Dialect { return mssql.New() }, dialect.SQLServer},
	"mysql":   {func() sqlschema.Dialect { return mysql.New() }, dialect.MySQL},
	"sqlite":  {func() sqlschema.Dialect { return sqlite.New() }, dialect.SQLite},
}

func lookupDialect(name string) (dialectEntry, error) {
	e, ok := dialects[name]
	if !ok {
		return dialectEntry{}, sqlfs.NewConfigurationError(name, "unknown dialect, expected one of %s", strings.Join(config.Dialects, ", "))
	}
	return e, nil
}

func loadMapping(cfg *config.Config) (*mapping.MappedSchema, error) {
	if cfg.Mapping == "" {
		return nil, fmt.Errorf("no mapping file given, use --mapping")
	}
	return mappingconfig.LoadFile(cfg.Mapping)
}

// openDriver opens the database of cfg with statement statistics.
func openDriver(ctx context.Context, cfg *config.Config) (sqlschema.Dialect, *sql.StatsDriver, error) {
	e, err := lookupDialect(cfg.Dialect)
	if err != nil {
		return nil, nil, err
	}
	if cfg.DSN == "" {
		return nil, nil, fmt.Errorf("no data source name given, use --dsn")
	}
	drv, err := sql.Open(e.driver, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s database: %w", cfg.Dialect, err)
	}
	if err := drv.DB().PingContext(ctx); err != nil {
		_ = drv.Close()
		return nil, nil, fmt.Errorf("connecting to %s database: %w", cfg.Dialect, err)
	}
	return e.newDialect(), sql.NewStatsDriver(drv, sql.WithLogger(config.GetLogger(ctx))), nil
}

// featureType resolves a feature type name given as prefix:local against
// the namespaces of the schema, or in {namespace}local notation.
func featureType(ms *mapping.MappedSchema, name string) (schema.QName, error) {
	if prefix, local, ok := strings.Cut(name, ":"); ok && !strings.HasPrefix(name, "{") {
		uri, ok := ms.Schema().Namespace(prefix)
		if !ok {
			return schema.QName{}, fmt.Errorf("unbound namespace prefix %q", prefix)
		}
		return schema.QName{Space: uri, Local: local}, nil
	}
	return schema.ParseQName(name)
}
