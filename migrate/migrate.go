// Package migrate writes compiled DDL as versioned migration files.
//
// The statements of a store setup become one migration plan that is
// formatted for the migration tool owning the directory and recorded in
// the directory's atlas.sum integrity file.
//
//	dir, err := migrate.OpenDir("goose", "./migrations")
//	if err != nil {
//	    return err
//	}
//	stmts, err := ddl.Compile(ms, postgis.New())
//	if err != nil {
//	    return err
//	}
//	return migrate.Write(ctx, dir, "init", stmts)
package migrate

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/sqltool"
)

// Migration directory formats.
const (
	FormatAtlas         = "atlas"
	FormatGolangMigrate = "golang-migrate"
	FormatGoose         = "goose"
	FormatDBMate        = "dbmate"
	FormatFlyway        = "flyway"
	FormatLiquibase     = "liquibase"
)

// Formats lists the supported migration directory formats.
var Formats = []string{FormatAtlas, FormatGolangMigrate, FormatGoose, FormatDBMate, FormatFlyway, FormatLiquibase}

// OpenDir opens the migration directory at path for the given format.
func OpenDir(format, path string) (migrate.Dir, error) {
	switch format {
	case "", FormatAtlas:
		return migrate.NewLocalDir(path)
	case FormatGolangMigrate:
		return sqltool.NewGolangMigrateDir(path)
	case FormatGoose:
		return sqltool.NewGooseDir(path)
	case FormatDBMate:
		return sqltool.NewDBMateDir(path)
	case FormatFlyway:
		return sqltool.NewFlywayDir(path)
	case FormatLiquibase:
		return sqltool.NewLiquibaseDir(path)
	}
	return nil, fmt.Errorf("migrate: unknown migration format %q", format)
}

// FormatterFor returns the formatter of the migration tool owning dir.
// Unknown directories get golang-migrate files.
func FormatterFor(dir migrate.Dir) migrate.Formatter {
	switch dir.(type) {
	case *sqltool.GooseDir:
		return sqltool.GooseFormatter
	case *sqltool.DBMateDir:
		return sqltool.DBMateFormatter
	case *sqltool.FlywayDir:
		return sqltool.FlywayFormatter
	case *sqltool.LiquibaseDir:
		return sqltool.LiquibaseFormatter
	default:
		return sqltool.GolangMigrateFormatter
	}
}

// Option configures Write.
type Option func(*options)

type options struct {
	fmt     migrate.Formatter
	version string
	now     func() time.Time
}

// WithFormatter overrides the formatter chosen for the directory.
func WithFormatter(f migrate.Formatter) Option {
	return func(o *options) {
		o.fmt = f
	}
}

// WithVersion sets the migration version. Default is the current UTC time
// as yyyymmddhhmmss.
func WithVersion(v string) Option {
	return func(o *options) {
		o.version = v
	}
}

// Write formats stmts as the migration name and writes its files and the
// updated integrity file to dir. A directory whose contents do not match
// its integrity file is rejected with migrate.ErrChecksumMismatch.
func Write(ctx context.Context, dir migrate.Dir, name string, stmts []string, opts ...Option) error {
	o := &options{now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	if o.fmt == nil {
		o.fmt = FormatterFor(dir)
	}
	if o.version == "" {
		o.version = o.now().UTC().Format("20060102150405")
	}
	if len(stmts) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := migrate.Validate(dir); err != nil {
		return fmt.Errorf("migrate: validating migration directory: %w", err)
	}
	files, err := o.fmt.Format(Plan(o.version, name, stmts))
	if err != nil {
		return fmt.Errorf("migrate: formatting migration %s: %w", name, err)
	}
	for _, f := range files {
		if err := dir.WriteFile(f.Name(), f.Bytes()); err != nil {
			return fmt.Errorf("migrate: writing %s: %w", f.Name(), err)
		}
	}
	sum, err := dir.Checksum()
	if err != nil {
		return fmt.Errorf("migrate: computing checksum: %w", err)
	}
	return migrate.WriteSumFile(dir, sum)
}

var createTable = regexp.MustCompile(`(?i)^\s*CREATE\s+TABLE\s+(\S+)`)

// Plan returns the migration plan of stmts. CREATE TABLE statements are
// reversed by dropping the table.
func Plan(version, name string, stmts []string) *migrate.Plan {
	plan := &migrate.Plan{Version: version, Name: name, Reversible: true}
	for _, stmt := range stmts {
		c := &migrate.Change{Cmd: stmt}
		if m := createTable.FindStringSubmatch(stmt); m != nil {
			c.Reverse = "DROP TABLE " + m[1]
		} else {
			plan.Reversible = false
		}
		plan.Changes = append(plan.Changes, c)
	}
	return plan
}
