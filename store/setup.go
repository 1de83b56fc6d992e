package store

import (
	"context"
	"fmt"

	"github.com/syssam/sqlfs"
	"github.com/syssam/sqlfs/compiler/ddl"
	"github.com/syssam/sqlfs/dialect/sql"
	sqlschema "github.com/syssam/sqlfs/dialect/sql/schema"
)

// TableSetup configures the creation of the tables of a store.
type TableSetup struct {
	// TestSQL tells whether the tables exist: a query returning a single
	// boolean value, or one that fails if they do not. If empty, the first
	// feature type table is probed.
	TestSQL string
	// DeriveTables creates the tables derived from the mapping.
	DeriveTables bool
	// SQL are additional statements, executed after the derived ones.
	SQL []string
}

// Setup creates the tables of the store unless the test query tells that
// they exist. All statements run in one transaction; if one fails the
// whole batch is rolled back. It reports whether statements were executed.
func (s *Store) Setup(ctx context.Context, ts TableSetup) (bool, error) {
	done, err := s.setUp(ctx, ts.TestSQL)
	if err != nil {
		return false, err
	}
	if done {
		s.logger.InfoContext(ctx, "setup already performed")
		return false, nil
	}
	var stmts []string
	if ts.DeriveTables {
		derived, err := ddl.Compile(s.schema, s.dialect)
		if err != nil {
			return false, err
		}
		stmts = append(stmts, derived...)
	}
	stmts = append(stmts, ts.SQL...)
	if len(stmts) == 0 {
		return false, nil
	}
	tx, err := s.driver.Tx(ctx)
	if err != nil {
		return false, sqlfs.NewDDLExecutionError(0, "", err)
	}
	for i, stmt := range stmts {
		s.logger.InfoContext(ctx, "executing statement", "index", i, "sql", stmt)
		if err := tx.Exec(ctx, stmt, []any{}, nil); err != nil {
			return false, rollback(tx, sqlfs.NewDDLExecutionError(i, stmt, err))
		}
	}
	if err := tx.Commit(); err != nil {
		return false, sqlfs.NewDDLExecutionError(len(stmts)-1, "COMMIT", err)
	}
	return true, nil
}

// setUp runs the test query. A failing probe means the tables do not
// exist; a custom test query decides by its boolean result.
func (s *Store) setUp(ctx context.Context, testSQL string) (bool, error) {
	custom := testSQL != ""
	if !custom {
		ftms := s.schema.FeatureTypeMappings()
		if len(ftms) == 0 {
			return false, nil
		}
		testSQL = fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE 1=0", sqlschema.Quote(s.dialect, ftms[0].Table()))
	}
	rows := &sql.Rows{}
	if err := s.driver.Query(ctx, testSQL, []any{}, rows); err != nil {
		s.logger.DebugContext(ctx, "setup test query failed", "sql", testSQL, "error", err)
		return false, nil
	}
	all, err := sql.ScanAll(rows)
	if err != nil {
		return false, nil
	}
	if !custom {
		return true, nil
	}
	if len(all) == 0 || len(all[0]) == 0 {
		return false, nil
	}
	return truthy(all[0][0]), nil
}

func truthy(v any) bool {
	switch v := v.(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case []byte:
		return truthyString(string(v))
	case string:
		return truthyString(v)
	default:
		return false
	}
}

func truthyString(s string) bool {
	switch s {
	case "1", "t", "true", "TRUE", "True", "y", "Y":
		return true
	}
	return false
}
