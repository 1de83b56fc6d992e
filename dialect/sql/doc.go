// Package sql adapts database/sql to the dialect.Driver interface the
// feature store executes its setup statements, feature queries and
// subsequent selects through.
//
//	drv, err := sql.Open(dialect.SQLite, "file:features.db")
//	if err != nil {
//	    return err
//	}
//	rows := &sql.Rows{}
//	if err := drv.Query(ctx, "SELECT X1.id FROM f X1", []any{}, rows); err != nil {
//	    return err
//	}
//	values, err := sql.ScanAll(rows)
//
// ScanValues and ScanAll read rows positionally into []any, matching the
// select term indexes computed by the query compiler.
package sql
