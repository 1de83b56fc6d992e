// Package dialect names the database dialects the feature store runs on and
// defines the driver interfaces the store executes statements through.
//
// Concrete DDL and select generation per vendor lives in the dialect
// sub-packages (postgis, oracle, mssql, mysql and sqlite); the sql
// sub-package adapts database/sql to the interfaces defined here.
//
//	drv, err := sql.Open(dialect.Postgres, "postgres://...")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
package dialect

import (
	"context"
	"database/sql/driver"
)

// Dialect names, as passed to database/sql.Open.
const (
	MySQL     = "mysql"
	SQLite    = "sqlite"
	Postgres  = "postgres"
	Oracle    = "oracle"
	SQLServer = "sqlserver"
)

// ExecQuerier wraps the two database operations.
type ExecQuerier interface {
	// Exec executes a query that does not return records. For example, in SQL, INSERT or UPDATE.
	// It scans the result into the pointer v. For SQL drivers, it is dialect/sql.Result.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a query that returns rows, typically a SELECT in SQL.
	// It scans the result into the pointer v. For SQL drivers, it is *dialect/sql.Rows.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface that wraps all necessary operations for the
// feature store: executing statements, starting transactions and reporting
// its dialect.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction.
	// The provided context is used until the transaction is committed or rolled back.
	Tx(context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx wraps the Exec and Query operations in transaction.
type Tx interface {
	ExecQuerier
	driver.Tx
}
