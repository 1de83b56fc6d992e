// Package schema holds the vendor-neutral physical model of the feature
// store tables, and the Dialect contract turning it into DDL text.
//
// Tables are derived from a mapped schema by the DDL compiler. Columns
// with the same name merge on AddColumn, so tables reached through several
// join paths accumulate their columns:
//
//	t := schema.NewTable("f_tag")
//	t.AddColumn(&schema.PrimitiveColumn{Name: "id", Type: appschema.Integer, PrimaryKey: true})
//	stmts := postgis.New().CreateTableStatements(t)
package schema
