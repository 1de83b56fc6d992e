// Package sqlfs is a feature store over relational databases.
//
// Feature types of an application schema are mapped onto tables by a tree
// of mapping rules (package mapping). From a mapped schema the store
// derives the DDL of every supported dialect (compiler/ddl), compiles one
// select plan per feature type (compiler/query) and rebuilds features
// from the selected rows (materialize). Package store ties these together:
//
//	ms, err := config.LoadFile("roads.yaml")
//	if err != nil {
//	    return err
//	}
//	drv, err := sql.Open(dialect.SQLite, "file:roads.db")
//	if err != nil {
//	    return err
//	}
//	st, err := store.New(ms, sqlite.New(), drv)
//	if err != nil {
//	    return err
//	}
//	if _, err := st.Setup(ctx, store.TableSetup{DeriveTables: true}); err != nil {
//	    return err
//	}
//	f, err := st.Get(ctx, roadType, "ROAD_1")
//
// This package holds the error types shared by all packages and the cache
// contract of the feature builders.
package sqlfs
