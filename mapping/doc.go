// Package mapping holds the mapping rule tree that describes how the
// particles of a feature type are stored in tables, columns and joins.
//
// A tree is built once, usually by the mapping/config loader, and shared
// read-only by DDL compilation and every query of a store.
package mapping
