// Package store runs feature queries against a mapped SQL database.
//
// A Store compiles the select plan of every mapped feature type once and
// executes it per query. Each query runs in its own transaction, so the
// subsequent selects of deferred joins see the same snapshot and use the
// same connection as the feature query.
//
//	st, err := store.New(ms, postgis.New(), drv)
//	if err != nil {
//	    return err
//	}
//	it, err := st.Query(ctx, roadType)
//	if err != nil {
//	    return err
//	}
//	defer it.Close()
//	for it.Next() {
//	    fmt.Println(it.Feature().ID)
//	}
//	return it.Err()
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/syssam/sqlfs"
	"github.com/syssam/sqlfs/compiler/query"
	"github.com/syssam/sqlfs/convert"
	"github.com/syssam/sqlfs/dialect"
	"github.com/syssam/sqlfs/dialect/sql"
	sqlschema "github.com/syssam/sqlfs/dialect/sql/schema"
	"github.com/syssam/sqlfs/feature"
	"github.com/syssam/sqlfs/mapping"
	"github.com/syssam/sqlfs/materialize"
	"github.com/syssam/sqlfs/schema"
)

// ErrNotFound is returned by Get when no feature has the requested id.
var ErrNotFound = errors.New("store: feature not found")

// Store queries the features of a mapped schema.
type Store struct {
	schema    *mapping.MappedSchema
	dialect   sqlschema.Dialect
	driver    dialect.Driver
	plans     map[schema.QName]*query.Plan
	logger    *slog.Logger
	cacheSize int
	buildOpts []materialize.Option
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithCacheSize bounds the per-query feature cache. Zero, the default,
// disables caching.
func WithCacheSize(n int) Option {
	return func(s *Store) {
		s.cacheSize = n
	}
}

// WithBuilderOptions passes options to the feature builders.
func WithBuilderOptions(opts ...materialize.Option) Option {
	return func(s *Store) {
		s.buildOpts = append(s.buildOpts, opts...)
	}
}

// New returns a store over drv. The select plans of all feature type
// mappings are compiled eagerly, so configuration errors surface here.
func New(ms *mapping.MappedSchema, d sqlschema.Dialect, drv dialect.Driver, opts ...Option) (*Store, error) {
	s := &Store{
		schema:  ms,
		dialect: d,
		driver:  drv,
		plans:   make(map[schema.QName]*query.Plan),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, ftm := range ms.FeatureTypeMappings() {
		plan, err := s.compile(ftm)
		if err != nil {
			return nil, err
		}
		s.plans[ftm.Name()] = plan
	}
	return s, nil
}

func (s *Store) compile(ftm *mapping.FeatureTypeMapping, opts ...query.Option) (*query.Plan, error) {
	opts = append([]query.Option{query.WithConverterOptions(convert.WithSchema(s.schema))}, opts...)
	return query.Compile(ftm, s.dialect, opts...)
}

// Schema returns the mapped schema.
func (s *Store) Schema() *mapping.MappedSchema { return s.schema }

// Plan returns the compiled select plan of a feature type.
func (s *Store) Plan(name schema.QName) (*query.Plan, bool) {
	p, ok := s.plans[name]
	return p, ok
}

func (s *Store) mapping(name schema.QName) (*mapping.FeatureTypeMapping, error) {
	ftm, ok := s.schema.FeatureTypeMapping(name)
	if !ok {
		return nil, sqlfs.NewConfigurationError(name.String(), "feature type is not mapped")
	}
	return ftm, nil
}

// Query returns an iterator over the features of a feature type. WHERE
// fragments given as options restrict the rows of the root table.
func (s *Store) Query(ctx context.Context, name schema.QName, opts ...query.Option) (*Iterator, error) {
	ftm, err := s.mapping(name)
	if err != nil {
		return nil, err
	}
	plan := s.plans[name]
	if len(opts) > 0 {
		if plan, err = s.compile(ftm, opts...); err != nil {
			return nil, err
		}
	}
	tx, err := s.driver.Tx(ctx)
	if err != nil {
		return nil, sqlfs.NewQueryExecutionError("", plan.Table, plan.SQL, err)
	}
	args := plan.Args
	if args == nil {
		args = []any{}
	}
	s.logger.DebugContext(ctx, "executing feature query", "type", name.String(), "sql", plan.SQL)
	rows := &sql.Rows{}
	if err := tx.Query(ctx, plan.SQL, args, rows); err != nil {
		return nil, rollback(tx, sqlfs.NewQueryExecutionError("", plan.Table, plan.SQL, err))
	}
	all, err := sql.ScanAll(rows)
	if err != nil {
		return nil, rollback(tx, sqlfs.NewQueryExecutionError("", plan.Table, plan.SQL, err))
	}
	bopts := append([]materialize.Option{materialize.WithLogger(s.logger)}, s.buildOpts...)
	if s.cacheSize > 0 {
		bopts = append(bopts, materialize.WithCache(sqlfs.NewFIFOCache[*feature.Feature](s.cacheSize)))
	}
	return &Iterator{
		ctx:     ctx,
		tx:      tx,
		builder: materialize.New(s.schema, ftm, plan, tx, bopts...),
		groups:  materialize.Partitions(all, plan.GroupIndexes()),
	}, nil
}

// Get returns the feature with the given id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, name schema.QName, id string) (*feature.Feature, error) {
	ftm, err := s.mapping(name)
	if err != nil {
		return nil, err
	}
	where, args, err := s.fidPredicate(ftm, []string{id})
	if err != nil {
		return nil, err
	}
	it, err := s.Query(ctx, name, query.WithWhere(where, args...))
	if err != nil {
		return nil, err
	}
	var f *feature.Feature
	if it.Next() {
		f = it.Feature()
	}
	if err := errors.Join(it.Err(), it.Close()); err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return f, nil
}

func rollback(tx dialect.Tx, err error) error {
	if rerr := tx.Rollback(); rerr != nil {
		return errors.Join(err, &sqlfs.RollbackError{Err: rerr})
	}
	return err
}

// Iterator iterates over the features of a query. Features are built
// lazily; deferred joins are fetched when their feature is built.
type Iterator struct {
	ctx     context.Context
	tx      dialect.Tx
	builder *materialize.Builder
	groups  []*materialize.Partition
	pos     int
	current *feature.Feature
	err     error
	closed  bool
}

// Next builds the next feature. It returns false when the features are
// exhausted or an error occurred.
func (it *Iterator) Next() bool {
	if it.err != nil || it.closed || it.pos >= len(it.groups) {
		return false
	}
	if err := it.ctx.Err(); err != nil {
		it.err = err
		return false
	}
	g := it.groups[it.pos]
	it.pos++
	it.current, it.err = it.builder.Build(it.ctx, g.Rows)
	return it.err == nil
}

// Feature returns the feature built by the last call to Next.
func (it *Iterator) Feature() *feature.Feature { return it.current }

// Err returns the error that stopped the iteration, if any.
func (it *Iterator) Err() error { return it.err }

// Warnings returns the schema violations found while building features.
func (it *Iterator) Warnings() []*sqlfs.SchemaViolationWarning {
	return it.builder.Warnings()
}

// All drains the iterator and closes it.
func (it *Iterator) All() ([]*feature.Feature, error) {
	var fs []*feature.Feature
	for it.Next() {
		fs = append(fs, it.Feature())
	}
	return fs, errors.Join(it.Err(), it.Close())
}

// Close ends the query transaction.
func (it *Iterator) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	if it.err != nil {
		return it.tx.Rollback()
	}
	return it.tx.Commit()
}
