// Package materialize rebuilds features from the result rows of a
// compiled select.
//
// A Builder consumes the rows of one feature, as grouped by the feature id
// columns of the plan, and walks the particles of the feature type mapping.
// Rows of inline joins are partitioned by the key terms of the join; rows
// of deferred joins are fetched with a subsequent select per parent row.
package materialize

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/syssam/sqlfs"
	"github.com/syssam/sqlfs/compiler/query"
	"github.com/syssam/sqlfs/dialect"
	"github.com/syssam/sqlfs/dialect/sql"
	"github.com/syssam/sqlfs/feature"
	"github.com/syssam/sqlfs/mapping"
	"github.com/syssam/sqlfs/schema"
)

// Builder builds the features of one feature type mapping.
type Builder struct {
	schema   *mapping.MappedSchema
	ftm      *mapping.FeatureTypeMapping
	plan     *query.Plan
	querier  dialect.ExecQuerier
	logger   *slog.Logger
	escalate bool
	warn     func(*sqlfs.SchemaViolationWarning)
	cache    sqlfs.Cache[*feature.Feature]
	warnings []*sqlfs.SchemaViolationWarning
}

// New returns a builder for the rows of plan. Subsequent selects of
// deferred joins are executed on q, which should be the connection or
// transaction the rows were read from.
func New(ms *mapping.MappedSchema, ftm *mapping.FeatureTypeMapping, plan *query.Plan, q dialect.ExecQuerier, opts ...Option) *Builder {
	b := &Builder{
		schema:   ms,
		ftm:      ftm,
		plan:     plan,
		querier:  q,
		logger:   slog.Default(),
		escalate: true,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Warnings returns the schema violations found so far.
func (b *Builder) Warnings() []*sqlfs.SchemaViolationWarning {
	return b.warnings
}

// frame is the context a particle is built in.
type frame struct {
	ctx     context.Context
	fid     string
	tracker *Tracker
	rows    [][]any
	plan    *query.Plan
	prefix  string
	scope   string
}

func (f frame) with(rows [][]any, plan *query.Plan, prefix, scope string) frame {
	f.rows, f.plan, f.prefix, f.scope = rows, plan, prefix, scope
	return f
}

// Build builds the feature of rows, which must share the feature id.
func (b *Builder) Build(ctx context.Context, rows [][]any) (*feature.Feature, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("materialize: no rows")
	}
	row := rows[0]
	fidValues := make([]any, 0, len(b.plan.FIDIndexes()))
	for _, i := range b.plan.FIDIndexes() {
		fidValues = append(fidValues, row[i])
	}
	id := b.ftm.FID().Format(fidValues...)
	name := b.featureType(row)
	if b.cache != nil {
		if f, ok := b.cache.Get(sqlfs.CacheKey(name.String(), id)); ok {
			return f, nil
		}
	}
	f := &feature.Feature{ID: id, Type: name}
	ft, _ := b.schema.Schema().FeatureType(name)
	fr := frame{ctx: ctx, fid: id, tracker: NewTracker(), rows: rows, plan: b.plan}
	for _, m := range b.ftm.Mappings() {
		base := m.Base()
		if base.SkipOnReconstruct || m.Kind() == mapping.SQLExpressionKind {
			continue
		}
		if base.Path.Axis != mapping.ChildAxis {
			b.logger.WarnContext(ctx, "omitting particle with unsupported top-level path", "feature", id, "path", base.Path.String())
			continue
		}
		values, err := b.particle(m, fr.with(rows, b.plan, id+"_"+base.Path.IDPrefix(), ""))
		if err != nil {
			return nil, err
		}
		var pt *schema.PropertyType
		if ft != nil {
			if p, ok := ft.Property(base.Path.Name); ok {
				pt = &p
			}
		}
		if len(values) == 0 {
			if prop := b.missing(ctx, id, base, pt); prop != nil {
				f.Properties = append(f.Properties, prop)
			}
			continue
		}
		for _, v := range values {
			f.Properties = append(f.Properties, toProperty(base.Path.Name, pt, v))
		}
	}
	if b.cache != nil {
		b.cache.Set(sqlfs.CacheKey(name.String(), id), f)
	}
	return f, nil
}

// featureType returns the concrete feature type of a row: the value of the
// discriminator column if it names a declared feature type.
func (b *Builder) featureType(row []any) schema.QName {
	i := b.plan.TypeIndex()
	if i < 0 || row[i] == nil {
		return b.ftm.Name()
	}
	name, err := schema.ParseQName(mapping.FormatValue(row[i]))
	if err != nil {
		return b.ftm.Name()
	}
	if _, ok := b.schema.Schema().FeatureType(name); !ok {
		return b.ftm.Name()
	}
	return name
}

// missing handles a top-level particle without value: required nillable
// properties are nilled, other required properties are reported.
func (b *Builder) missing(ctx context.Context, id string, base *mapping.Particle, pt *schema.PropertyType) *feature.Property {
	if pt == nil || !pt.Required() || base.Voidable || !b.escalate {
		return nil
	}
	if pt.Nillable {
		p := &feature.Property{Name: pt.Name, Type: pt}
		p.Attrs.Set(schema.XSINil, feature.PrimitiveValue{Value: true, Type: schema.Boolean})
		return p
	}
	b.violation(ctx, id, base.Path.String(), "required property has no value")
	return nil
}

func (b *Builder) violation(ctx context.Context, id, path, msg string) {
	w := &sqlfs.SchemaViolationWarning{FeatureID: id, Path: path, Message: msg}
	b.warnings = append(b.warnings, w)
	b.logger.WarnContext(ctx, "schema violation", "feature", id, "path", path, "message", msg)
	if b.warn != nil {
		b.warn(w)
	}
}

func toProperty(name schema.QName, pt *schema.PropertyType, v feature.Node) *feature.Property {
	if e, ok := v.(*feature.Element); ok && e.Name == name {
		return &feature.Property{Name: name, Type: pt, Attrs: e.Attrs, Children: e.Children}
	}
	return &feature.Property{Name: name, Type: pt, Children: []feature.Node{v}}
}

// particle builds the values of m: one per row of a deferred join, one per
// distinct key of an inline join, or the single value of the frame rows.
func (b *Builder) particle(m mapping.Mapping, fr frame) ([]feature.Node, error) {
	base := m.Base()
	if base.SkipOnReconstruct || m.Kind() == mapping.SQLExpressionKind {
		return nil, nil
	}
	b.logger.DebugContext(fr.ctx, "building particle", "feature", fr.fid, "path", base.Path.String())
	sub := fr.plan.Deferred(m)
	if sub == nil {
		return b.inline(m, fr)
	}
	args := make([]any, len(sub.KeyTerms))
	for i, k := range sub.KeyTerms {
		if args[i] = fr.rows[0][k]; args[i] == nil {
			return nil, nil
		}
	}
	rows := &sql.Rows{}
	if err := b.querier.Query(fr.ctx, sub.SQL, args, rows); err != nil {
		return nil, sqlfs.NewQueryExecutionError(base.Path.String(), sub.Table, sub.SQL, err)
	}
	all, err := sql.ScanAll(rows)
	if err != nil {
		return nil, sqlfs.NewQueryExecutionError(base.Path.String(), sub.Table, sub.SQL, err)
	}
	var values []feature.Node
	for i, p := range Partitions(all, sub.GroupIndexes()) {
		vs, err := b.inline(m, fr.with(p.Rows, sub, fmt.Sprintf("%s_%d", fr.prefix, i), fr.scope+"/"+p.Key))
		if err != nil {
			return nil, err
		}
		values = append(values, vs...)
	}
	return values, nil
}

func (b *Builder) inline(m mapping.Mapping, fr frame) ([]feature.Node, error) {
	idx, ok := fr.plan.DedupIndexes(m)
	if !ok {
		return b.value(m, fr)
	}
	var values []feature.Node
	for _, p := range Partitions(fr.rows, idx) {
		if p.Null || !fr.tracker.Track(m, fr.scope, p.Key) {
			continue
		}
		vs, err := b.value(m, fr.with(p.Rows, fr.plan, fr.prefix, fr.scope+"/"+p.Key))
		if err != nil {
			return nil, err
		}
		values = append(values, vs...)
	}
	return values, nil
}

func (b *Builder) value(m mapping.Mapping, fr frame) ([]feature.Node, error) {
	if c, ok := m.(*mapping.Compound); ok {
		return b.compound(c, fr)
	}
	conv := fr.plan.Converter(m)
	if conv == nil {
		return nil, nil
	}
	cols := fr.plan.Columns(m)
	values := make([]any, len(cols))
	for i, c := range cols {
		values[i] = fr.rows[0][c]
	}
	n, err := conv.ToParticle(values)
	if err != nil {
		return nil, fmt.Errorf("materialize: feature %s: %w", fr.fid, err)
	}
	if n == nil {
		return nil, nil
	}
	if g, ok := n.(*feature.Geometry); ok {
		g.ID = fr.prefix
	}
	return []feature.Node{n}, nil
}
