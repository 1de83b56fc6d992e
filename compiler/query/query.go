// Package query compiles the selects that fetch the rows of a feature type.
//
// A feature type plan selects the feature id columns, the discriminator
// column and the values of every particle, expanding inline joins into
// LEFT OUTER JOINs. Joins fetched with a subsequent select are compiled
// into separate plans, executed per parent row while features are built.
//
//	plan, err := query.Compile(ftm, postgis.New(), query.WithWhere("X1.id = $1", 7))
//	if err != nil {
//	    return err
//	}
//	fmt.Println(plan.SQL)
package query

import (
	"fmt"
	"strings"

	"github.com/syssam/sqlfs/convert"
	sqlschema "github.com/syssam/sqlfs/dialect/sql/schema"
	"github.com/syssam/sqlfs/mapping"
)

// Option configures the compilation of a feature type plan.
type Option func(*options)

type options struct {
	where     string
	args      []any
	converter []convert.Option
}

// WithWhere restricts the feature type plan by a WHERE fragment over the
// root alias X1, written with the dialect's placeholders.
func WithWhere(sql string, args ...any) Option {
	return func(o *options) {
		o.where, o.args = sql, args
	}
}

// WithConverterOptions passes options to the value converters.
func WithConverterOptions(opts ...convert.Option) Option {
	return func(o *options) {
		o.converter = append(o.converter, opts...)
	}
}

// Compile returns the select plan of a feature type mapping.
func Compile(ftm *mapping.FeatureTypeMapping, d sqlschema.Dialect, opts ...Option) (*Plan, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	b := newBuilder(ftm.Table(), d, o.converter)
	root := b.aliases.Root()
	for _, col := range ftm.FID().ColumnNames() {
		t := root + "." + col
		b.plan.fids = append(b.plan.fids, b.add(t))
		b.orderBy = append(b.orderBy, t)
	}
	b.plan.groups = b.plan.fids
	if col := ftm.TypeColumn(); col != "" {
		b.plan.typeIndex = b.add(root + "." + col)
	}
	for _, m := range ftm.Mappings() {
		if err := b.particle(m, root); err != nil {
			return nil, err
		}
	}
	if o.where != "" {
		b.where = append(b.where, o.where)
		b.plan.Args = o.args
	}
	return b.build(), nil
}

type builder struct {
	plan     *Plan
	dialect  sqlschema.Dialect
	convOpts []convert.Option
	aliases  *AliasManager
	joins    []string
	where    []string
	orderBy  []string
}

func newBuilder(table string, d sqlschema.Dialect, convOpts []convert.Option) *builder {
	return &builder{
		dialect:  d,
		convOpts: convOpts,
		aliases:  NewAliasManager(),
		plan: &Plan{
			Table:      table,
			index:      make(map[string]int),
			aliases:    make(map[mapping.Mapping]string),
			joins:      make(map[string]mapping.Mapping),
			deferred:   make(map[mapping.Mapping]*Plan),
			dedup:      make(map[mapping.Mapping][]int),
			columns:    make(map[mapping.Mapping][]int),
			converters: make(map[mapping.Mapping]convert.Converter),
			typeIndex:  -1,
		},
	}
}

// add selects term and returns its index.
func (b *builder) add(term string) int {
	i, ok := b.plan.index[term]
	if !ok {
		i = len(b.plan.terms)
		b.plan.index[term] = i
		b.plan.terms = append(b.plan.terms, term)
	}
	return i
}

func (b *builder) particle(m mapping.Mapping, alias string) error {
	base := m.Base()
	if base.SkipOnReconstruct || m.Kind() == mapping.SQLExpressionKind {
		return nil
	}
	if !mapping.Follows(m) {
		return b.value(m, alias)
	}
	if base.Joins[0].FetchMode == mapping.DeferredSelect {
		return b.deferred(m, alias)
	}
	return b.inline(m, alias, base.Joins)
}

// inline joins the steps of a join chain and reads the value of m from the
// last joined table.
func (b *builder) inline(m mapping.Mapping, alias string, joins []*mapping.TableJoin) error {
	if len(joins) == 0 {
		return b.value(m, alias)
	}
	for _, j := range joins {
		next := b.aliases.Next()
		b.joins = append(b.joins, joinClause(j, alias, next))
		for _, oc := range j.OrderColumns {
			b.orderBy = append(b.orderBy, next+"."+oc.String())
		}
		b.plan.joins[next] = m
		alias = next
	}
	last := joins[len(joins)-1]
	if err := b.value(m, alias); err != nil {
		return err
	}
	b.plan.dedup[m] = b.keyOf(alias, last)
	return nil
}

// keyOf returns the term indexes identifying a row of the table of alias:
// the declared key columns of join j, or else the key column of the joined
// table.
func (b *builder) keyOf(alias string, j *mapping.TableJoin) []int {
	names := j.KeyColumnNames()
	if len(names) == 0 {
		names = []string{mapping.JoinTableKey}
	}
	idx := make([]int, 0, len(names))
	for _, k := range names {
		idx = append(idx, b.add(alias+"."+k))
	}
	return idx
}

// deferred selects the from columns of the first join of m and compiles the
// select fetching the joined rows.
func (b *builder) deferred(m mapping.Mapping, alias string) error {
	joins := m.Base().Joins
	j0 := joins[0]
	sub := newBuilder(j0.ToTable, b.dialect, b.convOpts)
	root := sub.aliases.Root()
	var keys []int
	for i, col := range j0.FromColumns {
		keys = append(keys, b.add(alias+"."+col))
		sub.where = append(sub.where, fmt.Sprintf("%s.%s = %s", root, j0.ToColumns[i], b.dialect.Placeholder(i+1)))
	}
	for _, oc := range j0.OrderColumns {
		sub.orderBy = append(sub.orderBy, root+"."+oc.String())
	}
	sub.plan.joins[root] = m
	if err := sub.inline(m, root, joins[1:]); err != nil {
		return err
	}
	// Each joined row is one value; rows repeated by further joins are
	// grouped by the identity of the joined row.
	if len(sub.joins) > 0 || len(j0.KeyColumnNames()) > 0 {
		sub.plan.groups = sub.keyOf(root, j0)
	}
	p := sub.build()
	p.KeyTerms = keys
	b.plan.deferred[m] = p
	b.plan.aliases[m] = alias
	return nil
}

// value selects the value of m from the table of alias. Compound values
// are the values of their children.
func (b *builder) value(m mapping.Mapping, alias string) error {
	b.plan.aliases[m] = alias
	if c, ok := m.(*mapping.Compound); ok {
		for _, child := range c.Children {
			if err := b.particle(child, alias); err != nil {
				return err
			}
		}
		return nil
	}
	conv, err := convert.For(m, b.dialect, b.convOpts...)
	if err != nil {
		return err
	}
	var cols []int
	for _, t := range conv.SelectTerms(alias) {
		cols = append(cols, b.add(t))
	}
	b.plan.columns[m] = cols
	b.plan.converters[m] = conv
	return nil
}

func joinClause(j *mapping.TableJoin, from, to string) string {
	var sb strings.Builder
	sb.WriteString("LEFT OUTER JOIN ")
	sb.WriteString(j.ToTable)
	sb.WriteByte(' ')
	sb.WriteString(to)
	sb.WriteString(" ON ")
	for i := range j.FromColumns {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		fmt.Fprintf(&sb, "%s.%s=%s.%s", from, j.FromColumns[i], to, j.ToColumns[i])
	}
	return sb.String()
}

func (b *builder) build() *Plan {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(b.plan.terms, ","))
	sb.WriteString(" FROM ")
	sb.WriteString(b.plan.Table)
	sb.WriteByte(' ')
	sb.WriteString(b.aliases.Root())
	for _, j := range b.joins {
		sb.WriteByte(' ')
		sb.WriteString(j)
	}
	if len(b.where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.where, " AND "))
	}
	if len(b.orderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(b.orderBy, ","))
	}
	b.plan.SQL = sb.String()
	return b.plan
}
