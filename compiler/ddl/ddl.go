// Package ddl derives the physical tables of a mapped schema and compiles
// them into the CREATE statements of a dialect.
//
// Statements are ordered: the hybrid storage bootstrap first, then the
// tables in discovery order. Feature type tables are visited as the
// application schema declares their types, and join tables depth-first
// below them. Compiling the same schema twice yields identical output.
package ddl

import (
	"fmt"

	"github.com/syssam/sqlfs"
	sqlschema "github.com/syssam/sqlfs/dialect/sql/schema"
	"github.com/syssam/sqlfs/mapping"
	"github.com/syssam/sqlfs/schema"
)

// Compile returns the DDL statements of ms in dialect d.
func Compile(ms *mapping.MappedSchema, d sqlschema.Dialect) ([]string, error) {
	tables, err := BuildTables(ms)
	if err != nil {
		return nil, err
	}
	var stmts []string
	if b := BlobSetup(ms); b != nil {
		stmts = append(stmts, d.BlobCreateStatements(b)...)
	}
	for _, t := range tables {
		stmts = append(stmts, d.CreateTableStatements(t)...)
	}
	return stmts, nil
}

// BlobSetup returns the hybrid storage bootstrap parameters of ms, or nil
// if ms has no BLOB mapping. Every feature type of the application schema
// is listed, with its declaration position as id.
func BlobSetup(ms *mapping.MappedSchema) *sqlschema.BlobSetup {
	b := ms.BlobMapping()
	if b == nil {
		return nil
	}
	setup := &sqlschema.BlobSetup{
		FeatureTypeTable: b.FeatureTypeTable,
		Table:            b.Table,
		SRID:             b.SRID,
		Domain:           b.Domain,
	}
	for _, ft := range ms.Schema().FeatureTypes() {
		setup.FeatureTypes = append(setup.FeatureTypes, ft.Name)
	}
	return setup
}

// BuildTables derives the table definitions of ms in discovery order.
func BuildTables(ms *mapping.MappedSchema) ([]*sqlschema.Table, error) {
	b := &builder{tables: make(map[string]*sqlschema.Table)}
	for _, ftm := range ms.FeatureTypeMappings() {
		if err := b.featureType(ftm); err != nil {
			return nil, err
		}
	}
	return b.order, nil
}

// builder memoizes tables by name, so that columns reached through
// several join paths accumulate on one definition.
type builder struct {
	tables map[string]*sqlschema.Table
	order  []*sqlschema.Table
}

func (b *builder) table(name string) *sqlschema.Table {
	if t, ok := b.tables[name]; ok {
		return t
	}
	t := sqlschema.NewTable(name)
	b.tables[name] = t
	b.order = append(b.order, t)
	return t
}

func (b *builder) featureType(ftm *mapping.FeatureTypeMapping) error {
	t := b.table(ftm.Table())
	fid := ftm.FID()
	for _, c := range fid.Columns {
		err := t.AddColumn(&sqlschema.PrimitiveColumn{
			Name:          c.Name,
			Type:          c.Type,
			PrimaryKey:    true,
			Autogenerated: mapping.IsAuto(fid.Generator),
		})
		if err != nil {
			return wrap(ftm.Name().String(), err)
		}
	}
	if col := ftm.TypeColumn(); col != "" {
		if err := t.AddColumn(&sqlschema.PrimitiveColumn{Name: col, Type: schema.String, NotNull: true}); err != nil {
			return wrap(ftm.Name().String(), err)
		}
	}
	for _, m := range ftm.Mappings() {
		if err := b.mapping(m, t); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) mapping(m mapping.Mapping, t *sqlschema.Table) error {
	if mapping.Follows(m) {
		for _, j := range m.Base().Joins {
			joined, err := b.joinedTable(t, j)
			if err != nil {
				return err
			}
			t = joined
		}
	}
	var err error
	switch m := m.(type) {
	case *mapping.Primitive:
		if col, ok := mapping.Column(m.Value); ok {
			err = t.AddColumn(&sqlschema.PrimitiveColumn{Name: col, Type: m.Type})
		}
	case *mapping.Geometry:
		if col, ok := mapping.Column(m.Value); ok {
			err = t.AddColumn(&sqlschema.GeometryColumn{Name: col, Type: m.Type, SRID: m.SRID, Dim: m.Dim})
		}
	case *mapping.FeatureRef:
		if col, ok := m.KeyColumn(); ok {
			err = t.AddColumn(&sqlschema.PrimitiveColumn{Name: col, Type: schema.String})
		}
		if col, ok := mapping.Column(m.Href); ok && err == nil {
			err = t.AddColumn(&sqlschema.PrimitiveColumn{Name: col, Type: schema.String})
		}
	case *mapping.Blob:
		err = t.AddColumn(&sqlschema.BlobColumn{Name: m.Column})
	case *mapping.Compound:
		for _, child := range m.Children {
			if err := b.mapping(child, t); err != nil {
				return err
			}
		}
	case *mapping.SQLExpression:
	default:
		panic(fmt.Sprintf("ddl: unhandled mapping type %T", m))
	}
	if err != nil {
		return wrap(m.Base().Path.String(), err)
	}
	return nil
}

// joinedTable adds the columns implied by join j to its target table: an
// autogenerated integer key, a foreign key to the single primary key of
// the origin table, and the order columns.
func (b *builder) joinedTable(from *sqlschema.Table, j *mapping.TableJoin) (*sqlschema.Table, error) {
	pks := from.PrimaryKeyColumns()
	if len(pks) != 1 {
		return nil, sqlfs.NewConfigurationError(j.String(),
			"cannot create join table: table %s has %d primary key columns, only a single primary key column is supported",
			from.Name, len(pks))
	}
	t := b.table(j.ToTable)
	cols := []sqlschema.Column{
		&sqlschema.PrimitiveColumn{Name: mapping.JoinTableKey, Type: schema.Integer, PrimaryKey: true, Autogenerated: true},
		&sqlschema.PrimitiveColumn{
			Name:             j.ToColumns[0],
			Type:             pks[0].Type,
			References:       from.Name,
			ReferencedColumn: pks[0].Name,
			OnDeleteCascade:  true,
		},
	}
	for _, oc := range j.OrderColumns {
		cols = append(cols, &sqlschema.PrimitiveColumn{Name: oc.Name, Type: schema.Integer, NotNull: true})
	}
	for _, c := range cols {
		if err := t.AddColumn(c); err != nil {
			return nil, wrap(j.String(), err)
		}
	}
	return t, nil
}

func wrap(subject string, err error) error {
	return sqlfs.WrapConfigurationError(subject, "invalid table definition", err)
}
