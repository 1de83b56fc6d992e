package schema

import (
	"fmt"

	appschema "github.com/syssam/sqlfs/schema"
)

// Column is a vendor-neutral column definition. It is implemented by
// *PrimitiveColumn, *GeometryColumn and *BlobColumn.
type Column interface {
	// ColumnName returns the column name.
	ColumnName() string
	// IsNotNull reports whether the column rejects NULL values.
	IsNotNull() bool
	// mergeFrom ORs the not-null flag of a same-kind column into the receiver.
	mergeFrom(Column) error
}

// PrimitiveColumn is a column of a scalar base type.
type PrimitiveColumn struct {
	Name          string
	Type          appschema.BaseType
	NotNull       bool
	PrimaryKey    bool
	Autogenerated bool
	// References is the table a foreign key column references, if any.
	References string
	// ReferencedColumn is the referenced key column, for dialects that
	// need it spelled out.
	ReferencedColumn string
	// OnDeleteCascade deletes referencing rows with the referenced row.
	OnDeleteCascade bool
}

// GeometryColumn is a spatial column.
type GeometryColumn struct {
	Name    string
	Type    appschema.GeometryType
	SRID    int // 0 for the dialect's undefined SRID
	Dim     int // 2 if unset
	NotNull bool
}

// BlobColumn is a binary column.
type BlobColumn struct {
	Name    string
	NotNull bool
}

// ColumnName implements Column.
func (c *PrimitiveColumn) ColumnName() string { return c.Name }

// ColumnName implements Column.
func (c *GeometryColumn) ColumnName() string { return c.Name }

// ColumnName implements Column.
func (c *BlobColumn) ColumnName() string { return c.Name }

// IsNotNull implements Column.
func (c *PrimitiveColumn) IsNotNull() bool { return c.NotNull }

// IsNotNull implements Column.
func (c *GeometryColumn) IsNotNull() bool { return c.NotNull }

// IsNotNull implements Column.
func (c *BlobColumn) IsNotNull() bool { return c.NotNull }

// Dimension returns the coordinate dimension, defaulting to 2.
func (c *GeometryColumn) Dimension() int {
	if c.Dim == 0 {
		return 2
	}
	return c.Dim
}

func (c *PrimitiveColumn) mergeFrom(other Column) error {
	o, ok := other.(*PrimitiveColumn)
	if !ok {
		return mergeError(c, other)
	}
	c.NotNull = c.NotNull || o.NotNull
	return nil
}

func (c *GeometryColumn) mergeFrom(other Column) error {
	o, ok := other.(*GeometryColumn)
	if !ok {
		return mergeError(c, other)
	}
	c.NotNull = c.NotNull || o.NotNull
	return nil
}

func (c *BlobColumn) mergeFrom(other Column) error {
	o, ok := other.(*BlobColumn)
	if !ok {
		return mergeError(c, other)
	}
	c.NotNull = c.NotNull || o.NotNull
	return nil
}

func mergeError(c, other Column) error {
	return fmt.Errorf("schema: cannot merge column definitions %s: %s vs. %s", c.ColumnName(), kindOf(c), kindOf(other))
}

func kindOf(c Column) string {
	switch c.(type) {
	case *PrimitiveColumn:
		return "primitive"
	case *GeometryColumn:
		return "geometry"
	case *BlobColumn:
		return "blob"
	default:
		return fmt.Sprintf("%T", c)
	}
}

// Table is a table definition with insertion-ordered, name-unique columns.
type Table struct {
	Name    string
	columns []Column
	index   map[string]int
}

// NewTable returns an empty table definition.
func NewTable(name string) *Table {
	return &Table{Name: name, index: make(map[string]int)}
}

// AddColumn adds c, or merges it into the existing column of the same name.
// Columns of different kinds cannot be merged.
func (t *Table) AddColumn(c Column) error {
	if i, ok := t.index[c.ColumnName()]; ok {
		if err := t.columns[i].mergeFrom(c); err != nil {
			return fmt.Errorf("%w (table %s)", err, t.Name)
		}
		return nil
	}
	t.index[c.ColumnName()] = len(t.columns)
	t.columns = append(t.columns, c)
	return nil
}

// Columns returns the columns in insertion order.
func (t *Table) Columns() []Column {
	return append([]Column(nil), t.columns...)
}

// Column returns the named column.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// PrimaryKeyColumns returns the primary key columns in insertion order.
func (t *Table) PrimaryKeyColumns() []*PrimitiveColumn {
	var pks []*PrimitiveColumn
	for _, c := range t.columns {
		if pc, ok := c.(*PrimitiveColumn); ok && pc.PrimaryKey {
			pks = append(pks, pc)
		}
	}
	return pks
}
