package mapping

import (
	"fmt"

	"github.com/syssam/sqlfs/schema"
)

// Kind identifies the variant of a Mapping.
type Kind uint8

// Mapping variants.
const (
	PrimitiveKind Kind = iota
	GeometryKind
	FeatureRefKind
	CompoundKind
	SQLExpressionKind
	BlobKind
)

var kindNames = [...]string{
	PrimitiveKind:     "primitive",
	GeometryKind:      "geometry",
	FeatureRefKind:    "feature",
	CompoundKind:      "compound",
	SQLExpressionKind: "sql",
	BlobKind:          "blob",
}

// String returns the configuration name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Mapping is one node of the mapping rule tree. It is implemented by
// *Primitive, *Geometry, *FeatureRef, *Compound, *SQLExpression and *Blob.
type Mapping interface {
	// Base returns the fields shared by all variants.
	Base() *Particle
	// Kind returns the variant.
	Kind() Kind
}

// Particle holds the fields shared by every mapping variant.
type Particle struct {
	Path Path
	// Joins leads from the parent's table to the table holding the value.
	Joins []*TableJoin
	// Voidable lets a missing value be omitted without escalating to the parent.
	Voidable bool
	// SkipOnReconstruct excludes the particle from selects and materialization.
	SkipOnReconstruct bool
}

// Base implements Mapping.
func (p *Particle) Base() *Particle { return p }

// Join returns the first join step, or nil.
func (p *Particle) Join() *TableJoin {
	if len(p.Joins) == 0 {
		return nil
	}
	return p.Joins[0]
}

// Expression is the value source of a leaf mapping.
type Expression interface {
	fmt.Stringer
	expression()
}

// ColumnRef references a table column.
type ColumnRef struct{ Name string }

// SQLExpr is a SQL fragment evaluated by the database. It is selected
// verbatim and does not contribute columns to the DDL.
type SQLExpr struct{ SQL string }

func (ColumnRef) expression() {}
func (SQLExpr) expression()   {}

// String returns the column name.
func (c ColumnRef) String() string { return c.Name }

// String returns the SQL fragment.
func (e SQLExpr) String() string { return e.SQL }

// Column returns the column name of a ColumnRef expression.
func Column(e Expression) (string, bool) {
	c, ok := e.(ColumnRef)
	return c.Name, ok
}

type (
	// Primitive maps a scalar value.
	Primitive struct {
		Particle
		Value Expression
		Type  schema.BaseType
	}

	// Geometry maps a geometry value.
	Geometry struct {
		Particle
		Value Expression
		Type  schema.GeometryType
		SRID  int
		Dim   int // 2 if unset
	}

	// FeatureRef maps a reference to another feature. Its joins describe
	// the link to the referenced table and are never traversed; the key
	// column is the first from column of the last join.
	FeatureRef struct {
		Particle
		Href        Expression // Optional column holding an external reference
		FeatureType schema.QName
	}

	// Compound maps a complex element from its child particles.
	Compound struct {
		Particle
		Children []Mapping
		Decl     *schema.ElementDecl
	}

	// SQLExpression maps an opaque SQL fragment. It takes part in neither DDL
	// nor materialization.
	SQLExpression struct {
		Particle
		SQL string
	}

	// Blob maps a particle stored encoded in a BLOB column.
	Blob struct {
		Particle
		Column string
	}
)

// Kind implements Mapping.
func (*Primitive) Kind() Kind { return PrimitiveKind }

// Kind implements Mapping.
func (*Geometry) Kind() Kind { return GeometryKind }

// Kind implements Mapping.
func (*FeatureRef) Kind() Kind { return FeatureRefKind }

// Kind implements Mapping.
func (*Compound) Kind() Kind { return CompoundKind }

// Kind implements Mapping.
func (*SQLExpression) Kind() Kind { return SQLExpressionKind }

// Kind implements Mapping.
func (*Blob) Kind() Kind { return BlobKind }

// KeyColumn returns the column holding the referenced feature's key.
func (m *FeatureRef) KeyColumn() (string, bool) {
	if len(m.Joins) == 0 {
		return "", false
	}
	last := m.Joins[len(m.Joins)-1]
	return last.FromColumns[0], true
}

// Dimension returns the coordinate dimension, defaulting to 2.
func (m *Geometry) Dimension() int {
	if m.Dim == 0 {
		return 2
	}
	return m.Dim
}

// NewCompound returns a compound mapping over children. If the compound is
// skipped on reconstruction, so is every descendant.
func NewCompound(p Particle, decl *schema.ElementDecl, children ...Mapping) *Compound {
	c := &Compound{Particle: p, Children: children, Decl: decl}
	if p.SkipOnReconstruct {
		Walk(c, func(m Mapping) bool {
			m.Base().SkipOnReconstruct = true
			return true
		})
	}
	return c
}

// Walk calls fn for m and, depth-first, for each of its descendants. The
// children of a mapping for which fn returns false are not visited.
func Walk(m Mapping, fn func(Mapping) bool) {
	if !fn(m) {
		return
	}
	if c, ok := m.(*Compound); ok {
		for _, child := range c.Children {
			Walk(child, fn)
		}
	}
}

// Follows reports whether the mapping's join chain leads to the table its
// value is read from. Feature references only describe their target table.
func Follows(m Mapping) bool {
	return m.Kind() != FeatureRefKind && len(m.Base().Joins) > 0
}
