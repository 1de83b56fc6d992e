// Package feature holds the typed hierarchical values reconstructed from
// result rows: primitive values, generic elements, references, geometries,
// properties and features.
package feature

import (
	"github.com/twpayne/go-geom"

	"github.com/syssam/sqlfs/schema"
)

// Node is a value in a reconstructed tree. It is implemented by
// PrimitiveValue, *Element, *Reference and *Geometry.
type Node interface {
	node()
}

// PrimitiveValue is a scalar leaf value. Value holds a string, bool,
// int64, *big.Rat (decimal), float64 or time.Time according to Type.
type PrimitiveValue struct {
	Value any
	Type  schema.BaseType
}

// Attribute is a named primitive value on an element or property.
type Attribute struct {
	Name  schema.QName
	Value PrimitiveValue
}

// Attributes is an insertion-ordered attribute list with unique names.
type Attributes []Attribute

// Get returns the value of the named attribute.
func (as Attributes) Get(name schema.QName) (PrimitiveValue, bool) {
	for _, a := range as {
		if a.Name == name {
			return a.Value, true
		}
	}
	return PrimitiveValue{}, false
}

// Set adds the attribute, replacing the value of an attribute of the same name.
func (as *Attributes) Set(name schema.QName, v PrimitiveValue) {
	for i, a := range *as {
		if a.Name == name {
			(*as)[i].Value = v
			return
		}
	}
	*as = append(*as, Attribute{Name: name, Value: v})
}

// Nilled reports whether the list contains xsi:nil="true".
func (as Attributes) Nilled() bool {
	v, ok := as.Get(schema.XSINil)
	b, isBool := v.Value.(bool)
	return ok && isBool && b
}

// Element is a generic complex element.
type Element struct {
	Name     schema.QName
	Decl     *schema.ElementDecl
	Attrs    Attributes
	Children []Node
}

// Nilled reports whether the element is marked xsi:nil.
func (e *Element) Nilled() bool { return e.Attrs.Nilled() }

// Reference points to another feature, either by local key or by href.
type Reference struct {
	Href        string
	FeatureType schema.QName
}

// GeometryKind is the shape a geometry value is represented as.
type GeometryKind uint8

// Geometry kinds. Surfaces and curves wrap a simple polygon or line
// string as their single patch or segment.
const (
	Simple GeometryKind = iota
	Surface
	Curve
)

// Geometry is a geometry value with its identifier and, for geometries
// built from application schema geometry elements, the element type and
// its properties.
type Geometry struct {
	ID   string
	Kind GeometryKind
	SRID int
	// Value is the simple geometry. For surfaces and curves it is the patch
	// or segment geometry.
	Value    geom.T
	Patches  []*geom.Polygon
	Segments []*geom.LineString
	// Element is the application schema geometry element, if any.
	Element    schema.QName
	Properties []*Property
}

// AsSurface returns the polygon of g wrapped as a surface with one patch.
// It returns false if g is not a polygon.
func (g *Geometry) AsSurface() (*Geometry, bool) {
	p, ok := g.Value.(*geom.Polygon)
	if !ok || g.Kind != Simple {
		return nil, false
	}
	s := *g
	s.Kind, s.Patches = Surface, []*geom.Polygon{p}
	return &s, true
}

// AsCurve returns the line string of g wrapped as a curve with one segment.
// It returns false if g is not a line string.
func (g *Geometry) AsCurve() (*Geometry, bool) {
	l, ok := g.Value.(*geom.LineString)
	if !ok || g.Kind != Simple {
		return nil, false
	}
	c := *g
	c.Kind, c.Segments = Curve, []*geom.LineString{l}
	return &c, true
}

// Property is a property of a feature or geometry.
type Property struct {
	Name     schema.QName
	Type     *schema.PropertyType
	Attrs    Attributes
	Children []Node
}

// Nilled reports whether the property is marked xsi:nil.
func (p *Property) Nilled() bool { return p.Attrs.Nilled() }

// Value returns the single child of the property, or nil.
func (p *Property) Value() Node {
	if len(p.Children) != 1 {
		return nil
	}
	return p.Children[0]
}

// Feature is a reconstructed feature.
type Feature struct {
	ID         string
	Type       schema.QName
	Properties []*Property
}

// Property returns the properties with the given name, in order.
func (f *Feature) Property(name schema.QName) []*Property {
	var ps []*Property
	for _, p := range f.Properties {
		if p.Name == name {
			ps = append(ps, p)
		}
	}
	return ps
}

func (PrimitiveValue) node() {}
func (*Element) node()       {}
func (*Reference) node()     {}
func (*Geometry) node()      {}
