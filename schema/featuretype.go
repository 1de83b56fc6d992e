package schema

// Unbounded is the MaxOccurs value of a property without an upper bound.
const Unbounded = -1

// PropertyType declares one property of a feature type.
type PropertyType struct {
	Name      QName
	MinOccurs int
	MaxOccurs int // Unbounded for no limit
	Nillable  bool
}

// Required reports whether at least one occurrence of the property is expected.
func (p PropertyType) Required() bool {
	return p.MinOccurs > 0
}

// FeatureType is a named feature type with an ordered list of property
// declarations.
type FeatureType struct {
	Name       QName
	Properties []PropertyType
	Abstract   bool
}

// Property returns the declaration of the named property.
func (ft *FeatureType) Property(name QName) (PropertyType, bool) {
	for _, p := range ft.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return PropertyType{}, false
}

// PropertyIndex returns the declaration position of the named property,
// or -1 if the feature type does not declare it.
func (ft *FeatureType) PropertyIndex(name QName) int {
	for i, p := range ft.Properties {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// ElementDecl is the part of a complex element declaration needed to
// represent absence: whether the element may be nilled, and which
// attributes must be present even on a nilled element.
type ElementDecl struct {
	Name               QName
	Nillable           bool
	RequiredAttributes []QName
}

// GeometryElement declares an element that stands for a geometry.
type GeometryElement struct {
	Name       QName
	Type       GeometryType
	Properties []PropertyType
}

// Property returns the declaration of the named geometry property.
func (g *GeometryElement) Property(name QName) (PropertyType, bool) {
	for _, p := range g.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return PropertyType{}, false
}
