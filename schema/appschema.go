package schema

import (
	"fmt"
	"maps"
	"slices"
)

// GeometryHierarchy records which geometry elements substitute for the
// abstract GML surface and curve elements.
type GeometryHierarchy struct {
	surfaces map[QName]struct{}
	curves   map[QName]struct{}
}

// IsSurfaceSubstitution reports whether the element stands for a surface.
func (h *GeometryHierarchy) IsSurfaceSubstitution(name QName) bool {
	_, ok := h.surfaces[name]
	return ok
}

// IsCurveSubstitution reports whether the element stands for a curve.
func (h *GeometryHierarchy) IsCurveSubstitution(name QName) bool {
	_, ok := h.curves[name]
	return ok
}

// AppSchema is an immutable application schema.
type AppSchema struct {
	featureTypes []*FeatureType
	byName       map[QName]*FeatureType
	geometries   map[QName]*GeometryElement
	hierarchy    *GeometryHierarchy
	namespaces   map[string]string
}

// Option configures an AppSchema.
type Option func(*AppSchema)

// WithNamespace binds a namespace prefix.
func WithNamespace(prefix, uri string) Option {
	return func(s *AppSchema) {
		s.namespaces[prefix] = uri
	}
}

// WithGeometryElement declares a geometry element. Elements of type Surface
// or MultiSurface are recorded as surface substitutions, Curve and
// MultiCurve as curve substitutions.
func WithGeometryElement(name QName, typ GeometryType, props ...PropertyType) Option {
	return func(s *AppSchema) {
		s.geometries[name] = &GeometryElement{Name: name, Type: typ, Properties: props}
		switch typ {
		case Surface, MultiSurface:
			s.hierarchy.surfaces[name] = struct{}{}
		case Curve, MultiCurve:
			s.hierarchy.curves[name] = struct{}{}
		}
	}
}

// New returns an application schema over the given feature types, in
// declaration order. Feature type names must be unique.
func New(fts []*FeatureType, opts ...Option) (*AppSchema, error) {
	s := &AppSchema{
		byName:     make(map[QName]*FeatureType, len(fts)),
		geometries: make(map[QName]*GeometryElement),
		hierarchy: &GeometryHierarchy{
			surfaces: make(map[QName]struct{}),
			curves:   make(map[QName]struct{}),
		},
		namespaces: make(map[string]string),
	}
	for _, ft := range fts {
		if ft == nil || ft.Name.IsZero() {
			return nil, fmt.Errorf("schema: feature type without name")
		}
		if _, ok := s.byName[ft.Name]; ok {
			return nil, fmt.Errorf("schema: duplicate feature type %s", ft.Name)
		}
		s.byName[ft.Name] = ft
		s.featureTypes = append(s.featureTypes, ft)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// FeatureTypes returns the feature types in declaration order.
func (s *AppSchema) FeatureTypes() []*FeatureType {
	return slices.Clone(s.featureTypes)
}

// FeatureType returns the named feature type.
func (s *AppSchema) FeatureType(name QName) (*FeatureType, bool) {
	ft, ok := s.byName[name]
	return ft, ok
}

// GeometryElement returns the named geometry element declaration.
func (s *AppSchema) GeometryElement(name QName) (*GeometryElement, bool) {
	g, ok := s.geometries[name]
	return g, ok
}

// Hierarchy returns the geometry substitution hierarchy.
func (s *AppSchema) Hierarchy() *GeometryHierarchy {
	return s.hierarchy
}

// Namespace resolves a namespace prefix.
func (s *AppSchema) Namespace(prefix string) (string, bool) {
	uri, ok := s.namespaces[prefix]
	return uri, ok
}

// Namespaces returns a copy of the prefix bindings.
func (s *AppSchema) Namespaces() map[string]string {
	return maps.Clone(s.namespaces)
}
