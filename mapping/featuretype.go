package mapping

import (
	"slices"

	"github.com/syssam/sqlfs"
	"github.com/syssam/sqlfs/schema"
)

// FeatureTypeMapping maps one feature type onto its root table.
type FeatureTypeMapping struct {
	name       schema.QName
	table      string
	fid        *FIDMapping
	typeColumn string
	particles  []Mapping
}

// FeatureTypeOption configures a FeatureTypeMapping.
type FeatureTypeOption func(*FeatureTypeMapping)

// WithTypeColumn sets the discriminator column storing the concrete feature
// type of a row, for tables shared by several feature types.
func WithTypeColumn(col string) FeatureTypeOption {
	return func(m *FeatureTypeMapping) {
		m.typeColumn = col
	}
}

// NewFeatureTypeMapping returns the mapping of feature type name onto table.
// Top-level particles must address distinct steps.
func NewFeatureTypeMapping(name schema.QName, table string, fid *FIDMapping, particles []Mapping, opts ...FeatureTypeOption) (*FeatureTypeMapping, error) {
	switch {
	case name.IsZero():
		return nil, sqlfs.NewConfigurationError(table, "feature type mapping without feature type")
	case table == "":
		return nil, sqlfs.NewConfigurationError(name.String(), "feature type mapping without table")
	case fid == nil:
		return nil, sqlfs.NewConfigurationError(name.String(), "feature type mapping without feature id mapping")
	}
	m := &FeatureTypeMapping{name: name, table: table, fid: fid}
	for _, opt := range opts {
		opt(m)
	}
	seen := make(map[Path]struct{}, len(particles))
	for _, p := range particles {
		if p == nil {
			continue
		}
		if err := validate(p); err != nil {
			return nil, err
		}
		key := p.Base().Path.Key()
		if _, ok := seen[key]; ok {
			return nil, sqlfs.NewConfigurationError(p.Base().Path.String(), "duplicate particle in feature type mapping %s", name)
		}
		seen[key] = struct{}{}
		m.particles = append(m.particles, p)
	}
	return m, nil
}

func validate(m Mapping) error {
	var err error
	Walk(m, func(m Mapping) bool {
		b := m.Base()
		switch {
		case err != nil:
			return false
		case b.Path.IsZero():
			err = sqlfs.NewConfigurationError(m.Kind().String(), "particle without path")
		case slices.Contains(b.Joins, nil):
			err = sqlfs.NewConfigurationError(b.Path.String(), "nil join step")
		}
		if r, ok := m.(*FeatureRef); ok && err == nil && len(r.Joins) == 0 && r.Href == nil {
			err = sqlfs.NewConfigurationError(b.Path.String(), "feature reference needs a join or an href column")
		}
		return err == nil
	})
	return err
}

// Name returns the mapped feature type.
func (m *FeatureTypeMapping) Name() schema.QName { return m.name }

// Table returns the root table.
func (m *FeatureTypeMapping) Table() string { return m.table }

// FID returns the feature id mapping.
func (m *FeatureTypeMapping) FID() *FIDMapping { return m.fid }

// TypeColumn returns the discriminator column, or "" if none is configured.
func (m *FeatureTypeMapping) TypeColumn() string { return m.typeColumn }

// Mappings returns the top-level particles in order.
func (m *FeatureTypeMapping) Mappings() []Mapping { return slices.Clone(m.particles) }

// Mapping returns the first top-level particle addressing the named element.
func (m *FeatureTypeMapping) Mapping(name schema.QName) (Mapping, bool) {
	for _, p := range m.particles {
		if path := p.Base().Path; path.Axis == ChildAxis && path.Name == name {
			return p, true
		}
	}
	return nil, false
}

// Merge combines m with other into a new mapping. Both must map the same
// feature type onto the same table, and each property may be mapped by one
// side only. Properties are ordered as ft declares them; the discriminator
// column of other wins if set.
func (m *FeatureTypeMapping) Merge(other *FeatureTypeMapping, ft *schema.FeatureType) (*FeatureTypeMapping, error) {
	switch {
	case m.name != other.name:
		return nil, sqlfs.NewConfigurationError(m.name.String(), "cannot merge with mapping of %s: different feature types", other.name)
	case m.table != other.table:
		return nil, sqlfs.NewConfigurationError(m.name.String(), "cannot merge mappings: different tables %s and %s", m.table, other.table)
	}
	declared := make(map[schema.QName]bool, len(ft.Properties))
	for _, pt := range ft.Properties {
		declared[pt.Name] = true
	}
	for _, p := range append(m.Mappings(), other.Mappings()...) {
		if path := p.Base().Path; path.Axis != ChildAxis || !declared[path.Name] {
			return nil, sqlfs.NewConfigurationError(m.name.String(), "cannot merge mappings: %s is not a property of %s", path, ft.Name)
		}
	}
	merged := &FeatureTypeMapping{name: m.name, table: m.table, fid: m.fid, typeColumn: m.typeColumn}
	if other.typeColumn != "" {
		merged.typeColumn = other.typeColumn
	}
	for _, pt := range ft.Properties {
		mine, theirs := m.byProperty(pt.Name), other.byProperty(pt.Name)
		if len(mine) > 0 && len(theirs) > 0 {
			return nil, sqlfs.NewConfigurationError(m.name.String(), "cannot merge mappings: property %s is re-mapped", pt.Name)
		}
		merged.particles = append(merged.particles, mine...)
		merged.particles = append(merged.particles, theirs...)
	}
	return merged, nil
}

func (m *FeatureTypeMapping) byProperty(name schema.QName) []Mapping {
	var ps []Mapping
	for _, p := range m.particles {
		if path := p.Base().Path; path.Axis == ChildAxis && path.Name == name {
			ps = append(ps, p)
		}
	}
	return ps
}

// DefaultGeometryMapping returns the first geometry particle, searching
// top-level particles before descending into compounds, and the table that
// holds it.
func (m *FeatureTypeMapping) DefaultGeometryMapping() (*Geometry, string, bool) {
	return defaultGeometry(m.table, m.particles)
}

func defaultGeometry(table string, particles []Mapping) (*Geometry, string, bool) {
	for _, p := range particles {
		if g, ok := p.(*Geometry); ok {
			if n := len(g.Joins); n > 0 {
				table = g.Joins[n-1].ToTable
			}
			return g, table, true
		}
	}
	for _, p := range particles {
		c, ok := p.(*Compound)
		if !ok {
			continue
		}
		t := table
		if n := len(c.Joins); n > 0 {
			t = c.Joins[n-1].ToTable
		}
		if g, gt, ok := defaultGeometry(t, c.Children); ok {
			return g, gt, true
		}
	}
	return nil, "", false
}
