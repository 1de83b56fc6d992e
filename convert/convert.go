// Package convert turns the selected column values of leaf mappings into
// feature values.
//
// A Converter knows the select terms a mapping needs and how to decode the
// values the database returns for them. Terms are qualified by the table
// alias the mapping's value is read from.
package convert

import (
	"fmt"

	sqlschema "github.com/syssam/sqlfs/dialect/sql/schema"
	"github.com/syssam/sqlfs/feature"
	"github.com/syssam/sqlfs/mapping"
)

// Converter selects and decodes the value of one leaf mapping.
type Converter interface {
	// SelectTerms returns the select list terms of the mapping.
	SelectTerms(alias string) []string
	// ToParticle decodes the values of the select terms, in order. It
	// returns nil if the value is NULL.
	ToParticle(values []any) (feature.Node, error)
}

// Option configures a converter.
type Option func(*config)

type config struct {
	schema *mapping.MappedSchema
}

// WithSchema formats referenced keys as feature ids using the id mapping
// of the referenced feature type.
func WithSchema(ms *mapping.MappedSchema) Option {
	return func(c *config) {
		c.schema = ms
	}
}

// For returns the converter of a leaf mapping. Compound and SQL expression
// mappings have no converter.
func For(m mapping.Mapping, d sqlschema.Dialect, opts ...Option) (Converter, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	switch m := m.(type) {
	case *mapping.Primitive:
		return &primitive{m: m}, nil
	case *mapping.Geometry:
		return newGeometry(m, d), nil
	case *mapping.FeatureRef:
		return newFeatureRef(m, cfg), nil
	case *mapping.Blob:
		return &blobConverter{m: m}, nil
	case *mapping.Compound, *mapping.SQLExpression:
		return nil, fmt.Errorf("convert: no converter for %s mapping %s", m.Kind(), m.Base().Path)
	default:
		panic(fmt.Sprintf("convert: unexpected mapping %T", m))
	}
}

func term(alias string, e mapping.Expression) string {
	if col, ok := mapping.Column(e); ok {
		return alias + "." + col
	}
	return e.String()
}
