package convert

import (
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	"github.com/twpayne/go-geom/encoding/wkt"

	sqlschema "github.com/syssam/sqlfs/dialect/sql/schema"
	"github.com/syssam/sqlfs/feature"
	"github.com/syssam/sqlfs/mapping"
	"github.com/syssam/sqlfs/schema"
)

type geometry struct {
	m   *mapping.Geometry
	d   sqlschema.Dialect
	enc sqlschema.GeometryEncoding
}

func newGeometry(m *mapping.Geometry, d sqlschema.Dialect) *geometry {
	_, enc := d.GeometrySelect("")
	return &geometry{m: m, d: d, enc: enc}
}

func (c *geometry) SelectTerms(alias string) []string {
	if _, ok := mapping.Column(c.m.Value); !ok {
		return []string{term(alias, c.m.Value)}
	}
	expr, _ := c.d.GeometrySelect(term(alias, c.m.Value))
	return []string{expr}
}

func (c *geometry) ToParticle(values []any) (feature.Node, error) {
	if len(values) == 0 || values[0] == nil {
		return nil, nil
	}
	g, err := Geometry(values[0], c.enc)
	if err != nil {
		return nil, fmt.Errorf("convert: %s: %w", c.m.Path, err)
	}
	fg := &feature.Geometry{SRID: c.m.SRID, Value: g}
	switch c.m.Type {
	case schema.Surface:
		if s, ok := fg.AsSurface(); ok {
			return s, nil
		}
	case schema.Curve:
		if cv, ok := fg.AsCurve(); ok {
			return cv, nil
		}
	}
	return fg, nil
}

// Geometry decodes a selected geometry value. Binary values are decoded
// as WKB unless enc is WKT; text values are always WKT.
func Geometry(v any, enc sqlschema.GeometryEncoding) (geom.T, error) {
	switch v := v.(type) {
	case []byte:
		if enc == sqlschema.WKT {
			return wkt.Unmarshal(string(v))
		}
		return wkb.Unmarshal(v)
	case string:
		return wkt.Unmarshal(v)
	}
	return nil, fmt.Errorf("cannot decode geometry from %T", v)
}
