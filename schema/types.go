package schema

import (
	"fmt"
	"math/big"
	"strings"
)

// BaseType is the scalar type of a primitive value.
type BaseType uint8

// Base types, named after their XML schema counterparts.
const (
	String BaseType = iota
	Boolean
	Decimal
	Double
	Integer
	Date
	DateTime
	Time
)

var baseTypeNames = [...]string{
	String:   "string",
	Boolean:  "boolean",
	Decimal:  "decimal",
	Double:   "double",
	Integer:  "integer",
	Date:     "date",
	DateTime: "dateTime",
	Time:     "time",
}

// String returns the XML schema name of the type.
func (t BaseType) String() string {
	if int(t) < len(baseTypeNames) {
		return baseTypeNames[t]
	}
	return fmt.Sprintf("BaseType(%d)", t)
}

// ParseBaseType returns the base type with the given name. Matching is
// case-insensitive.
func ParseBaseType(s string) (BaseType, error) {
	for i, name := range baseTypeNames {
		if strings.EqualFold(name, s) {
			return BaseType(i), nil
		}
	}
	return 0, fmt.Errorf("schema: unknown base type %q", s)
}

// GeometryType is the kind of a geometry value.
type GeometryType uint8

// Geometry types. Curve and Surface (and their multi variants) are the
// richer GML shapes that LineString and Polygon values may be promoted to.
const (
	Geometry GeometryType = iota
	Point
	LineString
	Polygon
	MultiPoint
	MultiLineString
	MultiPolygon
	Curve
	Surface
	MultiCurve
	MultiSurface
	GeometryCollection
)

var geometryTypeNames = [...]string{
	Geometry:           "GEOMETRY",
	Point:              "POINT",
	LineString:         "LINESTRING",
	Polygon:            "POLYGON",
	MultiPoint:         "MULTIPOINT",
	MultiLineString:    "MULTILINESTRING",
	MultiPolygon:       "MULTIPOLYGON",
	Curve:              "CURVE",
	Surface:            "SURFACE",
	MultiCurve:         "MULTICURVE",
	MultiSurface:       "MULTISURFACE",
	GeometryCollection: "GEOMETRYCOLLECTION",
}

// String returns the upper-case name used in spatial DDL.
func (t GeometryType) String() string {
	if int(t) < len(geometryTypeNames) {
		return geometryTypeNames[t]
	}
	return fmt.Sprintf("GeometryType(%d)", t)
}

// ParseGeometryType returns the geometry type with the given name.
// Matching is case-insensitive.
func ParseGeometryType(s string) (GeometryType, error) {
	for i, name := range geometryTypeNames {
		if strings.EqualFold(name, s) {
			return GeometryType(i), nil
		}
	}
	return 0, fmt.Errorf("schema: unknown geometry type %q", s)
}

// maxDecimalScale bounds the fractional digits of FormatDecimal for values
// without a terminating decimal expansion.
const maxDecimalScale = 64

// FormatDecimal returns r in plain decimal notation with the fewest
// fractional digits that represent it exactly.
func FormatDecimal(r *big.Rat) string {
	if r.IsInt() {
		return r.Num().String()
	}
	var exact big.Rat
	for scale := 1; scale < maxDecimalScale; scale++ {
		s := r.FloatString(scale)
		if _, ok := exact.SetString(s); ok && exact.Cmp(r) == 0 {
			return s
		}
	}
	return r.FloatString(maxDecimalScale)
}
