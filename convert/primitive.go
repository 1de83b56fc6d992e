package convert

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/syssam/sqlfs/feature"
	"github.com/syssam/sqlfs/mapping"
	"github.com/syssam/sqlfs/schema"
)

type primitive struct {
	m *mapping.Primitive
}

func (c *primitive) SelectTerms(alias string) []string {
	return []string{term(alias, c.m.Value)}
}

func (c *primitive) ToParticle(values []any) (feature.Node, error) {
	if len(values) == 0 || values[0] == nil {
		return nil, nil
	}
	v, err := Primitive(values[0], c.m.Type)
	if err != nil {
		return nil, fmt.Errorf("convert: %s: %w", c.m.Path, err)
	}
	return v, nil
}

// Time layouts accepted for temporal values returned as text.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
	"15:04:05.999999999",
}

// Primitive converts a database value to a primitive of type t. Values of
// []byte are treated as text.
func Primitive(v any, t schema.BaseType) (feature.PrimitiveValue, error) {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	pv := feature.PrimitiveValue{Type: t}
	var err error
	switch t {
	case schema.String:
		pv.Value = mapping.FormatValue(v)
	case schema.Boolean:
		pv.Value, err = toBool(v)
	case schema.Integer:
		pv.Value, err = toInt(v)
	case schema.Decimal:
		pv.Value, err = toDecimal(v)
	case schema.Double:
		pv.Value, err = toFloat(v)
	case schema.Date, schema.DateTime, schema.Time:
		pv.Value, err = toTime(v)
	default:
		err = fmt.Errorf("unknown base type %s", t)
	}
	return pv, err
}

func toBool(v any) (bool, error) {
	switch v := v.(type) {
	case bool:
		return v, nil
	case int64:
		return v != 0, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(v))
	}
	return false, fmt.Errorf("cannot convert %T to boolean", v)
}

func toInt(v any) (int64, error) {
	switch v := v.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		s := strings.TrimSpace(v)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
		// NUMBER columns without scale may come back as "12.0".
		f, err := strconv.ParseFloat(s, 64)
		return int64(f), err
	}
	return 0, fmt.Errorf("cannot convert %T to integer", v)
}

func toFloat(v any) (float64, error) {
	switch v := v.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	}
	return 0, fmt.Errorf("cannot convert %T to double", v)
}

func toDecimal(v any) (*big.Rat, error) {
	switch v := v.(type) {
	case int64:
		return new(big.Rat).SetInt64(v), nil
	case float64:
		return toDecimal(strconv.FormatFloat(v, 'g', -1, 64))
	case float32:
		return toDecimal(strconv.FormatFloat(float64(v), 'g', -1, 32))
	case string:
		r, ok := new(big.Rat).SetString(strings.TrimSpace(v))
		if !ok {
			return nil, fmt.Errorf("invalid decimal %q", v)
		}
		return r, nil
	}
	return nil, fmt.Errorf("cannot convert %T to decimal", v)
}

func toTime(v any) (time.Time, error) {
	switch v := v.(type) {
	case time.Time:
		return v, nil
	case string:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized time value %q", v)
	}
	return time.Time{}, fmt.Errorf("cannot convert %T to time", v)
}
