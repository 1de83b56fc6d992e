package feature

import (
	"encoding/json"
	"math/big"
	"time"

	"github.com/syssam/sqlfs/schema"

	"github.com/twpayne/go-geom/encoding/wkt"
)

type jsonAttrs map[string]any

func (as Attributes) jsonMap() jsonAttrs {
	if len(as) == 0 {
		return nil
	}
	m := make(jsonAttrs, len(as))
	for _, a := range as {
		m[a.Name.String()] = a.Value.jsonValue()
	}
	return m
}

func (v PrimitiveValue) jsonValue() any {
	switch x := v.Value.(type) {
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case *big.Rat:
		return json.Number(schema.FormatDecimal(x))
	}
	return v.Value
}

// MarshalJSON encodes the bare value.
func (v PrimitiveValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.jsonValue())
}

// MarshalJSON implements json.Marshaler.
func (e *Element) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name     string    `json:"name"`
		Attrs    jsonAttrs `json:"attributes,omitempty"`
		Children []Node    `json:"children,omitempty"`
	}{e.Name.String(), e.Attrs.jsonMap(), e.Children})
}

// MarshalJSON implements json.Marshaler.
func (r *Reference) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Href        string `json:"href"`
		FeatureType string `json:"featureType,omitempty"`
	}{r.Href, r.FeatureType.String()})
}

// MarshalJSON encodes the geometry as WKT.
func (g *Geometry) MarshalJSON() ([]byte, error) {
	var text string
	if g.Value != nil {
		var err error
		if text, err = wkt.Marshal(g.Value); err != nil {
			return nil, err
		}
	}
	kind := map[GeometryKind]string{Simple: "", Surface: "Surface", Curve: "Curve"}[g.Kind]
	return json.Marshal(struct {
		ID         string      `json:"id,omitempty"`
		Kind       string      `json:"kind,omitempty"`
		SRID       int         `json:"srid,omitempty"`
		WKT        string      `json:"wkt"`
		Element    string      `json:"element,omitempty"`
		Properties []*Property `json:"properties,omitempty"`
	}{g.ID, kind, g.SRID, text, g.Element.String(), g.Properties})
}

// MarshalJSON implements json.Marshaler.
func (p *Property) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name     string    `json:"name"`
		Attrs    jsonAttrs `json:"attributes,omitempty"`
		Children []Node    `json:"children,omitempty"`
	}{p.Name.String(), p.Attrs.jsonMap(), p.Children})
}

// MarshalJSON implements json.Marshaler.
func (f *Feature) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID         string      `json:"id"`
		Type       string      `json:"type"`
		Properties []*Property `json:"properties"`
	}{f.ID, f.Type.String(), f.Properties})
}
