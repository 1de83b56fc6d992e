// Package blob encodes feature value trees for storage in BLOB columns.
//
// Trees are serialized with msgpack; geometries are embedded as
// little-endian WKB.
package blob

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/twpayne/go-geom/encoding/wkb"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/sqlfs/feature"
	"github.com/syssam/sqlfs/schema"
)

// ErrUnknownNode is returned when decoding a node of an unknown kind.
var ErrUnknownNode = errors.New("blob: unknown node kind")

const (
	kindPrimitive uint8 = iota + 1
	kindElement
	kindReference
	kindGeometry
	kindProperty
)

type name struct {
	Space string `msgpack:"s,omitempty"`
	Local string `msgpack:"l"`
}

type attr struct {
	Name  name   `msgpack:"n"`
	Value *value `msgpack:"v"`
}

// value holds a primitive in the field matching its base type.
type value struct {
	Type   uint8     `msgpack:"t"`
	Null   bool      `msgpack:"z,omitempty"`
	String string    `msgpack:"s,omitempty"`
	Bool   bool      `msgpack:"b,omitempty"`
	Int    int64     `msgpack:"i,omitempty"`
	Float  float64   `msgpack:"f,omitempty"`
	Time   time.Time `msgpack:"d,omitempty"`
}

type node struct {
	Kind     uint8   `msgpack:"k"`
	Name     *name   `msgpack:"n,omitempty"`
	Attrs    []attr  `msgpack:"a,omitempty"`
	Children []*node `msgpack:"c,omitempty"`
	Value    *value  `msgpack:"v,omitempty"`
	Href     string  `msgpack:"h,omitempty"`
	ID       string  `msgpack:"id,omitempty"`
	GeomKind uint8   `msgpack:"gk,omitempty"`
	SRID     int     `msgpack:"srid,omitempty"`
	WKB      []byte  `msgpack:"wkb,omitempty"`
}

// Encode serializes a node tree.
func Encode(n feature.Node) ([]byte, error) {
	w, err := fromNode(n)
	if err != nil {
		return nil, err
	}
	b, err := msgpack.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("blob: encode: %w", err)
	}
	return b, nil
}

// Decode deserializes a node tree written by Encode.
func Decode(b []byte) (feature.Node, error) {
	var w node
	if err := msgpack.Unmarshal(b, &w); err != nil {
		return nil, fmt.Errorf("blob: decode: %w", err)
	}
	return toNode(&w)
}

func fromName(n schema.QName) *name {
	if n.IsZero() {
		return nil
	}
	return &name{Space: n.Space, Local: n.Local}
}

func (n *name) qname() schema.QName {
	if n == nil {
		return schema.QName{}
	}
	return schema.QName{Space: n.Space, Local: n.Local}
}

func fromValue(v feature.PrimitiveValue) (*value, error) {
	w := &value{Type: uint8(v.Type)}
	switch x := v.Value.(type) {
	case nil:
		w.Null = true
	case string:
		w.String = x
	case bool:
		w.Bool = x
	case int64:
		w.Int = x
	case float64:
		w.Float = x
	case *big.Rat:
		w.String = x.RatString()
	case time.Time:
		w.Time = x
	default:
		return nil, fmt.Errorf("blob: unsupported primitive value %T", v.Value)
	}
	return w, nil
}

func (w *value) primitive() feature.PrimitiveValue {
	v := feature.PrimitiveValue{Type: schema.BaseType(w.Type)}
	switch {
	case w.Null:
	case v.Type == schema.Boolean:
		v.Value = w.Bool
	case v.Type == schema.Integer:
		v.Value = w.Int
	case v.Type == schema.Decimal:
		r, ok := new(big.Rat).SetString(w.String)
		if !ok {
			r = new(big.Rat).SetFloat64(w.Float)
		}
		v.Value = r
	case v.Type == schema.Double:
		v.Value = w.Float
	case v.Type == schema.Date || v.Type == schema.DateTime || v.Type == schema.Time:
		v.Value = w.Time
	default:
		v.Value = w.String
	}
	return v
}

func fromAttrs(as feature.Attributes) ([]attr, error) {
	var ws []attr
	for _, a := range as {
		v, err := fromValue(a.Value)
		if err != nil {
			return nil, err
		}
		ws = append(ws, attr{Name: *fromName(a.Name), Value: v})
	}
	return ws, nil
}

func fromChildren(ns []feature.Node) ([]*node, error) {
	var ws []*node
	for _, n := range ns {
		w, err := fromNode(n)
		if err != nil {
			return nil, err
		}
		ws = append(ws, w)
	}
	return ws, nil
}

func fromProperty(p *feature.Property) (*node, error) {
	w := &node{Kind: kindProperty, Name: fromName(p.Name)}
	var err error
	if w.Attrs, err = fromAttrs(p.Attrs); err != nil {
		return nil, err
	}
	if w.Children, err = fromChildren(p.Children); err != nil {
		return nil, err
	}
	return w, nil
}

func fromNode(n feature.Node) (*node, error) {
	var err error
	switch n := n.(type) {
	case feature.PrimitiveValue:
		w := &node{Kind: kindPrimitive}
		w.Value, err = fromValue(n)
		return w, err
	case *feature.Element:
		w := &node{Kind: kindElement, Name: fromName(n.Name)}
		if w.Attrs, err = fromAttrs(n.Attrs); err != nil {
			return nil, err
		}
		w.Children, err = fromChildren(n.Children)
		return w, err
	case *feature.Reference:
		return &node{Kind: kindReference, Href: n.Href, Name: fromName(n.FeatureType)}, nil
	case *feature.Geometry:
		w := &node{Kind: kindGeometry, ID: n.ID, GeomKind: uint8(n.Kind), SRID: n.SRID, Name: fromName(n.Element)}
		if n.Value != nil {
			if w.WKB, err = wkb.Marshal(n.Value, wkb.NDR); err != nil {
				return nil, fmt.Errorf("blob: encode geometry %s: %w", n.ID, err)
			}
		}
		for _, p := range n.Properties {
			pw, err := fromProperty(p)
			if err != nil {
				return nil, err
			}
			w.Children = append(w.Children, pw)
		}
		return w, nil
	default:
		return nil, fmt.Errorf("blob: cannot encode %T", n)
	}
}

func toAttrs(ws []attr) feature.Attributes {
	var as feature.Attributes
	for _, w := range ws {
		as.Set(w.Name.qname(), w.Value.primitive())
	}
	return as
}

func toChildren(ws []*node) ([]feature.Node, error) {
	var ns []feature.Node
	for _, w := range ws {
		n, err := toNode(w)
		if err != nil {
			return nil, err
		}
		ns = append(ns, n)
	}
	return ns, nil
}

func toNode(w *node) (feature.Node, error) {
	switch w.Kind {
	case kindPrimitive:
		if w.Value == nil {
			return feature.PrimitiveValue{}, nil
		}
		return w.Value.primitive(), nil
	case kindElement:
		children, err := toChildren(w.Children)
		if err != nil {
			return nil, err
		}
		return &feature.Element{Name: w.Name.qname(), Attrs: toAttrs(w.Attrs), Children: children}, nil
	case kindReference:
		return &feature.Reference{Href: w.Href, FeatureType: w.Name.qname()}, nil
	case kindGeometry:
		return toGeometry(w)
	default:
		return nil, fmt.Errorf("%w %d", ErrUnknownNode, w.Kind)
	}
}

func toGeometry(w *node) (*feature.Geometry, error) {
	g := &feature.Geometry{ID: w.ID, SRID: w.SRID, Element: w.Name.qname()}
	if len(w.WKB) > 0 {
		v, err := wkb.Unmarshal(w.WKB)
		if err != nil {
			return nil, fmt.Errorf("blob: decode geometry %s: %w", w.ID, err)
		}
		g.Value = v
	}
	for _, pw := range w.Children {
		if pw.Kind != kindProperty {
			return nil, fmt.Errorf("%w %d in geometry %s", ErrUnknownNode, pw.Kind, w.ID)
		}
		children, err := toChildren(pw.Children)
		if err != nil {
			return nil, err
		}
		g.Properties = append(g.Properties, &feature.Property{Name: pw.Name.qname(), Attrs: toAttrs(pw.Attrs), Children: children})
	}
	switch feature.GeometryKind(w.GeomKind) {
	case feature.Surface:
		if s, ok := g.AsSurface(); ok {
			return s, nil
		}
	case feature.Curve:
		if c, ok := g.AsCurve(); ok {
			return c, nil
		}
	}
	return g, nil
}
