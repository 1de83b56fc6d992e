package materialize

import (
	"github.com/syssam/sqlfs/feature"
	"github.com/syssam/sqlfs/mapping"
	"github.com/syssam/sqlfs/schema"
)

func (b *Builder) compound(c *mapping.Compound, fr frame) ([]feature.Node, error) {
	el := &feature.Element{Name: c.Path.Name, Decl: c.Decl}
	escalate := false
	for _, child := range c.Children {
		cb := child.Base()
		if cb.SkipOnReconstruct || child.Kind() == mapping.SQLExpressionKind {
			continue
		}
		prefix := fr.prefix
		if cb.Path.Axis != mapping.SelfAxis {
			prefix += "_" + cb.Path.IDPrefix()
		}
		values, err := b.particle(child, fr.with(fr.rows, fr.plan, prefix, fr.scope))
		if err != nil {
			return nil, err
		}
		if len(values) == 0 {
			if !cb.Voidable && b.escalate {
				escalate = true
			}
			continue
		}
		switch cb.Path.Axis {
		case mapping.AttributeAxis:
			for _, v := range values {
				pv, ok := v.(feature.PrimitiveValue)
				if !ok {
					b.logger.WarnContext(fr.ctx, "omitting non-primitive attribute value", "feature", fr.fid, "path", cb.Path.String())
					continue
				}
				el.Attrs.Set(cb.Path.Name, pv)
			}
		case mapping.SelfAxis:
			el.Children = append(el.Children, values...)
		default:
			for _, v := range values {
				switch v := v.(type) {
				case *feature.Element:
					if v.Name == cb.Path.Name {
						el.Children = append(el.Children, v)
						continue
					}
				case *feature.Geometry:
					if v.Element == cb.Path.Name {
						el.Children = append(el.Children, v)
						continue
					}
				}
				el.Children = append(el.Children, &feature.Element{Name: cb.Path.Name, Children: []feature.Node{v}})
			}
		}
	}

	switch {
	case len(el.Attrs) == 0 && len(el.Children) == 0 && !escalate:
		return nil, nil
	case el.Attrs.Nilled():
		el.Children = nil
		return []feature.Node{el}, nil
	case escalate && c.Voidable:
		return nil, nil
	case escalate && c.Decl != nil && c.Decl.Nillable:
		for _, name := range c.Decl.RequiredAttributes {
			if _, ok := el.Attrs.Get(name); !ok {
				return nil, nil
			}
		}
		el.Children = nil
		el.Attrs.Set(schema.XSINil, feature.PrimitiveValue{Value: true, Type: schema.Boolean})
		return []feature.Node{el}, nil
	case escalate:
		return nil, nil
	}
	if ge, ok := b.schema.Schema().GeometryElement(el.Name); ok {
		g := b.geometryElement(el, ge)
		if g == nil {
			return nil, nil
		}
		return []feature.Node{g}, nil
	}
	return []feature.Node{el}, nil
}

// geometryElement unwraps an element standing for a geometry: its geometry
// child becomes the value and the other children its properties.
func (b *Builder) geometryElement(el *feature.Element, ge *schema.GeometryElement) *feature.Geometry {
	var g *feature.Geometry
	var props []*feature.Property
	for _, child := range el.Children {
		if cg, ok := child.(*feature.Geometry); ok && g == nil {
			g = cg
			continue
		}
		e, ok := child.(*feature.Element)
		if !ok {
			continue
		}
		if len(e.Children) == 1 && g == nil {
			if cg, ok := e.Children[0].(*feature.Geometry); ok {
				g = cg
				continue
			}
		}
		p := &feature.Property{Name: e.Name, Attrs: e.Attrs, Children: e.Children}
		if pt, ok := ge.Property(e.Name); ok {
			p.Type = &pt
		}
		props = append(props, p)
	}
	if g == nil {
		return nil
	}
	h := b.schema.Schema().Hierarchy()
	switch {
	case h.IsSurfaceSubstitution(el.Name):
		if s, ok := g.AsSurface(); ok {
			g = s
		}
	case h.IsCurveSubstitution(el.Name):
		if c, ok := g.AsCurve(); ok {
			g = c
		}
	}
	ng := *g
	ng.Element = el.Name
	ng.Properties = props
	return &ng
}
