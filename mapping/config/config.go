// Package config loads a mapped schema from its YAML description.
//
//	namespaces:
//	  app: http://www.example.org/app
//	featureTypes:
//	  - name: app:Road
//	    properties:
//	      - {name: app:name, minOccurs: 1}
//	      - {name: app:lane, maxOccurs: unbounded}
//	mappings:
//	  - featureType: app:Road
//	    fid: {prefix: ROAD_, columns: [{name: id, type: integer}]}
//	    particles:
//	      - path: app:name
//	      - path: app:lane
//	        column: width
//	        type: double
//	        joins:
//	          - {from: [id], table: road_lane, to: [road_id], order: [idx]}
//
// Tables and columns that are not named are derived from the local part of
// the feature type or property name with inflect.Underscore.
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-openapi/inflect"
	"gopkg.in/yaml.v3"

	"github.com/syssam/sqlfs"
	"github.com/syssam/sqlfs/mapping"
	"github.com/syssam/sqlfs/schema"
)

// File is the YAML document of a mapped schema.
type File struct {
	Namespaces       map[string]string `yaml:"namespaces"`
	GeometryElements []GeometryElement `yaml:"geometryElements"`
	FeatureTypes     []FeatureType     `yaml:"featureTypes"`
	Blob             *Blob             `yaml:"blob"`
	Mappings         []FeatureMapping  `yaml:"mappings"`
}

// GeometryElement declares a geometry element.
type GeometryElement struct {
	Name       string     `yaml:"name"`
	Type       string     `yaml:"type"`
	Properties []Property `yaml:"properties"`
}

// FeatureType declares a feature type.
type FeatureType struct {
	Name       string     `yaml:"name"`
	Abstract   bool       `yaml:"abstract"`
	Properties []Property `yaml:"properties"`
}

// Property declares a property. MaxOccurs is a number or "unbounded" and
// defaults to 1.
type Property struct {
	Name      string `yaml:"name"`
	MinOccurs int    `yaml:"minOccurs"`
	MaxOccurs string `yaml:"maxOccurs"`
	Nillable  bool   `yaml:"nillable"`
}

// Blob enables hybrid storage.
type Blob struct {
	FeatureTypeTable string     `yaml:"featureTypeTable"`
	Table            string     `yaml:"table"`
	SRID             int        `yaml:"srid"`
	Domain           [4]float64 `yaml:"domain"`
}

// FeatureMapping maps one feature type.
type FeatureMapping struct {
	FeatureType string     `yaml:"featureType"`
	Table       string     `yaml:"table"`
	TypeColumn  string     `yaml:"typeColumn"`
	FID         FID        `yaml:"fid"`
	Particles   []Particle `yaml:"particles"`
}

// FID describes the feature id mapping.
type FID struct {
	Prefix    string      `yaml:"prefix"`
	Delimiter string      `yaml:"delimiter"`
	Generator string      `yaml:"generator"`
	Sequence  string      `yaml:"sequence"`
	Columns   []FIDColumn `yaml:"columns"`
}

// FIDColumn is a feature id column. Type defaults to integer.
type FIDColumn struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// Particle is one node of the mapping tree. Kind defaults to compound when
// children are given and to primitive otherwise.
type Particle struct {
	Path              string     `yaml:"path"`
	Kind              string     `yaml:"kind"`
	Column            string     `yaml:"column"`
	Expression        string     `yaml:"expression"`
	Type              string     `yaml:"type"`
	SRID              int        `yaml:"srid"`
	Dim               int        `yaml:"dim"`
	Href              string     `yaml:"href"`
	FeatureType       string     `yaml:"featureType"`
	Voidable          bool       `yaml:"voidable"`
	SkipOnReconstruct bool       `yaml:"skipOnReconstruct"`
	Element           *Element   `yaml:"element"`
	Joins             []Join     `yaml:"joins"`
	Children          []Particle `yaml:"children"`
}

// Element is the declaration of a compound element.
type Element struct {
	Nillable           bool     `yaml:"nillable"`
	RequiredAttributes []string `yaml:"requiredAttributes"`
}

// Join is one join step. The from table is the table of the enclosing
// particle, or the target of the previous step.
type Join struct {
	From  []string    `yaml:"from"`
	Table string      `yaml:"table"`
	To    []string    `yaml:"to"`
	Order []string    `yaml:"order"`
	Fetch string      `yaml:"fetch"`
	Keys  []KeyColumn `yaml:"keys"`
}

// KeyColumn is a declared key column of a joined table.
type KeyColumn struct {
	Name      string `yaml:"name"`
	Generator string `yaml:"generator"`
	Sequence  string `yaml:"sequence"`
}

// LoadFile reads and builds the mapped schema in the named file.
func LoadFile(path string) (*mapping.MappedSchema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load reads and builds a mapped schema.
func Load(r io.Reader) (*mapping.MappedSchema, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("config: decoding mapping: %w", err)
	}
	return file.Build()
}

// Build builds the mapped schema described by f.
func (f *File) Build() (*mapping.MappedSchema, error) {
	b := &builder{ns: f.Namespaces}
	as, err := b.appSchema(f)
	if err != nil {
		return nil, err
	}
	ftms := make([]*mapping.FeatureTypeMapping, 0, len(f.Mappings))
	for i := range f.Mappings {
		ftm, err := b.featureMapping(&f.Mappings[i])
		if err != nil {
			return nil, err
		}
		ftms = append(ftms, ftm)
	}
	var opts []mapping.SchemaOption
	if f.Blob != nil {
		opts = append(opts, mapping.WithBlobMapping(mapping.BlobMapping{
			FeatureTypeTable: f.Blob.FeatureTypeTable,
			Table:            f.Blob.Table,
			SRID:             f.Blob.SRID,
			Domain:           f.Blob.Domain,
		}))
	}
	return mapping.NewMappedSchema(as, ftms, opts...)
}

type builder struct {
	ns map[string]string
}

func (b *builder) qname(s string) (schema.QName, error) {
	prefix, local, ok := strings.Cut(s, ":")
	if !ok {
		return schema.QName{Local: s}, nil
	}
	uri, ok := b.ns[prefix]
	if !ok {
		return schema.QName{}, sqlfs.NewConfigurationError(s, "unbound namespace prefix %q", prefix)
	}
	return schema.QName{Space: uri, Local: local}, nil
}

func (b *builder) appSchema(f *File) (*schema.AppSchema, error) {
	fts := make([]*schema.FeatureType, 0, len(f.FeatureTypes))
	for _, c := range f.FeatureTypes {
		name, err := b.qname(c.Name)
		if err != nil {
			return nil, err
		}
		props, err := b.properties(c.Properties)
		if err != nil {
			return nil, err
		}
		fts = append(fts, &schema.FeatureType{Name: name, Abstract: c.Abstract, Properties: props})
	}
	opts := make([]schema.Option, 0, len(f.Namespaces)+len(f.GeometryElements))
	for prefix, uri := range f.Namespaces {
		opts = append(opts, schema.WithNamespace(prefix, uri))
	}
	for _, g := range f.GeometryElements {
		name, err := b.qname(g.Name)
		if err != nil {
			return nil, err
		}
		typ, err := schema.ParseGeometryType(g.Type)
		if err != nil {
			return nil, sqlfs.WrapConfigurationError(g.Name, "invalid geometry element", err)
		}
		props, err := b.properties(g.Properties)
		if err != nil {
			return nil, err
		}
		opts = append(opts, schema.WithGeometryElement(name, typ, props...))
	}
	as, err := schema.New(fts, opts...)
	if err != nil {
		return nil, sqlfs.WrapConfigurationError("schema", "invalid application schema", err)
	}
	return as, nil
}

func (b *builder) properties(cs []Property) ([]schema.PropertyType, error) {
	props := make([]schema.PropertyType, 0, len(cs))
	for _, c := range cs {
		name, err := b.qname(c.Name)
		if err != nil {
			return nil, err
		}
		maxOccurs, err := parseMaxOccurs(c.MaxOccurs)
		if err != nil {
			return nil, sqlfs.WrapConfigurationError(c.Name, "invalid maxOccurs", err)
		}
		props = append(props, schema.PropertyType{Name: name, MinOccurs: c.MinOccurs, MaxOccurs: maxOccurs, Nillable: c.Nillable})
	}
	return props, nil
}

func parseMaxOccurs(s string) (int, error) {
	switch s {
	case "":
		return 1, nil
	case "unbounded":
		return schema.Unbounded, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return schema.Unbounded, nil
	}
	return n, nil
}

func (b *builder) featureMapping(c *FeatureMapping) (*mapping.FeatureTypeMapping, error) {
	name, err := b.qname(c.FeatureType)
	if err != nil {
		return nil, err
	}
	table := c.Table
	if table == "" {
		table = inflect.Underscore(name.Local)
	}
	fid, err := b.fid(table, &c.FID)
	if err != nil {
		return nil, err
	}
	particles, err := b.particles(table, c.Particles)
	if err != nil {
		return nil, err
	}
	var opts []mapping.FeatureTypeOption
	if c.TypeColumn != "" {
		opts = append(opts, mapping.WithTypeColumn(c.TypeColumn))
	}
	return mapping.NewFeatureTypeMapping(name, table, fid, particles, opts...)
}

func (b *builder) fid(table string, c *FID) (*mapping.FIDMapping, error) {
	gen, err := mapping.ParseIDGenerator(c.Generator, c.Sequence)
	if err != nil {
		return nil, err
	}
	cols := make([]mapping.FIDColumn, 0, len(c.Columns))
	for _, col := range c.Columns {
		typ := schema.Integer
		if col.Type != "" {
			if typ, err = schema.ParseBaseType(col.Type); err != nil {
				return nil, sqlfs.WrapConfigurationError(table+"."+col.Name, "invalid feature id column", err)
			}
		}
		cols = append(cols, mapping.FIDColumn{Name: col.Name, Type: typ})
	}
	if len(cols) == 0 {
		cols = append(cols, mapping.FIDColumn{Name: "id", Type: schema.Integer})
	}
	prefix := c.Prefix
	if prefix == "" {
		prefix = strings.ToUpper(table) + "_"
	}
	return mapping.NewFIDMapping(prefix, c.Delimiter, gen, cols...)
}

func (b *builder) particles(table string, cs []Particle) ([]mapping.Mapping, error) {
	ms := make([]mapping.Mapping, 0, len(cs))
	for i := range cs {
		m, err := b.particle(table, &cs[i])
		if err != nil {
			return nil, err
		}
		ms = append(ms, m)
	}
	return ms, nil
}

func (b *builder) particle(table string, c *Particle) (mapping.Mapping, error) {
	path, err := mapping.ParsePath(c.Path, b.ns)
	if err != nil {
		return nil, err
	}
	joins, err := b.joins(table, c.Joins)
	if err != nil {
		return nil, err
	}
	p := mapping.Particle{Path: path, Joins: joins, Voidable: c.Voidable, SkipOnReconstruct: c.SkipOnReconstruct}
	valueTable := table
	if len(joins) > 0 {
		valueTable = joins[len(joins)-1].ToTable
	}
	kind := c.Kind
	if kind == "" {
		kind = mapping.PrimitiveKind.String()
		if len(c.Children) > 0 {
			kind = mapping.CompoundKind.String()
		}
	}
	switch kind {
	case mapping.PrimitiveKind.String():
		typ := schema.String
		if c.Type != "" {
			if typ, err = schema.ParseBaseType(c.Type); err != nil {
				return nil, sqlfs.WrapConfigurationError(c.Path, "invalid primitive type", err)
			}
		}
		return &mapping.Primitive{Particle: p, Value: b.expression(c, path), Type: typ}, nil
	case mapping.GeometryKind.String():
		typ := schema.Geometry
		if c.Type != "" {
			if typ, err = schema.ParseGeometryType(c.Type); err != nil {
				return nil, sqlfs.WrapConfigurationError(c.Path, "invalid geometry type", err)
			}
		}
		return &mapping.Geometry{Particle: p, Value: b.expression(c, path), Type: typ, SRID: c.SRID, Dim: c.Dim}, nil
	case mapping.FeatureRefKind.String():
		ft, err := b.qname(c.FeatureType)
		if err != nil {
			return nil, err
		}
		ref := &mapping.FeatureRef{Particle: p, FeatureType: ft}
		if c.Href != "" {
			ref.Href = mapping.ColumnRef{Name: c.Href}
		}
		return ref, nil
	case mapping.CompoundKind.String():
		children, err := b.particles(valueTable, c.Children)
		if err != nil {
			return nil, err
		}
		var decl *schema.ElementDecl
		if c.Element != nil {
			decl = &schema.ElementDecl{Name: path.Name, Nillable: c.Element.Nillable}
			for _, a := range c.Element.RequiredAttributes {
				name, err := b.qname(a)
				if err != nil {
					return nil, err
				}
				decl.RequiredAttributes = append(decl.RequiredAttributes, name)
			}
		}
		return mapping.NewCompound(p, decl, children...), nil
	case mapping.SQLExpressionKind.String():
		return &mapping.SQLExpression{Particle: p, SQL: c.Expression}, nil
	case mapping.BlobKind.String():
		col := c.Column
		if col == "" {
			col = "binary_object"
		}
		return &mapping.Blob{Particle: p, Column: col}, nil
	}
	return nil, sqlfs.NewConfigurationError(c.Path, "unknown particle kind %q", kind)
}

// expression returns the value source of a leaf particle: a SQL
// expression, a named column, or the column derived from the path.
func (b *builder) expression(c *Particle, path mapping.Path) mapping.Expression {
	switch {
	case c.Expression != "":
		return mapping.SQLExpr{SQL: c.Expression}
	case c.Column != "":
		return mapping.ColumnRef{Name: c.Column}
	default:
		return mapping.ColumnRef{Name: inflect.Underscore(path.Name.Local)}
	}
}

func (b *builder) joins(table string, cs []Join) ([]*mapping.TableJoin, error) {
	joins := make([]*mapping.TableJoin, 0, len(cs))
	from := table
	for _, c := range cs {
		opts := []mapping.JoinOption{mapping.WithOrderColumns(c.Order...)}
		if c.Fetch != "" {
			mode, err := mapping.ParseFetchMode(c.Fetch)
			if err != nil {
				return nil, err
			}
			opts = append(opts, mapping.WithFetchMode(mode))
		}
		for _, k := range c.Keys {
			gen, err := mapping.ParseIDGenerator(k.Generator, k.Sequence)
			if err != nil {
				return nil, err
			}
			opts = append(opts, mapping.WithKeyColumn(k.Name, gen))
		}
		j, err := mapping.NewTableJoin(from, c.From, c.Table, c.To, opts...)
		if err != nil {
			return nil, err
		}
		joins = append(joins, j)
		from = j.ToTable
	}
	if len(joins) == 0 {
		return nil, nil
	}
	return joins, nil
}
