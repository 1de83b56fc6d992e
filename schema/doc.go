// Package schema describes the application schema a feature store serves.
//
// The model is deliberately small: it carries only what mapping compilation
// and feature materialization need from an XML schema, not the schema itself.
//
//   - [QName]: namespace-qualified names, printed as {namespace}local
//   - [BaseType]: scalar types of primitive properties and id columns
//   - [GeometryType]: geometry kinds of geometry properties and elements
//   - [FeatureType]: a feature type with its property declarations
//   - [ElementDecl]: nillability and required attributes of a complex element
//   - [AppSchema]: feature types, geometry elements and their substitution hierarchy
//
// # Quick Start
//
//	const ns = "http://www.example.org/app"
//
//	road := &schema.FeatureType{
//	    Name: schema.QName{Space: ns, Local: "Road"},
//	    Properties: []schema.PropertyType{
//	        {Name: schema.QName{Space: ns, Local: "name"}, MinOccurs: 1, MaxOccurs: 1},
//	        {Name: schema.QName{Space: ns, Local: "lane"}, MaxOccurs: schema.Unbounded, Nillable: true},
//	    },
//	}
//
//	s, err := schema.New([]*schema.FeatureType{road},
//	    schema.WithNamespace("app", ns),
//	    schema.WithGeometryElement(schema.QName{Space: ns, Local: "Centerline"}, schema.Curve),
//	)
//
// An AppSchema is immutable once built and safe for concurrent use.
package schema
