package mapping

import (
	"slices"

	"github.com/syssam/sqlfs"
	"github.com/syssam/sqlfs/schema"
)

// Default table and column names of the hybrid BLOB storage.
const (
	DefaultFeatureTypeTable = "feature_types"
	DefaultBlobTable        = "gml_objects"
)

// BlobMapping configures hybrid storage, where every feature is also kept
// encoded in a shared object table next to a feature type lookup table.
type BlobMapping struct {
	FeatureTypeTable string     // Lookup table of feature type ids and names
	Table            string     // Object table
	SRID             int        // 0 for the dialect's undefined SRID
	Domain           [4]float64 // Valid domain of the bounding boxes: min x, min y, max x, max y
}

// MappedSchema is an application schema together with the mappings of its
// feature types. It is immutable and shared by all queries of a store.
type MappedSchema struct {
	schema   *schema.AppSchema
	mappings []*FeatureTypeMapping
	byName   map[schema.QName]*FeatureTypeMapping
	blob     *BlobMapping
}

// SchemaOption configures a MappedSchema.
type SchemaOption func(*MappedSchema)

// WithBlobMapping enables hybrid BLOB storage. Empty table names are
// replaced by the defaults.
func WithBlobMapping(b BlobMapping) SchemaOption {
	return func(s *MappedSchema) {
		if b.FeatureTypeTable == "" {
			b.FeatureTypeTable = DefaultFeatureTypeTable
		}
		if b.Table == "" {
			b.Table = DefaultBlobTable
		}
		s.blob = &b
	}
}

// NewMappedSchema returns the mapped schema. Mappings are ordered as the
// application schema declares their feature types; several mappings of the
// same feature type are merged in the order given.
func NewMappedSchema(s *schema.AppSchema, mappings []*FeatureTypeMapping, opts ...SchemaOption) (*MappedSchema, error) {
	ms := &MappedSchema{schema: s, byName: make(map[schema.QName]*FeatureTypeMapping, len(mappings))}
	for _, opt := range opts {
		opt(ms)
	}
	for _, m := range mappings {
		ft, ok := s.FeatureType(m.Name())
		if !ok {
			return nil, sqlfs.NewConfigurationError(m.Name().String(), "mapping for undeclared feature type")
		}
		prev, ok := ms.byName[m.Name()]
		if !ok {
			ms.byName[m.Name()] = m
			continue
		}
		merged, err := prev.Merge(m, ft)
		if err != nil {
			return nil, err
		}
		ms.byName[m.Name()] = merged
	}
	for _, ft := range s.FeatureTypes() {
		if m, ok := ms.byName[ft.Name]; ok {
			ms.mappings = append(ms.mappings, m)
		}
	}
	return ms, nil
}

// Schema returns the application schema.
func (s *MappedSchema) Schema() *schema.AppSchema { return s.schema }

// FeatureTypeMappings returns the mappings in schema declaration order.
func (s *MappedSchema) FeatureTypeMappings() []*FeatureTypeMapping {
	return slices.Clone(s.mappings)
}

// FeatureTypeMapping returns the mapping of the named feature type.
func (s *MappedSchema) FeatureTypeMapping(name schema.QName) (*FeatureTypeMapping, bool) {
	m, ok := s.byName[name]
	return m, ok
}

// BlobMapping returns the hybrid storage configuration, or nil.
func (s *MappedSchema) BlobMapping() *BlobMapping { return s.blob }

// FeatureTypeID returns the numeric id of a feature type in the lookup
// table of the hybrid storage: its position in the application schema.
func (s *MappedSchema) FeatureTypeID(name schema.QName) (int, bool) {
	for i, ft := range s.schema.FeatureTypes() {
		if ft.Name == name {
			return i, true
		}
	}
	return 0, false
}
