package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syssam/sqlfs/mapping"
	"github.com/syssam/sqlfs/schema"
)

// NS is the namespace of the fixture feature types.
const NS = "http://www.example.org/app"

// Namespaces binds the "app" prefix to NS.
var Namespaces = map[string]string{"app": NS}

// QName returns a name in the fixture namespace.
func QName(local string) schema.QName {
	return schema.QName{Space: NS, Local: local}
}

// Path parses a path step against Namespaces.
func Path(t testing.TB, text string) mapping.Path {
	t.Helper()
	p, err := mapping.ParsePath(text, Namespaces)
	require.NoError(t, err)
	return p
}

// Join returns a join step.
func Join(t testing.TB, from, fromCol, to, toCol string, opts ...mapping.JoinOption) *mapping.TableJoin {
	t.Helper()
	j, err := mapping.NewTableJoin(from, []string{fromCol}, to, []string{toCol}, opts...)
	require.NoError(t, err)
	return j
}

// Primitive returns a string primitive mapping of column col.
func Primitive(t testing.TB, path, col string, joins ...*mapping.TableJoin) *mapping.Primitive {
	t.Helper()
	return &mapping.Primitive{
		Particle: mapping.Particle{Path: Path(t, path), Joins: joins},
		Value:    mapping.ColumnRef{Name: col},
		Type:     schema.String,
	}
}

// FID returns a single integer column feature id mapping.
func FID(t testing.TB, prefix, col string) *mapping.FIDMapping {
	t.Helper()
	fid, err := mapping.NewFIDMapping(prefix, "", mapping.AutoIDGenerator{}, mapping.FIDColumn{Name: col, Type: schema.Integer})
	require.NoError(t, err)
	return fid
}

// TagFeatureType is app:F with a required name and repeatable tags.
func TagFeatureType() *schema.FeatureType {
	return &schema.FeatureType{
		Name: QName("F"),
		Properties: []schema.PropertyType{
			{Name: QName("name"), MinOccurs: 1, MaxOccurs: 1},
			{Name: QName("tag"), MinOccurs: 0, MaxOccurs: schema.Unbounded},
		},
	}
}

// TagSchema maps app:F onto table f (id, name) with its tags in table
// f_tag (id, fk, tag, idx), joined with the given fetch mode and ordered by
// the given order columns.
func TagSchema(t testing.TB, mode mapping.FetchMode, order ...string) *mapping.MappedSchema {
	t.Helper()
	as, err := schema.New([]*schema.FeatureType{TagFeatureType()}, schema.WithNamespace("app", NS))
	require.NoError(t, err)
	tag := Join(t, "f", "id", "f_tag", "fk", mapping.WithFetchMode(mode), mapping.WithOrderColumns(order...))
	ftm, err := mapping.NewFeatureTypeMapping(QName("F"), "f", FID(t, "F_", "id"), []mapping.Mapping{
		Primitive(t, "app:name", "name"),
		Primitive(t, "app:tag", "tag", tag),
	})
	require.NoError(t, err)
	ms, err := mapping.NewMappedSchema(as, []*mapping.FeatureTypeMapping{ftm})
	require.NoError(t, err)
	return ms
}
