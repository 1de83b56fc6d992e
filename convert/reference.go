package convert

import (
	"github.com/syssam/sqlfs/feature"
	"github.com/syssam/sqlfs/mapping"
)

type featureRef struct {
	m      *mapping.FeatureRef
	key    string
	hasKey bool
	fid    *mapping.FIDMapping
}

func newFeatureRef(m *mapping.FeatureRef, cfg *config) *featureRef {
	c := &featureRef{m: m}
	c.key, c.hasKey = m.KeyColumn()
	if cfg.schema != nil {
		if ftm, ok := cfg.schema.FeatureTypeMapping(m.FeatureType); ok {
			c.fid = ftm.FID()
		}
	}
	return c
}

// SelectTerms returns the key column followed by the href column.
func (c *featureRef) SelectTerms(alias string) []string {
	var terms []string
	if c.hasKey {
		terms = append(terms, alias+"."+c.key)
	}
	if c.m.Href != nil {
		terms = append(terms, term(alias, c.m.Href))
	}
	return terms
}

// ToParticle returns a local reference if the key is set, else the
// external href.
func (c *featureRef) ToParticle(values []any) (feature.Node, error) {
	i := 0
	if c.hasKey {
		if i < len(values) && values[i] != nil {
			id := mapping.FormatValue(values[i])
			if c.fid != nil {
				id = c.fid.Format(values[i])
			}
			return &feature.Reference{Href: "#" + id, FeatureType: c.m.FeatureType}, nil
		}
		i++
	}
	if c.m.Href != nil && i < len(values) && values[i] != nil {
		return &feature.Reference{Href: mapping.FormatValue(values[i]), FeatureType: c.m.FeatureType}, nil
	}
	return nil, nil
}
