package convert

import (
	"fmt"

	"github.com/syssam/sqlfs/blob"
	"github.com/syssam/sqlfs/feature"
	"github.com/syssam/sqlfs/mapping"
)

type blobConverter struct {
	m *mapping.Blob
}

func (c *blobConverter) SelectTerms(alias string) []string {
	return []string{alias + "." + c.m.Column}
}

func (c *blobConverter) ToParticle(values []any) (feature.Node, error) {
	if len(values) == 0 || values[0] == nil {
		return nil, nil
	}
	b, ok := values[0].([]byte)
	if !ok {
		return nil, fmt.Errorf("convert: %s: blob value of type %T", c.m.Path, values[0])
	}
	return blob.Decode(b)
}
