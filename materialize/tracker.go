package materialize

import (
	"strconv"
	"strings"

	"github.com/syssam/sqlfs/mapping"
)

type trackKey struct {
	m     mapping.Mapping
	scope string
	key   string
}

// Tracker records the joined rows already materialized for one feature.
// A new Tracker is used for every feature.
type Tracker struct {
	seen map[trackKey]struct{}
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{seen: make(map[trackKey]struct{})}
}

// Track records the row identified by key, joined for m below scope. It
// reports false if the row was already recorded.
func (t *Tracker) Track(m mapping.Mapping, scope, key string) bool {
	k := trackKey{m: m, scope: scope, key: key}
	if _, ok := t.seen[k]; ok {
		return false
	}
	t.seen[k] = struct{}{}
	return true
}

// Len returns the number of recorded rows.
func (t *Tracker) Len() int { return len(t.seen) }

// Partition is the rows sharing one key.
type Partition struct {
	Key string
	// Null is set if every key value is NULL, as for the rows of an outer
	// join without a match.
	Null bool
	Rows [][]any
}

// Partitions groups rows by the values at idx, in order of first
// appearance. Without key indexes, every row is its own partition.
func Partitions(rows [][]any, idx []int) []*Partition {
	if len(idx) == 0 {
		parts := make([]*Partition, len(rows))
		for i, r := range rows {
			parts[i] = &Partition{Rows: [][]any{r}}
		}
		return parts
	}
	var parts []*Partition
	byKey := make(map[string]*Partition)
	for _, r := range rows {
		key, null := rowKey(r, idx)
		p, ok := byKey[key]
		if !ok {
			p = &Partition{Key: key, Null: null}
			byKey[key] = p
			parts = append(parts, p)
		}
		p.Rows = append(p.Rows, r)
	}
	return parts
}

// rowKey encodes the values at idx. NULL is a single 0 byte; other values
// are length-prefixed so that no two distinct rows share a key.
func rowKey(r []any, idx []int) (string, bool) {
	var sb strings.Builder
	null := true
	for _, i := range idx {
		if r[i] == nil {
			sb.WriteByte(0)
			continue
		}
		null = false
		s := mapping.FormatValue(r[i])
		sb.WriteByte(1)
		sb.WriteString(strconv.Itoa(len(s)))
		sb.WriteByte(':')
		sb.WriteString(s)
	}
	return sb.String(), null
}
