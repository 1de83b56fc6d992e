package query

import (
	"slices"

	"github.com/syssam/sqlfs/convert"
	"github.com/syssam/sqlfs/mapping"
)

// Plan is a compiled select of a feature type, or of the rows of a
// deferred join.
type Plan struct {
	// SQL is the select statement.
	SQL string
	// Args are the bind parameters of the WHERE fragment given with
	// WithWhere. Deferred plans bind the KeyTerms values instead.
	Args []any
	// Table is the root table.
	Table string
	// KeyTerms are the indexes of the parent plan terms whose values bind
	// the parameters of a deferred plan, in order.
	KeyTerms []int

	terms      []string
	index      map[string]int
	aliases    map[mapping.Mapping]string
	joins      map[string]mapping.Mapping
	deferred   map[mapping.Mapping]*Plan
	dedup      map[mapping.Mapping][]int
	columns    map[mapping.Mapping][]int
	converters map[mapping.Mapping]convert.Converter
	groups     []int
	fids       []int
	typeIndex  int
}

// Terms returns the select terms in select list order.
func (p *Plan) Terms() []string { return slices.Clone(p.terms) }

// Index returns the position of a term in the select list, or -1.
func (p *Plan) Index(term string) int {
	if i, ok := p.index[term]; ok {
		return i
	}
	return -1
}

// Alias returns the alias of the table a mapping's value is read from.
func (p *Plan) Alias(m mapping.Mapping) (string, bool) {
	a, ok := p.aliases[m]
	return a, ok
}

// JoinMapping returns the mapping whose join introduced alias.
func (p *Plan) JoinMapping(alias string) (mapping.Mapping, bool) {
	m, ok := p.joins[alias]
	return m, ok
}

// Deferred returns the plan fetching the rows of a mapping whose first
// join is fetched with a subsequent select, or nil.
func (p *Plan) Deferred(m mapping.Mapping) *Plan {
	return p.deferred[m]
}

// DedupIndexes returns the term indexes identifying a row of an inline
// join of m. ok is false if m has no inline join in this plan.
func (p *Plan) DedupIndexes(m mapping.Mapping) (idx []int, ok bool) {
	idx, ok = p.dedup[m]
	return idx, ok
}

// Columns returns the term indexes of the values of a leaf mapping.
func (p *Plan) Columns(m mapping.Mapping) []int {
	return p.columns[m]
}

// Converter returns the converter of a leaf mapping, or nil if the
// mapping is not selected.
func (p *Plan) Converter(m mapping.Mapping) convert.Converter {
	return p.converters[m]
}

// GroupIndexes returns the term indexes whose values identify one result
// value: the feature id columns of a feature type plan, or the key terms
// of the joined row of a deferred plan. An empty slice means that every
// row stands alone.
func (p *Plan) GroupIndexes() []int { return p.groups }

// FIDIndexes returns the term indexes of the feature id columns.
func (p *Plan) FIDIndexes() []int { return p.fids }

// TypeIndex returns the term index of the discriminator column, or -1.
func (p *Plan) TypeIndex() int { return p.typeIndex }
