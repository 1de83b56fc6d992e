package mapping

import (
	"fmt"
	"strings"

	"github.com/syssam/sqlfs"
)

// FetchMode selects how the rows of a joined table are fetched.
type FetchMode uint8

// Fetch modes.
const (
	// InlineJoin expands the join into the feature query with a LEFT OUTER JOIN.
	InlineJoin FetchMode = iota
	// DeferredSelect fetches the joined rows with a subsequent SELECT per parent row.
	DeferredSelect
)

// String returns the configuration name of the mode.
func (m FetchMode) String() string {
	switch m {
	case InlineJoin:
		return "INLINE_JOIN"
	case DeferredSelect:
		return "DEFERRED_SELECT"
	default:
		return fmt.Sprintf("FetchMode(%d)", m)
	}
}

// ParseFetchMode parses a fetch mode name. Matching is case-insensitive.
func ParseFetchMode(s string) (FetchMode, error) {
	switch strings.ToUpper(s) {
	case "INLINE_JOIN", "JOIN":
		return InlineJoin, nil
	case "DEFERRED_SELECT", "SELECT":
		return DeferredSelect, nil
	}
	return 0, sqlfs.NewConfigurationError(s, "unknown fetch mode")
}

// OrderColumn is a column that orders the rows of a joined table.
type OrderColumn struct {
	Name string
	Desc bool
}

// ParseOrderColumn parses an order column name. A trailing "-" means descending.
func ParseOrderColumn(s string) OrderColumn {
	if name, ok := strings.CutSuffix(s, "-"); ok {
		return OrderColumn{Name: name, Desc: true}
	}
	return OrderColumn{Name: s}
}

// String returns the ORDER BY term for the column.
func (c OrderColumn) String() string {
	if c.Desc {
		return c.Name + " DESC"
	}
	return c.Name
}

// KeyColumn is a key column of a joined table together with the generator
// producing its values.
type KeyColumn struct {
	Name      string
	Generator IDGenerator
}

// JoinTableKey is the autogenerated key column of every table reached by a
// join. It identifies joined rows unless key columns are declared.
const JoinTableKey = "id"

// TableJoin is one step of a join chain.
type TableJoin struct {
	FromTable    string
	FromColumns  []string
	ToTable      string
	ToColumns    []string
	OrderColumns []OrderColumn
	FetchMode    FetchMode
	KeyColumns   []KeyColumn
}

// JoinOption configures a TableJoin.
type JoinOption func(*TableJoin)

// WithOrderColumns sets the order columns of the join. Names with a
// trailing "-" order descending.
func WithOrderColumns(cols ...string) JoinOption {
	return func(j *TableJoin) {
		for _, c := range cols {
			j.OrderColumns = append(j.OrderColumns, ParseOrderColumn(c))
		}
	}
}

// WithFetchMode sets the fetch mode of the join.
func WithFetchMode(m FetchMode) JoinOption {
	return func(j *TableJoin) {
		j.FetchMode = m
	}
}

// WithKeyColumn declares a key column of the joined table.
func WithKeyColumn(name string, gen IDGenerator) JoinOption {
	return func(j *TableJoin) {
		j.KeyColumns = append(j.KeyColumns, KeyColumn{Name: name, Generator: gen})
	}
}

// NewTableJoin returns a join from the columns of one table to the columns
// of another. Both column lists must be non-empty and of equal length.
func NewTableJoin(fromTable string, fromCols []string, toTable string, toCols []string, opts ...JoinOption) (*TableJoin, error) {
	subject := fromTable + "->" + toTable
	switch {
	case toTable == "":
		return nil, sqlfs.NewConfigurationError(subject, "join without target table")
	case len(fromCols) == 0:
		return nil, sqlfs.NewConfigurationError(subject, "join without columns")
	case len(fromCols) != len(toCols):
		return nil, sqlfs.NewConfigurationError(subject, "join has %d from columns but %d to columns", len(fromCols), len(toCols))
	}
	j := &TableJoin{
		FromTable:   fromTable,
		FromColumns: fromCols,
		ToTable:     toTable,
		ToColumns:   toCols,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// KeyColumnNames returns the names of the declared key columns in order.
func (j *TableJoin) KeyColumnNames() []string {
	names := make([]string, len(j.KeyColumns))
	for i, k := range j.KeyColumns {
		names[i] = k.Name
	}
	return names
}

// String returns a readable form of the join, for logs and errors.
func (j *TableJoin) String() string {
	return fmt.Sprintf("%s(%s)->%s(%s)", j.FromTable, strings.Join(j.FromColumns, ","), j.ToTable, strings.Join(j.ToColumns, ","))
}
