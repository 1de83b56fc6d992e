package mapping

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/sqlfs"
	"github.com/syssam/sqlfs/schema"
)

// IDGenerator is the strategy producing new key values.
type IDGenerator interface {
	// Name returns the configuration name of the generator.
	Name() string
}

// AutoIDGenerator leaves key generation to the database (serial, identity
// or sequence columns).
type AutoIDGenerator struct{}

// UUIDGenerator marks a single key column holding UUIDs assigned by the
// writer. Feature ids of such mappings carry the UUID in canonical form.
type UUIDGenerator struct{}

// SequenceIDGenerator draws keys from a named database sequence.
type SequenceIDGenerator struct {
	Sequence string
}

// Name implements IDGenerator.
func (AutoIDGenerator) Name() string { return "auto" }

// Name implements IDGenerator.
func (UUIDGenerator) Name() string { return "uuid" }

// Name implements IDGenerator.
func (SequenceIDGenerator) Name() string { return "sequence" }

// ParseIDGenerator returns the generator with the given configuration
// name. A sequence generator needs the sequence name.
func ParseIDGenerator(name, sequence string) (IDGenerator, error) {
	switch strings.ToLower(name) {
	case "", "auto":
		return AutoIDGenerator{}, nil
	case "uuid":
		return UUIDGenerator{}, nil
	case "sequence":
		if sequence == "" {
			return nil, sqlfs.NewConfigurationError(name, "sequence generator without sequence name")
		}
		return SequenceIDGenerator{Sequence: sequence}, nil
	}
	return nil, sqlfs.NewConfigurationError(name, "unknown id generator")
}

// IsAuto reports whether gen leaves key generation to the database.
func IsAuto(gen IDGenerator) bool {
	_, ok := gen.(AutoIDGenerator)
	return ok
}

// FIDColumn is one column of a feature id.
type FIDColumn struct {
	Name string
	Type schema.BaseType
}

// FIDMapping describes how a feature's identifier is built from its key
// columns: the prefix followed by the column values, joined by the delimiter.
type FIDMapping struct {
	Prefix    string
	Delimiter string
	Columns   []FIDColumn
	Generator IDGenerator
}

// NewFIDMapping returns a feature id mapping. At least one column is required
// and composite ids need a delimiter.
func NewFIDMapping(prefix, delimiter string, gen IDGenerator, cols ...FIDColumn) (*FIDMapping, error) {
	switch {
	case len(cols) == 0:
		return nil, sqlfs.NewConfigurationError(prefix, "feature id mapping without columns")
	case len(cols) > 1 && delimiter == "":
		return nil, sqlfs.NewConfigurationError(prefix, "composite feature id mapping without delimiter")
	}
	if gen == nil {
		gen = AutoIDGenerator{}
	}
	return &FIDMapping{Prefix: prefix, Delimiter: delimiter, Columns: cols, Generator: gen}, nil
}

// ColumnNames returns the id column names in order.
func (m *FIDMapping) ColumnNames() []string {
	names := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		names[i] = c.Name
	}
	return names
}

// Format builds a feature id from the id column values.
func (m *FIDMapping) Format(values ...any) string {
	var sb strings.Builder
	sb.WriteString(m.Prefix)
	for i, v := range values {
		if i > 0 {
			sb.WriteString(m.Delimiter)
		}
		sb.WriteString(FormatValue(v))
	}
	return sb.String()
}

// Parse splits a feature id into its id column values.
func (m *FIDMapping) Parse(id string) ([]string, error) {
	rest, ok := strings.CutPrefix(id, m.Prefix)
	if !ok {
		return nil, fmt.Errorf("mapping: feature id %q does not start with prefix %q", id, m.Prefix)
	}
	if len(m.Columns) == 1 {
		if _, ok := m.Generator.(UUIDGenerator); ok {
			u, err := uuid.Parse(rest)
			if err != nil {
				return nil, fmt.Errorf("mapping: feature id %q: %w", id, err)
			}
			rest = u.String()
		}
		return []string{rest}, nil
	}
	parts := strings.Split(rest, m.Delimiter)
	if len(parts) != len(m.Columns) {
		return nil, fmt.Errorf("mapping: feature id %q has %d parts, expected %d", id, len(parts), len(m.Columns))
	}
	return parts, nil
}

// FormatValue renders a column value as it appears in identifiers.
func FormatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case *big.Rat:
		return schema.FormatDecimal(v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(v)
	}
}
