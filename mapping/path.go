package mapping

import (
	"strconv"
	"strings"

	"github.com/syssam/sqlfs"
	"github.com/syssam/sqlfs/schema"
)

// Axis is the axis of a path step.
type Axis uint8

// Path axes.
const (
	ChildAxis Axis = iota
	AttributeAxis
	SelfAxis // "." or "text()": values are added to the parent unnamed
)

// Path is a single relative step addressing a particle below its parent.
//
//	step  := "." | "text()" | ["@"] qname ["[" positive-int "]"]
//	qname := [prefix ":"] ncname
//
// Absolute paths, multiple steps, wildcards and any predicate other than a
// single positive number are rejected.
type Path struct {
	text  string
	Axis  Axis
	Name  schema.QName
	Index int // 1-based repetition from a numeric predicate, 0 if none
}

// ParsePath parses and validates a path step. Prefixes are resolved through
// ns; an unprefixed name is unqualified.
func ParsePath(text string, ns map[string]string) (Path, error) {
	s := strings.TrimSpace(text)
	p := Path{text: s}
	switch {
	case s == "":
		return Path{}, sqlfs.NewConfigurationError(text, "empty path")
	case s == "." || s == "text()":
		p.Axis = SelfAxis
		return p, nil
	case strings.HasPrefix(s, "/"):
		return Path{}, sqlfs.NewConfigurationError(text, "only relative paths are allowed")
	case strings.Contains(s, "/"):
		return Path{}, sqlfs.NewConfigurationError(text, "only single step paths are allowed")
	}
	if rest, ok := strings.CutPrefix(s, "@"); ok {
		p.Axis = AttributeAxis
		s = rest
	}
	if i := strings.IndexByte(s, '['); i >= 0 {
		idx, err := parsePredicate(text, s[i:])
		if err != nil {
			return Path{}, err
		}
		p.Index, s = idx, s[:i]
	}
	name, err := parseName(text, s, ns)
	if err != nil {
		return Path{}, err
	}
	p.Name = name
	return p, nil
}

// MustParsePath is like ParsePath but panics on error.
func MustParsePath(text string, ns map[string]string) Path {
	p, err := ParsePath(text, ns)
	if err != nil {
		panic(err)
	}
	return p
}

func parsePredicate(text, pred string) (int, error) {
	if !strings.HasSuffix(pred, "]") || strings.Count(pred, "[") != 1 {
		return 0, sqlfs.NewConfigurationError(text, "only a single number predicate is allowed")
	}
	n, err := strconv.Atoi(strings.TrimSpace(pred[1 : len(pred)-1]))
	if err != nil {
		return 0, sqlfs.NewConfigurationError(text, "only number predicates are allowed")
	}
	if n < 1 {
		return 0, sqlfs.NewConfigurationError(text, "number predicate must be positive")
	}
	return n, nil
}

func parseName(text, s string, ns map[string]string) (schema.QName, error) {
	prefix, local, qualified := strings.Cut(s, ":")
	if !qualified {
		prefix, local = "", s
	}
	if !isNCName(local) || (qualified && !isNCName(prefix)) {
		return schema.QName{}, sqlfs.NewConfigurationError(text, "invalid name step %q", s)
	}
	if !qualified {
		return schema.QName{Local: local}, nil
	}
	uri, ok := ns[prefix]
	if !ok {
		return schema.QName{}, sqlfs.NewConfigurationError(text, "unbound namespace prefix %q", prefix)
	}
	return schema.QName{Space: uri, Local: local}, nil
}

func isNCName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r > 0x7f:
		case i > 0 && (r == '-' || r == '.' || r >= '0' && r <= '9'):
		default:
			return false
		}
	}
	return true
}

// String returns the path as written.
func (p Path) String() string {
	return p.text
}

// IsZero reports whether the path is unset.
func (p Path) IsZero() bool {
	return p.text == ""
}

// Key returns the path without its source text, for comparing paths that
// address the same step.
func (p Path) Key() Path {
	p.text = ""
	return p
}

// IDPrefix returns the path as an identifier fragment: separators replaced
// by underscores, upper-cased.
func (p Path) IDPrefix() string {
	return strings.ToUpper(idReplacer.Replace(p.text))
}

var idReplacer = strings.NewReplacer("/", "_", ":", "_", "[", "_", "]", "_")
