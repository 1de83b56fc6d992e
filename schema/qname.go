package schema

import (
	"fmt"
	"strings"
)

// XSINamespace is the XML schema instance namespace.
const XSINamespace = "http://www.w3.org/2001/XMLSchema-instance"

// XSINil is the qualified name of the xsi:nil attribute.
var XSINil = QName{Space: XSINamespace, Local: "nil"}

// QName is a namespace-qualified name.
type QName struct {
	Space string // Namespace URI, empty for unqualified names
	Local string
}

// String returns the name in {namespace}local notation, or just the local
// part for unqualified names.
func (n QName) String() string {
	if n.Space == "" {
		return n.Local
	}
	return "{" + n.Space + "}" + n.Local
}

// IsZero reports whether the name is unset.
func (n QName) IsZero() bool {
	return n.Space == "" && n.Local == ""
}

// ParseQName parses a name in {namespace}local notation. A name without a
// namespace part is returned unqualified.
func ParseQName(s string) (QName, error) {
	if !strings.HasPrefix(s, "{") {
		if s == "" {
			return QName{}, fmt.Errorf("schema: empty qualified name")
		}
		return QName{Local: s}, nil
	}
	end := strings.IndexByte(s, '}')
	if end < 0 || end == len(s)-1 {
		return QName{}, fmt.Errorf("schema: malformed qualified name %q", s)
	}
	return QName{Space: s[1:end], Local: s[end+1:]}, nil
}
