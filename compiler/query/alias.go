package query

import "strconv"

// RootAlias is the alias of the root table of every select.
const RootAlias = "X1"

// AliasManager hands out table aliases X1, X2, ... A fresh alias is
// allocated for every join step.
type AliasManager struct {
	n int
}

// NewAliasManager returns a manager whose root alias is RootAlias.
func NewAliasManager() *AliasManager {
	return &AliasManager{n: 1}
}

// Root returns the root alias.
func (*AliasManager) Root() string { return RootAlias }

// Next allocates a new alias.
func (a *AliasManager) Next() string {
	a.n++
	return "X" + strconv.Itoa(a.n)
}
