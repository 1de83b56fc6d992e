package store

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/syssam/sqlfs/compiler/query"
	"github.com/syssam/sqlfs/convert"
	"github.com/syssam/sqlfs/feature"
	"github.com/syssam/sqlfs/mapping"
	"github.com/syssam/sqlfs/schema"
)

// GetMany returns the features with the given ids in one query. The
// result has the length and order of ids; missing features are nil with
// ErrNotFound at the same index of the returned errors.
//
//	fs, errs, err := st.GetMany(ctx, roadType, []string{"ROAD_1", "ROAD_7"})
func (s *Store) GetMany(ctx context.Context, name schema.QName, ids []string) ([]*feature.Feature, []error, error) {
	ftm, err := s.mapping(name)
	if err != nil {
		return nil, nil, err
	}
	if len(ids) == 0 {
		return nil, nil, nil
	}
	where, args, err := s.fidPredicate(ftm, ids)
	if err != nil {
		return nil, nil, err
	}
	it, err := s.Query(ctx, name, query.WithWhere(where, args...))
	if err != nil {
		return nil, nil, err
	}
	all, err := it.All()
	if err != nil {
		return nil, nil, err
	}
	fs, errs := OrderByKeys(ids, all, func(f *feature.Feature) string { return f.ID })
	return fs, errs, nil
}

// fidPredicate returns the WHERE fragment selecting the features with the
// given ids.
func (s *Store) fidPredicate(ftm *mapping.FeatureTypeMapping, ids []string) (string, []any, error) {
	cols := ftm.FID().Columns
	var (
		ors  []string
		args []any
	)
	for _, id := range ids {
		values, err := ftm.FID().Parse(id)
		if err != nil {
			return "", nil, fmt.Errorf("store: %w", err)
		}
		ands := make([]string, len(cols))
		for i, c := range cols {
			v, err := convert.Primitive(values[i], c.Type)
			if err != nil {
				return "", nil, fmt.Errorf("store: feature id %q: %w", id, err)
			}
			args = append(args, argValue(v.Value))
			ands[i] = fmt.Sprintf("%s.%s = %s", query.RootAlias, c.Name, s.dialect.Placeholder(len(args)))
		}
		ors = append(ors, strings.Join(ands, " AND "))
	}
	if len(ors) == 1 {
		return ors[0], args, nil
	}
	return "(" + strings.Join(ors, " OR ") + ")", args, nil
}

// argValue returns v as a driver argument. Decimals bind as their exact text.
func argValue(v any) any {
	if r, ok := v.(*big.Rat); ok {
		return schema.FormatDecimal(r)
	}
	return v
}

// OrderByKeys reorders values to match the order of keys. Missing values
// are nil with ErrNotFound at the same index.
func OrderByKeys[V any](keys []string, values []*V, keyFn func(*V) string) ([]*V, []error) {
	lookup := make(map[string]*V, len(values))
	for _, v := range values {
		lookup[keyFn(v)] = v
	}
	result := make([]*V, len(keys))
	errs := make([]error, len(keys))
	for i, key := range keys {
		if v, ok := lookup[key]; ok {
			result[i] = v
		} else {
			errs[i] = fmt.Errorf("%w: %s", ErrNotFound, key)
		}
	}
	return result, errs
}
