// Package mapper has the generic slice helpers shared by the row and DTO mappers.
package mapper

import "fmt"

// MapSlice converts every element; nil stays nil.
func MapSlice[T, R any](in []T, conv func(T) R) []R {
	if in == nil {
		return nil
	}
	out := make([]R, len(in))
	for i := range in {
		out[i] = conv(in[i])
	}
	return out
}

// MapRows converts persisted rows into entities. Nil rows and nil results
// are dropped; the first failure aborts and names the offending row key.
func MapRows[T, R any, K comparable](rows []*T, conv func(*T) (*R, error), key func(*T) K) ([]*R, error) {
	if rows == nil {
		return nil, nil
	}

	out := make([]*R, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		entity, err := conv(row)
		if err != nil {
			return nil, fmt.Errorf("row %v: %w", key(row), err)
		}
		if entity != nil {
			out = append(out, entity)
		}
	}
	return out, nil
}
