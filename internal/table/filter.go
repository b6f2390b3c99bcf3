package table

import (
	"fmt"
	"strconv"
	"strings"
)

// Predicates maps a field name to its allowed values. A single value is
// an equality filter; multiple values are set membership. Values compare
// numerically when both sides parse as numbers, so "1" matches "1.0".
type Predicates map[string][]string

// Eq builds a single-field equality predicate set.
func Eq(field, value string) Predicates {
	return Predicates{field: {value}}
}

// Filter returns the rows satisfying every predicate. Predicates naming
// unknown fields are ignored unless strict is set, in which case they
// yield ErrUnknownColumn. Filtering is idempotent: applying the same
// predicates twice returns the same rows as applying them once.
func (t *Table) Filter(preds Predicates, strict bool) (*Table, error) {
	for field := range preds {
		if !t.Has(field) && strict {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, field)
		}
	}

	var keep []int
	for row := 0; row < t.Len(); row++ {
		ok := true
		for field, allowed := range preds {
			if !t.Has(field) {
				continue
			}
			if !matchesAny(t.String(field, row), allowed) {
				ok = false
				break
			}
		}
		if ok {
			keep = append(keep, row)
		}
	}
	return t.subset(keep), nil
}

func matchesAny(cell string, allowed []string) bool {
	for _, v := range allowed {
		if cellEqual(cell, v) {
			return true
		}
	}
	return false
}

func cellEqual(a, b string) bool {
	fa, ea := strconv.ParseFloat(strings.TrimSpace(a), 64)
	fb, eb := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if ea == nil && eb == nil {
		return fa == fb
	}
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}

// Join performs an inner join of two tables on exact equality of the key
// tuple. Rows whose key tuple has no match on the other side are dropped.
// Non-key columns present on both sides are renamed with the given
// suffixes before joining so no output column is ambiguous. An empty
// input yields an empty (but structurally valid) result.
func Join(left, right *Table, keys []string, leftSuffix, rightSuffix string) *Table {
	// Resolve collisions up front.
	collide := make(map[string]bool)
	for _, n := range left.names {
		if isKey(n, keys) {
			continue
		}
		if right.Has(n) {
			collide[n] = true
		}
	}

	outNames := make([]string, 0, len(left.names)+len(right.names))
	outNames = append(outNames, keys...)
	for _, n := range left.names {
		if isKey(n, keys) {
			continue
		}
		if collide[n] {
			outNames = append(outNames, n+leftSuffix)
		} else {
			outNames = append(outNames, n)
		}
	}
	for _, n := range right.names {
		if isKey(n, keys) {
			continue
		}
		if collide[n] {
			outNames = append(outNames, n+rightSuffix)
		} else {
			outNames = append(outNames, n)
		}
	}
	out := New(outNames...)

	byKey := make(map[string][]int)
	for row := 0; row < right.Len(); row++ {
		k := keyOf(right, keys, row)
		byKey[k] = append(byKey[k], row)
	}

	for lrow := 0; lrow < left.Len(); lrow++ {
		matches := byKey[keyOf(left, keys, lrow)]
		for _, rrow := range matches {
			cells := make([]string, 0, len(outNames))
			for _, k := range keys {
				cells = append(cells, left.String(k, lrow))
			}
			for _, n := range left.names {
				if !isKey(n, keys) {
					cells = append(cells, left.String(n, lrow))
				}
			}
			for _, n := range right.names {
				if !isKey(n, keys) {
					cells = append(cells, right.String(n, rrow))
				}
			}
			out.AppendRow(cells)
		}
	}
	return out
}

func isKey(name string, keys []string) bool {
	for _, k := range keys {
		if k == name {
			return true
		}
	}
	return false
}

// keyOf builds the lookup key for a row's key tuple. Numeric components
// are canonicalized so "1" and "1.0" join together.
func keyOf(t *Table, keys []string, row int) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		cell := strings.TrimSpace(t.String(k, row))
		if f, err := strconv.ParseFloat(cell, 64); err == nil {
			parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
		} else {
			parts[i] = cell
		}
	}
	return strings.Join(parts, "\x1f")
}
