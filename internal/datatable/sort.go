package datatable

import (
	"cmp"
	"strings"
	"time"

	"github.com/maritime-school/training-admin/internal/grades"
)

type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Sort is the (field, order) pair of a table. An empty Field means no explicit sort.
type Sort struct {
	Field string `json:"field,omitempty"`
	Order Order  `json:"order,omitempty"`
}

// NextSort computes the sort state after a click on field: the active field
// toggles its order, any other field starts ascending unless defaultDesc.
func NextSort(current Sort, field string, defaultDesc bool) Sort {
	if current.Field == field {
		if current.Order == Asc {
			return Sort{Field: field, Order: Desc}
		}
		return Sort{Field: field, Order: Asc}
	}
	if defaultDesc {
		return Sort{Field: field, Order: Desc}
	}
	return Sort{Field: field, Order: Asc}
}

// Click applies NextSort using the column's own default direction.
func (t *Table[T]) Click(current Sort, field string) (Sort, error) {
	col, ok := t.Column(field)
	if !ok || col.Compare == nil {
		return current, ErrUnknownSortField
	}
	return NextSort(current, field, col.DefaultDesc), nil
}

// Reverse inverts a comparator.
func Reverse[T any](c func(a, b T) int) func(a, b T) int {
	return func(a, b T) int { return c(b, a) }
}

// By builds a row comparator from a key extractor and a key comparator.
func By[T, K any](key func(T) K, compare func(a, b K) int) func(a, b T) int {
	return func(a, b T) int { return compare(key(a), key(b)) }
}

// Then chains comparators: later ones break ties of earlier ones.
func Then[T any](cmps ...func(a, b T) int) func(a, b T) int {
	return func(a, b T) int {
		for _, c := range cmps {
			if r := c(a, b); r != 0 {
				return r
			}
		}
		return 0
	}
}

// CompareString is a case-sensitive lexical comparison.
func CompareString(a, b string) int {
	return strings.Compare(a, b)
}

// CompareOrdered compares numbers and other ordered values.
func CompareOrdered[K cmp.Ordered](a, b K) int {
	return cmp.Compare(a, b)
}

// CompareRank orders military grades, highest rank first, unknown grades last.
func CompareRank(a, b string) int {
	return grades.Compare(a, b)
}

// CompareDate compares two date values by epoch milliseconds.
func CompareDate(a, b any) int {
	return cmp.Compare(EpochMillis(a), EpochMillis(b))
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02", "02/01/2006"}

// EpochMillis converts a time.Time, *time.Time or date string to epoch
// milliseconds. Missing or unparseable values convert to 0.
func EpochMillis(v any) int64 {
	switch d := v.(type) {
	case time.Time:
		if d.IsZero() {
			return 0
		}
		return d.UnixMilli()
	case *time.Time:
		if d == nil {
			return 0
		}
		return EpochMillis(*d)
	case string:
		s := strings.TrimSpace(d)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UnixMilli()
			}
		}
	case *string:
		if d != nil {
			return EpochMillis(*d)
		}
	}
	return 0
}
