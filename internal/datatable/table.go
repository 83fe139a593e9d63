// Package datatable is the list engine shared by every entity screen: it sorts,
// filters, paginates and exports an in-memory slice of rows according to a
// per-entity Table configuration.
package datatable

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/maritime-school/training-admin/internal/utils"
)

// PageSize is the fixed number of rows per page.
const PageSize = 10

var (
	ErrUnknownSortField = errors.New("unknown sort field")
	ErrInvalidOrder     = errors.New("invalid sort order")
)

// Column describes one displayed field of a table.
type Column[T any] struct {
	Key    string
	Header string
	// Value projects the row for export.
	Value func(T) any
	// Compare orders two rows by this column; nil means the column is not sortable.
	Compare func(a, b T) int
	// DefaultDesc makes the first click on this column sort descending.
	DefaultDesc bool
	// Width is the Excel column width; zero uses DefaultColumnWidth.
	Width float64
}

// Table configures the engine for one entity.
type Table[T any] struct {
	Name    string
	RTL     bool
	Columns []Column[T]

	// Search returns the texts matched by the free-text search.
	Search func(T) []string
	// Prefixes are prefix-matched filters, e.g. matricule.
	Prefixes map[string]func(T) string
	// Filters are exact-match categorical filters.
	Filters map[string]func(T) string
	// DefaultOrder is used when no explicit sort is requested.
	DefaultOrder func(a, b T) int
	// ID identifies a row for selection-restricted views.
	ID func(T) uint
}

// Query is the view state applied to a table.
type Query struct {
	Sort     Sort
	Search   string
	Prefixes map[string]string
	Filters  map[string]string
	Page     int
	// IDs restricts the view to the given rows when non-empty.
	IDs []uint
}

// Page is one page of a filtered and sorted view.
type Page[T any] struct {
	Items     []T    `json:"items"`
	Total     int    `json:"total"`
	Page      int    `json:"page"`
	PageSize  int    `json:"pageSize"`
	PageCount int    `json:"pageCount"`
	Sort      string `json:"sort,omitempty"`
	Order     Order  `json:"order,omitempty"`
}

// Column returns the column registered under key.
func (t *Table[T]) Column(key string) (Column[T], bool) {
	for _, c := range t.Columns {
		if c.Key == key {
			return c, true
		}
	}
	return Column[T]{}, false
}

// FilterKeys lists the prefix and exact filter names the table understands.
func (t *Table[T]) FilterKeys() []string {
	keys := make([]string, 0, len(t.Prefixes)+len(t.Filters))
	for k := range t.Prefixes {
		keys = append(keys, k)
	}
	for k := range t.Filters {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Validate checks that the query only references known sort columns.
func (t *Table[T]) Validate(q Query) error {
	if q.Sort.Field == "" {
		return nil
	}
	col, ok := t.Column(q.Sort.Field)
	if !ok || col.Compare == nil {
		return fmt.Errorf("%w: %s", ErrUnknownSortField, q.Sort.Field)
	}
	if q.Sort.Order != Asc && q.Sort.Order != Desc {
		return fmt.Errorf("%w: %s", ErrInvalidOrder, q.Sort.Order)
	}
	return nil
}

// Filter returns the rows satisfying every active predicate of q, in input order.
func (t *Table[T]) Filter(rows []T, q Query) []T {
	search := utils.NormalizeArabic(q.Search)

	var ids map[uint]struct{}
	if len(q.IDs) > 0 && t.ID != nil {
		ids = make(map[uint]struct{}, len(q.IDs))
		for _, id := range q.IDs {
			ids[id] = struct{}{}
		}
	}

	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if ids != nil {
			if _, ok := ids[t.ID(row)]; !ok {
				continue
			}
		}
		if search != "" && !t.matchesSearch(row, search) {
			continue
		}
		if !t.matchesPrefixes(row, q.Prefixes) || !t.matchesFilters(row, q.Filters) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func (t *Table[T]) matchesSearch(row T, normalized string) bool {
	if t.Search == nil {
		return true
	}
	for _, field := range t.Search(row) {
		if strings.Contains(utils.NormalizeArabic(field), normalized) {
			return true
		}
	}
	return false
}

func (t *Table[T]) matchesPrefixes(row T, prefixes map[string]string) bool {
	for key, want := range prefixes {
		if want == "" {
			continue
		}
		get, ok := t.Prefixes[key]
		if !ok {
			continue
		}
		if !strings.HasPrefix(get(row), want) {
			return false
		}
	}
	return true
}

func (t *Table[T]) matchesFilters(row T, filters map[string]string) bool {
	for key, want := range filters {
		if want == "" {
			continue
		}
		get, ok := t.Filters[key]
		if !ok {
			continue
		}
		if utils.NormalizeArabic(get(row)) != utils.NormalizeArabic(want) {
			return false
		}
	}
	return true
}

// SortRows returns a sorted copy of rows. An empty sort field falls back to
// DefaultOrder, or input order when the table has none.
func (t *Table[T]) SortRows(rows []T, s Sort) []T {
	out := slices.Clone(rows)

	cmp := t.DefaultOrder
	if s.Field != "" {
		if col, ok := t.Column(s.Field); ok && col.Compare != nil {
			cmp = col.Compare
			if s.Order == Desc {
				cmp = Reverse(cmp)
			}
		}
	}
	if cmp != nil {
		slices.SortStableFunc(out, cmp)
	}
	return out
}

// View filters then sorts rows; this is the sequence exported and paginated.
func (t *Table[T]) View(rows []T, q Query) []T {
	return t.SortRows(t.Filter(rows, q), q.Sort)
}

// List returns the requested page of the view.
func (t *Table[T]) List(rows []T, q Query) Page[T] {
	view := t.View(rows, q)
	items, page, count := Paginate(view, q.Page)
	return Page[T]{
		Items:     items,
		Total:     len(view),
		Page:      page,
		PageSize:  PageSize,
		PageCount: count,
		Sort:      q.Sort.Field,
		Order:     q.Sort.Order,
	}
}

// Paginate slices rows into the requested page. The page number is clamped to
// [1, pageCount] and pageCount is at least 1.
func Paginate[T any](rows []T, page int) (items []T, current int, pageCount int) {
	pageCount = (len(rows) + PageSize - 1) / PageSize
	if pageCount < 1 {
		pageCount = 1
	}
	current = min(max(page, 1), pageCount)

	start := (current - 1) * PageSize
	end := min(start+PageSize, len(rows))
	if start >= end {
		return []T{}, current, pageCount
	}
	return rows[start:end], current, pageCount
}
