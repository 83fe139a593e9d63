// Package tables configures the datatable engine for every entity screen:
// columns with their Arabic headers, search fields, filters and default order.
package tables

import (
	"cmp"
	"strconv"
	"time"

	"github.com/maritime-school/training-admin/internal/datatable"
	"github.com/maritime-school/training-admin/internal/utils"
)

func text[T any](key, header string, get func(T) string) datatable.Column[T] {
	return datatable.Column[T]{
		Key:     key,
		Header:  header,
		Value:   func(r T) any { return get(r) },
		Compare: datatable.By(get, datatable.CompareString),
	}
}

func optionalText[T any](key, header string, get func(T) *string) datatable.Column[T] {
	deref := func(r T) string {
		if v := get(r); v != nil {
			return *v
		}
		return ""
	}
	return datatable.Column[T]{
		Key:     key,
		Header:  header,
		Value:   func(r T) any { return get(r) },
		Compare: datatable.By(deref, datatable.CompareString),
	}
}

// phone columns export the grouped display form and sort on the digits.
func phone[T any](key, header string, get func(T) string) datatable.Column[T] {
	return datatable.Column[T]{
		Key:     key,
		Header:  header,
		Value:   func(r T) any { return utils.FormatPhone(get(r)) },
		Compare: datatable.By(get, datatable.CompareString),
	}
}

func rank[T any](key, header string, get func(T) string) datatable.Column[T] {
	return datatable.Column[T]{
		Key:     key,
		Header:  header,
		Value:   func(r T) any { return get(r) },
		Compare: datatable.By(get, datatable.CompareRank),
	}
}

// date columns start descending.
func date[T any](key, header string, get func(T) any) datatable.Column[T] {
	return datatable.Column[T]{
		Key:         key,
		Header:      header,
		Value:       get,
		Compare:     datatable.By(get, datatable.CompareDate),
		DefaultDesc: true,
		Width:       14,
	}
}

func number[T any, K cmp.Ordered](key, header string, get func(T) K) datatable.Column[T] {
	return datatable.Column[T]{
		Key:     key,
		Header:  header,
		Value:   func(r T) any { return get(r) },
		Compare: datatable.By(get, datatable.CompareOrdered[K]),
		Width:   12,
	}
}

// plain columns are exported but not sortable.
func plain[T any](key, header string, get func(T) any) datatable.Column[T] {
	return datatable.Column[T]{Key: key, Header: header, Value: get}
}

func idString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func optionalID(id *uint) string {
	if id == nil {
		return ""
	}
	return idString(*id)
}

func year(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return strconv.Itoa(t.Year())
}

func optionalYear(t *time.Time) string {
	if t == nil {
		return ""
	}
	return year(*t)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
