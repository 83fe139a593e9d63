package services

import (
	"fmt"
	"time"

	"github.com/maritime-school/training-admin/internal/datatable"
)

// listPage runs the loaded rows through the table engine.
func listPage[T any](table *datatable.Table[T], rows []T, q datatable.Query) (*datatable.Page[T], error) {
	if err := table.Validate(q); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	page := table.List(rows, q)
	return &page, nil
}

// exportView serializes the whole filtered and sorted view, ignoring the page.
func exportView[T any](table *datatable.Table[T], rows []T, q datatable.Query, format datatable.Format, now time.Time) (*datatable.File, error) {
	if err := table.Validate(q); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	file, err := table.Export(table.View(rows, q), format, now)
	if err != nil {
		return nil, fmt.Errorf("failed to export %s: %w", table.Name, err)
	}
	return file, nil
}

func idString(id uint) string {
	return fmt.Sprintf("%d", id)
}
