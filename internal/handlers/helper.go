package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/maritime-school/training-admin/internal/datatable"
	"github.com/maritime-school/training-admin/internal/permissions"
	"github.com/maritime-school/training-admin/internal/services"
)

// parseIDParam reads a positive numeric path parameter. On failure it has
// already answered 400.
func parseIDParam(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param(param)), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid " + param,
			Details: "ID must be a positive integer",
		})
		return 0, false
	}
	return uint(id), true
}

func parseStringIDParam(c *gin.Context, param string) (string, bool) {
	id := strings.TrimSpace(c.Param(param))
	if id == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid " + param,
			Details: "ID cannot be empty",
		})
		return "", false
	}
	return id, true
}

func parseUintQuery(c *gin.Context, key string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Query(key)), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid " + key,
			Details: key + " must be a positive integer",
		})
		return 0, false
	}
	return uint(id), true
}

// parseListQuery turns sort, order, q, page and the table's own filter keys
// into a datatable.Query. A sort without order uses the column's first-click
// direction.
func parseListQuery[T any](c *gin.Context, table *datatable.Table[T]) (datatable.Query, error) {
	q := datatable.Query{Search: strings.TrimSpace(c.Query("q"))}

	if field := strings.TrimSpace(c.Query("sort")); field != "" {
		order := datatable.Order(strings.ToLower(strings.TrimSpace(c.Query("order"))))
		if order == "" {
			sort, err := table.Click(datatable.Sort{}, field)
			if err != nil {
				return q, fmt.Errorf("%w: %v %q", services.ErrInvalidQuery, err, field)
			}
			order = sort.Order
		}
		q.Sort = datatable.Sort{Field: field, Order: order}
	}

	if raw := strings.TrimSpace(c.Query("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return q, fmt.Errorf("%w: page must be a number", services.ErrInvalidQuery)
		}
		q.Page = page
	}

	for _, key := range table.FilterKeys() {
		v := strings.TrimSpace(c.Query(key))
		if v == "" {
			continue
		}
		if _, ok := table.Prefixes[key]; ok {
			if q.Prefixes == nil {
				q.Prefixes = make(map[string]string)
			}
			q.Prefixes[key] = v
			continue
		}
		if q.Filters == nil {
			q.Filters = make(map[string]string)
		}
		q.Filters[key] = v
	}
	return q, nil
}

// parseExportQuery is parseListQuery plus the export format and an optional
// comma-separated ids selection.
func parseExportQuery[T any](c *gin.Context, table *datatable.Table[T]) (datatable.Query, datatable.Format, error) {
	q, err := parseListQuery(c, table)
	if err != nil {
		return q, "", err
	}

	format, err := datatable.ParseFormat(c.DefaultQuery("format", string(datatable.FormatCSV)))
	if err != nil {
		return q, "", fmt.Errorf("%w: %v", services.ErrInvalidQuery, err)
	}

	if raw := strings.TrimSpace(c.Query("ids")); raw != "" {
		var ids []uint
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
			if err != nil {
				return q, "", fmt.Errorf("%w: invalid id %q", services.ErrInvalidQuery, part)
			}
			ids = append(ids, uint(id))
		}
		// Row actions stay single-select; only export accepts a page selection.
		var sel datatable.Selection
		if len(ids) == 1 {
			sel = sel.Toggle(ids[0])
		} else {
			sel = sel.TogglePage(ids)
		}
		q.IDs = sel.IDs()
	}
	return q, format, nil
}

// actorFromContext describes the caller set by RequireAuth.
func actorFromContext(c *gin.Context) services.Actor {
	return services.Actor{
		UserID:    c.GetString("user_id"),
		Role:      c.GetString(permissions.RoleContextKey),
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

func principalFromContext(c *gin.Context) *services.Principal {
	if v, ok := c.Get(principalContextKey); ok {
		if p, ok := v.(*services.Principal); ok {
			return p
		}
	}
	return nil
}

func sendFile(c *gin.Context, file *datatable.File) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// maskDraft normalizes digit-only fields of requests that have any.
func maskDraft[R any](draft *R) {
	if m, ok := any(draft).(interface{ Mask() }); ok {
		m.Mask()
	}
}
