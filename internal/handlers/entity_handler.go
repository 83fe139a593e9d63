package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maritime-school/training-admin/internal/datatable"
	"github.com/maritime-school/training-admin/internal/forms"
	"github.com/maritime-school/training-admin/internal/services"
	"github.com/maritime-school/training-admin/internal/validator"
)

// entityService is the CRUD surface shared by every entity screen. C and U are
// the create and update payloads, K the key type.
type entityService[T any, C any, U any, K comparable] interface {
	List(ctx context.Context, q datatable.Query) (*datatable.Page[T], error)
	Export(ctx context.Context, q datatable.Query, format datatable.Format, actor services.Actor) (*datatable.File, error)
	GetByID(ctx context.Context, id K) (T, error)
	Create(ctx context.Context, req *C, actor services.Actor) (T, error)
	Update(ctx context.Context, id K, req *U, actor services.Actor) (T, error)
	Delete(ctx context.Context, id K, actor services.Actor) error
}

// EntityHandler serves list, export, get, create, update and delete for one
// entity. Create and update go through a forms.Dialog.
type EntityHandler[T any, C any, U any, K comparable] struct {
	BaseHandler
	resource  string
	service   entityService[T, C, U, K]
	table     *datatable.Table[T]
	validator *validator.Validator
	parseKey  func(c *gin.Context, param string) (K, bool)
}

func NewEntityHandler[T any, C any, U any, K comparable](
	resource string,
	service entityService[T, C, U, K],
	table *datatable.Table[T],
	parseKey func(c *gin.Context, param string) (K, bool),
	v *validator.Validator,
	base BaseHandler,
) *EntityHandler[T, C, U, K] {
	return &EntityHandler[T, C, U, K]{
		BaseHandler: base,
		resource:    resource,
		service:     service,
		table:       table,
		validator:   v,
		parseKey:    parseKey,
	}
}

// List returns one page of the filtered and sorted entity list
// @Router /{entity} [get]
func (h *EntityHandler[T, C, U, K]) List(c *gin.Context) {
	q, err := parseListQuery(c, h.table)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	page, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Export downloads the whole filtered view as csv, json or xlsx
// @Router /{entity}/export [get]
func (h *EntityHandler[T, C, U, K]) Export(c *gin.Context) {
	q, format, err := parseExportQuery(c, h.table)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	file, err := h.service.Export(c.Request.Context(), q, format, actorFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.LogInfo(c, "Exported "+h.resource, "format", format, "bytes", len(file.Data))
	sendFile(c, file)
}

// @Router /{entity}/{id} [get]
func (h *EntityHandler[T, C, U, K]) Get(c *gin.Context) {
	id, ok := h.parseKey(c, "id")
	if !ok {
		return
	}

	entity, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity)
}

// Create binds the payload into a new dialog draft and saves it
// @Router /{entity} [post]
func (h *EntityHandler[T, C, U, K]) Create(c *gin.Context) {
	var req C
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondInvalidPayload(c, err)
		return
	}

	actor := actorFromContext(c)
	var created T
	res := saveDialog(c, h.validator, &req, func(ctx context.Context, draft C) (err error) {
		created, err = h.service.Create(ctx, &draft, actor)
		return err
	})
	if !res.Success {
		h.handleServiceError(c, res.Err)
		return
	}

	h.LogRequest(c, "Created "+h.resource)
	c.JSON(http.StatusCreated, created)
}

// @Router /{entity}/{id} [put]
func (h *EntityHandler[T, C, U, K]) Update(c *gin.Context) {
	id, ok := h.parseKey(c, "id")
	if !ok {
		return
	}

	var req U
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondInvalidPayload(c, err)
		return
	}

	actor := actorFromContext(c)
	var updated T
	res := saveDialog(c, h.validator, &req, func(ctx context.Context, draft U) (err error) {
		updated, err = h.service.Update(ctx, id, &draft, actor)
		return err
	})
	if !res.Success {
		h.handleServiceError(c, res.Err)
		return
	}

	h.LogRequest(c, "Updated "+h.resource, "id", fmt.Sprint(id))
	c.JSON(http.StatusOK, updated)
}

// @Router /{entity}/{id} [delete]
func (h *EntityHandler[T, C, U, K]) Delete(c *gin.Context) {
	id, ok := h.parseKey(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id, actorFromContext(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Deleted "+h.resource, "id", fmt.Sprint(id))
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// saveDialog opens a dialog on req, masks digit fields, validates and persists
// the draft.
func saveDialog[R any](c *gin.Context, v *validator.Validator, req *R, persist func(ctx context.Context, draft R) error) forms.Result {
	dialog := forms.NewDialog[R](v)
	dialog.Open(req)
	if err := dialog.Edit(maskDraft[R]); err != nil {
		return forms.Failed(err)
	}

	return dialog.Save(c.Request.Context(), func(ctx context.Context, draft R) forms.Result {
		if err := persist(ctx, draft); err != nil {
			return forms.Failed(err)
		}
		return forms.Succeeded()
	})
}

// subListHandler serves a page of rows belonging to the entity in the id path
// parameter, e.g. the formations of one agent.
func subListHandler[T any](
	h *BaseHandler,
	table *datatable.Table[T],
	list func(ctx context.Context, id uint, q datatable.Query) (*datatable.Page[T], error),
) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c, "id")
		if !ok {
			return
		}
		q, err := parseListQuery(c, table)
		if err != nil {
			h.handleServiceError(c, err)
			return
		}

		page, err := list(c.Request.Context(), id, q)
		if err != nil {
			h.handleServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}
