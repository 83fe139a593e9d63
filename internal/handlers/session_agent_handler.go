package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maritime-school/training-admin/internal/models"
	"github.com/maritime-school/training-admin/internal/permissions"
	"github.com/maritime-school/training-admin/internal/services"
	"github.com/maritime-school/training-admin/internal/utils"
	"github.com/maritime-school/training-admin/internal/validator"
)

// SessionAgentHandler serves the roster of a training session.
type SessionAgentHandler struct {
	BaseHandler
	rosterService services.SessionAgentService
	validator     *validator.Validator
}

func NewSessionAgentHandler(rosterService services.SessionAgentService, v *validator.Validator, base BaseHandler) *SessionAgentHandler {
	return &SessionAgentHandler{BaseHandler: base, rosterService: rosterService, validator: v}
}

// Roster returns the session, its enrolled agents and the places left
// @Summary Session roster
// @Tags session-agents
// @Produce json
// @Param sessionId query uint true "Session ID"
// @Success 200 {object} models.SessionRoster
// @Failure 404 {object} ErrorResponse
// @Router /session-agents [get]
func (h *SessionAgentHandler) Roster(c *gin.Context) {
	sessionID, ok := parseUintQuery(c, "sessionId")
	if !ok {
		return
	}

	roster, err := h.rosterService.Roster(c.Request.Context(), sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, roster)
}

// Candidates autocompletes agents by matricule prefix, excluding the roster
// @Router /session-agents/candidates [get]
func (h *SessionAgentHandler) Candidates(c *gin.Context) {
	sessionID, ok := parseUintQuery(c, "sessionId")
	if !ok {
		return
	}

	agents, err := h.rosterService.Candidates(c.Request.Context(), sessionID, c.Query("matricule"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, agents)
}

// @Router /session-agents [post]
func (h *SessionAgentHandler) Add(c *gin.Context) {
	var req models.AddSessionAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondInvalidPayload(c, err)
		return
	}
	req.Matricule = utils.MaskMatricule(req.Matricule)

	actor := actorFromContext(c)
	var row *models.AgentFormation
	res := saveDialog(c, h.validator, &req, func(ctx context.Context, draft models.AddSessionAgentRequest) (err error) {
		row, err = h.rosterService.Add(ctx, &draft, actor)
		return err
	})
	if !res.Success {
		h.handleServiceError(c, res.Err)
		return
	}

	h.LogRequest(c, "Agent added to session", "session_id", req.SessionID, "row_id", row.ID)
	c.JSON(http.StatusCreated, row)
}

// Update changes the outcome, the average or the agent of a roster row
// @Router /session-agents/{id} [put]
func (h *SessionAgentHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateSessionAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondInvalidPayload(c, err)
		return
	}
	if req.Resultat != nil && !permissions.AllowUIComponent(c, models.UIResultatDropdown) {
		return
	}
	if req.AgentID != nil && !permissions.AllowUIComponent(c, models.UIRosterEditor) {
		return
	}

	actor := actorFromContext(c)
	var row *models.AgentFormation
	res := saveDialog(c, h.validator, &req, func(ctx context.Context, draft models.UpdateSessionAgentRequest) (err error) {
		row, err = h.rosterService.Update(ctx, id, &draft, actor)
		return err
	})
	if !res.Success {
		h.handleServiceError(c, res.Err)
		return
	}
	c.JSON(http.StatusOK, row)
}

// @Router /session-agents/{id}/confirm [post]
func (h *SessionAgentHandler) Confirm(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	row, err := h.rosterService.Confirm(c.Request.Context(), id, actorFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

// @Router /session-agents/{id} [delete]
func (h *SessionAgentHandler) Remove(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.rosterService.Remove(c.Request.Context(), id, actorFromContext(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Agent removed from session", "row_id", id)
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
