package models

import (
	apperrors "github.com/maritime-school/training-admin/internal/errors"
)

// SessionRoster is a session together with its enrolled agents.
type SessionRoster struct {
	Session   *SessionFormation `json:"session"`
	Agents    []*AgentFormation `json:"agents"`
	Capacity  int               `json:"capacity"`
	Remaining int               `json:"remaining"`
}

// AddSessionAgentRequest enrolls an agent, given by id or matricule, in a session.
type AddSessionAgentRequest struct {
	SessionID uint   `json:"sessionId" validate:"required"`
	AgentID   uint   `json:"agentId,omitempty" validate:"required_without=Matricule"`
	Matricule string `json:"matricule,omitempty" validate:"required_without=AgentID,omitempty,len=6,digits"`
}

// UpdateSessionAgentRequest is a partial update of a roster row. AgentID
// replaces the enrolled agent in place.
type UpdateSessionAgentRequest struct {
	AgentID  *uint    `json:"agentId,omitempty" validate:"omitempty,gt=0"`
	Resultat *string  `json:"resultat,omitempty" validate:"omitempty,resultat"`
	Moyenne  *float64 `json:"moyenne,omitempty" validate:"omitempty,gte=0,lte=20"`
}

func (r UpdateSessionAgentRequest) ValidateBusiness() apperrors.ValidationErrors {
	if r.AgentID == nil && r.Resultat == nil && r.Moyenne == nil {
		return apperrors.ValidationErrors{{
			Field:   "agentId",
			Message: "one of agentId, resultat or moyenne is required",
			Rule:    "required_one",
		}}
	}
	return nil
}
