package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/maritime-school/training-admin/internal/errors"
	"github.com/maritime-school/training-admin/internal/utils"
)

const dateLayout = "2006-01-02"

// Date is a calendar date accepted as "2006-01-02" or RFC3339.
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		d.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("invalid date %q", s)
	}
	*d = NewDate(t)
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(dateLayout))
}

// validatePeriod checks the dateDebut/dateFin pair shared by dated requests.
func validatePeriod(debut, fin Date) apperrors.ValidationErrors {
	var errs apperrors.ValidationErrors
	if debut.IsZero() {
		errs = append(errs, apperrors.ValidationError{Field: "dateDebut", Message: "is required", Rule: "required"})
	}
	if fin.IsZero() {
		errs = append(errs, apperrors.ValidationError{Field: "dateFin", Message: "is required", Rule: "required"})
	}
	if len(errs) == 0 && fin.Before(debut.Time) {
		errs = append(errs, apperrors.ValidationError{Field: "dateFin", Message: "must not be before dateDebut", Rule: "gtefield", Value: fin.Format(dateLayout)})
	}
	return errs
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// ===== PERSONNEL =====

type AgentRequest struct {
	NomPrenom      string `json:"nomPrenom" validate:"required,max=150"`
	Grade          string `json:"grade" validate:"required,grade"`
	Matricule      string `json:"matricule" validate:"required,len=6,digits"`
	Responsabilite string `json:"responsabilite" validate:"max=180"`
	Telephone      string `json:"telephone" validate:"omitempty,len=8,digits"`
}

// Mask strips non-digits from the masked inputs.
func (r *AgentRequest) Mask() {
	r.NomPrenom = strings.TrimSpace(r.NomPrenom)
	r.Matricule = utils.MaskMatricule(r.Matricule)
	r.Telephone = utils.MaskPhone(r.Telephone)
}

type FormateurRequest struct {
	NomPrenom      string `json:"nomPrenom" validate:"required,max=150"`
	Grade          string `json:"grade" validate:"required,grade"`
	Unite          string `json:"unite" validate:"max=150"`
	Responsabilite string `json:"responsabilite" validate:"max=180"`
	Telephone      string `json:"telephone" validate:"required,len=8,digits"`
	RIB            string `json:"rib" validate:"omitempty,len=20,digits"`
}

func (r *FormateurRequest) Mask() {
	r.NomPrenom = strings.TrimSpace(r.NomPrenom)
	r.Telephone = utils.MaskPhone(r.Telephone)
	r.RIB = utils.MaskRIB(r.RIB)
}

// ===== CATALOGUE =====

type FormationRequest struct {
	Formation          string `json:"formation" validate:"required,max=200"`
	TypeFormation      string `json:"typeFormation" validate:"required,type_formation"`
	Specialite         string `json:"specialite" validate:"omitempty,specialite"`
	Duree              string `json:"duree" validate:"max=50"`
	CapaciteAbsorption int    `json:"capaciteAbsorption" validate:"required,gt=0"`
}

type CoursRequest struct {
	Cours       string `json:"cours" validate:"required,max=200"`
	FormationID *uint  `json:"formationId" validate:"omitempty,gt=0"`
}

// ===== ENROLLMENTS =====

type AgentFormationRequest struct {
	AgentID            uint     `json:"agentId" validate:"required"`
	FormationID        uint     `json:"formationId" validate:"required"`
	SessionFormationID *uint    `json:"sessionFormationId" validate:"omitempty,gt=0"`
	DateDebut          Date     `json:"dateDebut"`
	DateFin            Date     `json:"dateFin"`
	Reference          string   `json:"reference" validate:"max=100"`
	Resultat           string   `json:"resultat" validate:"omitempty,resultat"`
	Moyenne            *float64 `json:"moyenne" validate:"omitempty,gte=0,lte=20"`
}

func (r AgentFormationRequest) ValidateBusiness() apperrors.ValidationErrors {
	return validatePeriod(r.DateDebut, r.DateFin)
}

type CoursFormateurRequest struct {
	FormateurID  uint   `json:"formateurId" validate:"required"`
	CoursID      uint   `json:"coursId" validate:"required"`
	DateDebut    Date   `json:"dateDebut"`
	DateFin      Date   `json:"dateFin"`
	NombreHeures int    `json:"nombreHeures" validate:"required,gt=0"`
	Reference    string `json:"reference" validate:"max=100"`
}

func (r CoursFormateurRequest) ValidateBusiness() apperrors.ValidationErrors {
	return validatePeriod(r.DateDebut, r.DateFin)
}

type SessionFormationRequest struct {
	FormationID        uint   `json:"formationId" validate:"required"`
	DateDebut          Date   `json:"dateDebut"`
	DateFin            Date   `json:"dateFin"`
	NombreParticipants int    `json:"nombreParticipants" validate:"required,gt=0"`
	Reference          string `json:"reference" validate:"max=100"`
	Statut             string `json:"statut" validate:"omitempty,session_status"`
	Color              string `json:"color" validate:"max=20"`
}

func (r SessionFormationRequest) ValidateBusiness() apperrors.ValidationErrors {
	return validatePeriod(r.DateDebut, r.DateFin)
}

// ===== USERS & ROLES =====

type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Name     string `json:"name" validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"max=50"`
}

type UpdateUserRequest struct {
	Email         string `json:"email" validate:"required,email,max=255"`
	Name          string `json:"name" validate:"required,max=100"`
	EmailVerified bool   `json:"emailVerified"`
}

type ChangePasswordRequest struct {
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type AssignRoleRequest struct {
	Role string `json:"role" validate:"required,max=50"`
}

type KillSessionRequest struct {
	UserID string `json:"userId" validate:"required"`
}

type RoleRequest struct {
	Name         string   `json:"name" validate:"required,max=50"`
	DisplayName  string   `json:"displayName" validate:"required,max=100"`
	Description  string   `json:"description"`
	Permissions  []string `json:"permissions" validate:"dive,permission"`
	UIComponents []string `json:"uiComponents" validate:"dive,required"`
	Color        string   `json:"color" validate:"omitempty,role_color"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type CasdoorCallbackRequest struct {
	Code  string `json:"code" validate:"required"`
	State string `json:"state"`
}
