package models

import (
	"time"
)

const (
	ResultatReussi  = "ناجح"
	ResultatEchoue  = "راسب"
	ResultatAbsent  = "لم يلتحق"
	ResultatRetire  = "منسحب"
	ResultatExclu   = "مطرود"
	MoyenneMaximale = 20
)

var Resultats = []string{ResultatReussi, ResultatEchoue, ResultatAbsent, ResultatRetire, ResultatExclu}

// AgentFormation enrolls an agent in a formation, optionally within a session.
type AgentFormation struct {
	ID                 uint      `json:"id" gorm:"primaryKey"`
	AgentID            uint      `json:"agentId" gorm:"not null;index"`
	FormationID        uint      `json:"formationId" gorm:"not null;index"`
	SessionFormationID *uint     `json:"sessionFormationId" gorm:"index"`
	DateDebut          time.Time `json:"dateDebut" gorm:"not null;index"`
	DateFin            time.Time `json:"dateFin" gorm:"not null"`
	Reference          *string   `json:"reference" gorm:"size:100"`
	Resultat           *string   `json:"resultat" gorm:"size:20"`
	Moyenne            *float64  `json:"moyenne"`

	Agent     *Agent     `json:"agent,omitempty" gorm:"foreignKey:AgentID"`
	Formation *Formation `json:"formation,omitempty" gorm:"foreignKey:FormationID"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (AgentFormation) TableName() string {
	return "agent_formations"
}

// CoursFormateur assigns a trainer to teach a course.
type CoursFormateur struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	FormateurID  uint      `json:"formateurId" gorm:"not null;index"`
	CoursID      uint      `json:"coursId" gorm:"not null;index"`
	DateDebut    time.Time `json:"dateDebut" gorm:"not null"`
	DateFin      time.Time `json:"dateFin" gorm:"not null"`
	NombreHeures int       `json:"nombreHeures" gorm:"not null"`
	Reference    *string   `json:"reference" gorm:"size:100"`

	Formateur *Formateur `json:"formateur,omitempty" gorm:"foreignKey:FormateurID"`
	Cours     *Cours     `json:"cours,omitempty" gorm:"foreignKey:CoursID"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (CoursFormateur) TableName() string {
	return "cours_formateurs"
}
