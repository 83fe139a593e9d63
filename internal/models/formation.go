package models

import (
	"time"
)

const (
	TypeFormationBase       = "تكوين أساسي"
	TypeFormationSpecialite = "تكوين تخصصي"
	TypeFormationRecyclage  = "رسكلة"
	TypeFormationContinue   = "تكوين مستمر"
)

var TypesFormation = []string{TypeFormationBase, TypeFormationSpecialite, TypeFormationRecyclage, TypeFormationContinue}

var Specialites = []string{"ملاحة", "ميكانيك بحرية", "إلكترونيك", "إنقاذ بحري", "أمن بحري"}

type Formation struct {
	ID                 uint    `json:"id" gorm:"primaryKey"`
	Formation          string  `json:"formation" gorm:"not null;size:200"`
	TypeFormation      string  `json:"typeFormation" gorm:"not null;size:50;index"`
	Specialite         *string `json:"specialite" gorm:"size:50"`
	Duree              string  `json:"duree" gorm:"size:50"`
	CapaciteAbsorption int     `json:"capaciteAbsorption" gorm:"not null"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Formation) TableName() string {
	return "formations"
}

// Cours is a teaching unit, optionally attached to a formation.
type Cours struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Cours       string `json:"cours" gorm:"not null;size:200"`
	FormationID *uint  `json:"formationId" gorm:"index"`

	Formation *Formation `json:"formation,omitempty" gorm:"foreignKey:FormationID"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Cours) TableName() string {
	return "cours"
}

const (
	SessionScheduled  = "scheduled"
	SessionInProgress = "in-progress"
	SessionCompleted  = "completed"
)

var SessionStatuses = []string{SessionScheduled, SessionInProgress, SessionCompleted}

// SessionFormation is a scheduled run of a formation. Its roster is the set of
// AgentFormation rows pointing at it.
type SessionFormation struct {
	ID                 uint      `json:"id" gorm:"primaryKey"`
	FormationID        uint      `json:"formationId" gorm:"not null;index"`
	DateDebut          time.Time `json:"dateDebut" gorm:"not null;index"`
	DateFin            time.Time `json:"dateFin" gorm:"not null"`
	NombreParticipants int       `json:"nombreParticipants" gorm:"not null"`
	Reference          string    `json:"reference" gorm:"size:100"`
	Statut             string    `json:"statut" gorm:"size:20;default:scheduled;index"`
	Color              string    `json:"color" gorm:"size:20"`

	Formation *Formation `json:"formation,omitempty" gorm:"foreignKey:FormationID"`

	DisplayStatus string `json:"displayStatus" gorm:"-"`
	EnrolledCount int64  `json:"enrolledCount" gorm:"-"`

	CreatedAt time.Time `json:"createdAt"`
}

func (SessionFormation) TableName() string {
	return "session_formations"
}

// StatusAt derives the session status from its dates, compared by calendar day.
func (s *SessionFormation) StatusAt(now time.Time) string {
	today := dateOnly(now)
	switch {
	case today.Before(dateOnly(s.DateDebut)):
		return SessionScheduled
	case today.After(dateOnly(s.DateFin)):
		return SessionCompleted
	default:
		return SessionInProgress
	}
}

// StatusPriority orders sessions for the default view: running first, then
// upcoming, then finished. Unknown statuses sort last.
func StatusPriority(status string) int {
	switch status {
	case SessionInProgress:
		return 0
	case SessionScheduled:
		return 1
	case SessionCompleted:
		return 2
	default:
		return 3
	}
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
