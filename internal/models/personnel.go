package models

import (
	"time"

	"github.com/maritime-school/training-admin/internal/grades"
	"gorm.io/gorm"
)

// Agent is a trainee.
type Agent struct {
	ID             uint    `json:"id" gorm:"primaryKey"`
	NomPrenom      string  `json:"nomPrenom" gorm:"not null;size:150"`
	Grade          string  `json:"grade" gorm:"not null;size:50;index"`
	Matricule      string  `json:"matricule" gorm:"uniqueIndex;not null;size:6"`
	Responsabilite string  `json:"responsabilite" gorm:"size:180"`
	Telephone      *string `json:"telephone" gorm:"size:8"`
	Categorie      string  `json:"categorie" gorm:"size:50;index"`

	// Start date of the latest enrollment
	LastFormationDate *time.Time `json:"lastFormationDate" gorm:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Agent) TableName() string {
	return "agents"
}

// BeforeSave keeps Categorie in sync with Grade.
func (a *Agent) BeforeSave(tx *gorm.DB) error {
	a.Categorie = grades.Categorie(a.Grade)
	return nil
}

// Formateur is a trainer.
type Formateur struct {
	ID             uint    `json:"id" gorm:"primaryKey"`
	NomPrenom      string  `json:"nomPrenom" gorm:"not null;size:150"`
	Grade          string  `json:"grade" gorm:"not null;size:50;index"`
	Unite          string  `json:"unite" gorm:"size:150"`
	Responsabilite string  `json:"responsabilite" gorm:"size:180"`
	Telephone      string  `json:"telephone" gorm:"size:8"`
	RIB            *string `json:"rib" gorm:"column:rib;size:20"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Formateur) TableName() string {
	return "formateurs"
}
