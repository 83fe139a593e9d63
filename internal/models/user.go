package models

import (
	"time"
)

// DefaultRole is assigned to new users and to users whose role is removed.
const DefaultRole = "agent"

type User struct {
	ID            string `json:"id" gorm:"primaryKey;size:36"`
	Email         string `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Name          string `json:"name" gorm:"not null;size:100"`
	Password      string `json:"-" gorm:"not null;size:255"`
	Role          string `json:"role" gorm:"not null;size:50;default:agent;index"`
	EmailVerified bool   `json:"emailVerified" gorm:"default:false"`

	// Derived from the sessions table
	HasActiveSession bool `json:"hasActiveSession" gorm:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

// Session is a login session. Its ID is carried as the jti claim of the access token.
type Session struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	UserID    string    `json:"userId" gorm:"not null;size:36;index"`
	ExpiresAt time.Time `json:"expiresAt" gorm:"not null;index"`
	IPAddress string    `json:"ipAddress" gorm:"size:45"`
	UserAgent string    `json:"userAgent" gorm:"type:text"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Session) TableName() string {
	return "sessions"
}

func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
