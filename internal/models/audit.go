package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditAction string

const (
	AuditCreated      AuditAction = "created"
	AuditUpdated      AuditAction = "updated"
	AuditDeleted      AuditAction = "deleted"
	AuditLogin        AuditAction = "login"
	AuditLogout       AuditAction = "logout"
	AuditSessionKill  AuditAction = "session_killed"
	AuditRoleAssigned AuditAction = "role_assigned"
	AuditExported     AuditAction = "exported"
)

type AuditLog struct {
	ID       uint        `json:"id" gorm:"primaryKey"`
	Entity   string      `json:"entity" gorm:"not null;size:50;index"`
	EntityID string      `json:"entityId" gorm:"size:64;index"`
	Action   AuditAction `json:"action" gorm:"not null;size:30;index"`
	ActorID  string      `json:"actorId" gorm:"size:36;index"`

	// Before/after values
	Changes datatypes.JSON `json:"changes"`

	CreatedAt time.Time `json:"createdAt" gorm:"index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
