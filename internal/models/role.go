package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type RoleColor string

const (
	ColorBlue   RoleColor = "blue"
	ColorGreen  RoleColor = "green"
	ColorRed    RoleColor = "red"
	ColorPurple RoleColor = "purple"
	ColorOrange RoleColor = "orange"
	ColorGray   RoleColor = "gray"
	ColorYellow RoleColor = "yellow"
)

var RoleColors = []RoleColor{ColorBlue, ColorGreen, ColorRed, ColorPurple, ColorOrange, ColorGray, ColorYellow}

// Role names are immutable once created.
type Role struct {
	Name        string `json:"name" gorm:"primaryKey;size:50"`
	DisplayName string `json:"displayName" gorm:"not null;size:100"`
	Description string `json:"description" gorm:"type:text"`

	// JSON arrays of "resource:action" strings and UI component keys
	Permissions  datatypes.JSON `json:"permissions"`
	UIComponents datatypes.JSON `json:"uiComponents"`

	Color    RoleColor `json:"color" gorm:"size:20;default:gray"`
	IsSystem bool      `json:"isSystem" gorm:"default:false"`

	UserCount int64 `json:"userCount" gorm:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Role) TableName() string {
	return "roles"
}

func (r *Role) PermissionList() []string {
	return decodeStringList(r.Permissions)
}

func (r *Role) UIComponentList() []string {
	return decodeStringList(r.UIComponents)
}

// StringList encodes values as a JSON array column.
func StringList(values ...string) datatypes.JSON {
	if values == nil {
		values = []string{}
	}
	data, _ := json.Marshal(values)
	return datatypes.JSON(data)
}

func decodeStringList(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// UI component keys gated by CanAccessUIComponent.
const (
	UIResultatDropdown = "resultat-dropdown"
	UIRosterEditor     = "roster-editor"
	UIExportButtons    = "export-buttons"
	UIKillSession      = "kill-session"
	UIRoleEditor       = "role-editor"
)

// Built-in roles created at startup. They cannot be deleted.
var DefaultRoles = []Role{
	{
		Name:         "admin",
		DisplayName:  "مدير النظام",
		Description:  "صلاحيات كاملة",
		Permissions:  StringList("*:*"),
		UIComponents: StringList(UIResultatDropdown, UIRosterEditor, UIExportButtons, UIKillSession, UIRoleEditor),
		Color:        ColorRed,
		IsSystem:     true,
	},
	{
		Name:        "manager",
		DisplayName: "مسؤول التكوين",
		Description: "إدارة المتربصين والمكونين والدورات",
		Permissions: StringList(
			"agents:*", "formateurs:*", "formations:*", "cours:*",
			"agent-formations:*", "cours-formateurs:*", "sessions:*", "session-agents:*",
			"dashboard:read",
		),
		UIComponents: StringList(UIResultatDropdown, UIRosterEditor, UIExportButtons),
		Color:        ColorBlue,
		IsSystem:     true,
	},
	{
		Name:        DefaultRole,
		DisplayName: "عون",
		Description: "اطلاع فقط",
		Permissions: StringList(
			"agents:read", "formateurs:read", "formations:read", "cours:read",
			"agent-formations:read", "cours-formateurs:read", "sessions:read", "session-agents:read",
			"dashboard:read",
		),
		UIComponents: StringList(),
		Color:        ColorGray,
		IsSystem:     true,
	},
}
