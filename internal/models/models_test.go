package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionStatusAt(t *testing.T) {
	s := &SessionFormation{
		DateDebut: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		DateFin:   time.Date(2025, 4, 20, 0, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{"day before start", time.Date(2025, 3, 31, 23, 59, 0, 0, time.UTC), SessionScheduled},
		{"first day", time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC), SessionInProgress},
		{"last day evening", time.Date(2025, 4, 20, 22, 0, 0, 0, time.UTC), SessionInProgress},
		{"day after end", time.Date(2025, 4, 21, 0, 0, 0, 0, time.UTC), SessionCompleted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.StatusAt(tt.now))
		})
	}
}

func TestStatusPriority(t *testing.T) {
	assert.Less(t, StatusPriority(SessionInProgress), StatusPriority(SessionScheduled))
	assert.Less(t, StatusPriority(SessionScheduled), StatusPriority(SessionCompleted))
	assert.Less(t, StatusPriority(SessionCompleted), StatusPriority("cancelled"))
}

func TestAgentBeforeSaveDerivesCategorie(t *testing.T) {
	a := &Agent{Grade: "رائد"}
	assert.NoError(t, a.BeforeSave(nil))
	assert.Equal(t, "ضابط سامي", a.Categorie)

	a.Grade = "وكيل"
	assert.NoError(t, a.BeforeSave(nil))
	assert.Equal(t, "ضابط صف", a.Categorie)
}

func TestRoleStringLists(t *testing.T) {
	r := &Role{
		Permissions:  StringList("agents:read", "sessions:*"),
		UIComponents: StringList(),
	}
	assert.Equal(t, []string{"agents:read", "sessions:*"}, r.PermissionList())
	assert.Empty(t, r.UIComponentList())
	assert.JSONEq(t, `[]`, string(StringList()))

	assert.Nil(t, (&Role{}).PermissionList())
	assert.Nil(t, (&Role{Permissions: []byte("not json")}).PermissionList())
}

func TestSessionIsExpired(t *testing.T) {
	now := time.Date(2025, 4, 10, 9, 0, 0, 0, time.UTC)
	s := &Session{ExpiresAt: now}
	assert.True(t, s.IsExpired(now))
	assert.False(t, s.IsExpired(now.Add(-time.Second)))
}

func TestDefaultRolesAreSystem(t *testing.T) {
	names := make(map[string]bool)
	for _, r := range DefaultRoles {
		assert.True(t, r.IsSystem, r.Name)
		names[r.Name] = true
	}
	assert.True(t, names["admin"])
	assert.True(t, names[DefaultRole])
}
