// Package permissions gates actions by role. A role holds "resource:action"
// permissions, checked with Can, and a separate list of UI component keys,
// checked with CanAccessUIComponent.
package permissions

import "strings"

const (
	ActionRead   = "read"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionExport = "export"
)

const Wildcard = "*"

// Permission has the form "resource:action".
type Permission string

// SuperAdmin matches every request.
const SuperAdmin Permission = "*:*"

func NewPermission(resource, action string) Permission {
	return Permission(resource + ":" + action)
}

// Parse splits a permission into resource and action. Malformed permissions
// return empty strings.
func (p Permission) Parse() (resource, action string) {
	resource, action, ok := strings.Cut(string(p), ":")
	if !ok {
		return "", ""
	}
	return resource, action
}

// Matches reports whether p grants requested. "res:*" grants every action on
// res and "*:action" grants action on every resource.
func (p Permission) Matches(requested Permission) bool {
	if p == SuperAdmin || p == requested {
		return true
	}
	res, act := p.Parse()
	reqRes, reqAct := requested.Parse()
	if res == "" || reqRes == "" {
		return false
	}
	return (res == Wildcard || res == reqRes) && (act == Wildcard || act == reqAct)
}

// Map associates each role with its permissions.
type Map map[string][]Permission

// UIMap associates each role with the UI components it may use.
type UIMap map[string][]string

// Can reports whether role may perform action on resource.
func Can(role, resource, action string, perms Map) bool {
	requested := NewPermission(resource, action)
	for _, p := range perms[role] {
		if p.Matches(requested) {
			return true
		}
	}
	return false
}

// CanAccessUIComponent reports whether role may use component. It is
// independent of Can: a role may read a resource yet not see a control on it.
func CanAccessUIComponent(role, component string, ui UIMap) bool {
	for _, c := range ui[role] {
		if c == component || c == Wildcard {
			return true
		}
	}
	return false
}
