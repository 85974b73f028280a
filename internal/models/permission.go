package models

// Action enumerates the operations the permission policy gates.
type Action string

const (
	ActionView        Action = "view"
	ActionCreate      Action = "create"
	ActionEdit        Action = "edit"
	ActionDeactivate  Action = "deactivate"
	ActionManageUsers Action = "manage-users"
)

// policy is the single role -> allowed-actions table. Every action entry
// point consults it; render-side checks are never the only gate.
var policy = map[UserRole]map[Action]bool{
	RoleAdmin: {
		ActionView:        true,
		ActionCreate:      true,
		ActionEdit:        true,
		ActionDeactivate:  true,
		ActionManageUsers: true,
	},
	RoleEditor: {
		ActionView:   true,
		ActionCreate: true,
		ActionEdit:   true,
	},
	RoleReader: {
		ActionView: true,
	},
}

// Can reports whether the role is allowed to perform the action.
// Unknown roles are allowed nothing.
func Can(role UserRole, action Action) bool {
	return policy[role][action]
}

// AllowedActions returns the set of actions granted to the role.
func AllowedActions(role UserRole) []Action {
	granted := policy[role]
	actions := make([]Action, 0, len(granted))
	for _, a := range []Action{ActionView, ActionCreate, ActionEdit, ActionDeactivate, ActionManageUsers} {
		if granted[a] {
			actions = append(actions, a)
		}
	}
	return actions
}

// CanSelectOffice reports whether the role may switch between offices.
// Readers are pinned to the office assigned in their profile.
func CanSelectOffice(role UserRole) bool {
	return role == RoleAdmin || role == RoleEditor
}
