package access

import "clinic/internal/domain/model"

// Action is a patient operation a page may offer a control for.
type Action string

const (
	AddPatient    Action = "add-patient"
	EditPatient   Action = "edit-patient"
	DeletePatient Action = "delete-patient"
	UpdateNotes   Action = "update-notes"
)

var actionRoles = map[Action]model.Role{
	AddPatient:    model.RoleReceptionist,
	EditPatient:   model.RoleReceptionist,
	DeletePatient: model.RoleReceptionist,
	UpdateNotes:   model.RoleDoctor,
}

// Access describes what the signed-in user may do. The zero value (no
// user) may do nothing.
type Access struct {
	User *model.User
}

func For(user *model.User) Access { return Access{User: user} }

// HasAccess reports whether the user holds one of roles; with no roles any
// signed-in user qualifies.
func (a Access) HasAccess(roles ...model.Role) bool {
	return a.User != nil && RequireRole(roles...).admits(a.User.Role)
}

func (a Access) IsDoctor() bool { return a.HasAccess(model.RoleDoctor) }

func (a Access) IsReceptionist() bool { return a.HasAccess(model.RoleReceptionist) }

// Can reports whether a control for action should be rendered.
func (a Access) Can(action Action) bool {
	role, ok := actionRoles[action]
	return ok && a.HasAccess(role)
}

// RequirementFor is the route requirement matching action.
func RequirementFor(action Action) Requirement {
	if role, ok := actionRoles[action]; ok {
		return RequireRole(role)
	}
	return RequireAuth()
}
